package events

const (
	SoapNoteSaved         = "SOAP_NOTE_SAVED"
	SoapNoteDeleted       = "SOAP_NOTE_DELETED"
	SoapNotesPurged       = "SOAP_NOTES_PURGED"
	RecordingCompleted    = "RECORDING_COMPLETED"
	UsageThresholdReached = "USAGE_THRESHOLD_REACHED"
	UsageSessionsRepaired = "USAGE_SESSIONS_REPAIRED"
)

// Subject is the NATS subject an event type is published on.
func Subject(eventType string) string {
	return "events." + eventType
}
