package dto

// Push message types sent over the websocket channel.
const (
	PushRecordingEvent = "recording_event"
	PushUsageNotice    = "usage_notice"
	PushNoteSaved      = "soap_note_saved"
)

// RecordingEventMessage is the watermill payload relayed to the hub.
type RecordingEventMessage struct {
	UserId string `json:"user_id"`
	Event  any    `json:"event"`
}
