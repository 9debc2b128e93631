package dto

import (
	"convohealth-be/pkg/recording/orchestrator"
	"convohealth-be/pkg/usage"
)

type StartRecordingResponse struct {
	SessionId string                `json:"session_id"`
	Snapshot  orchestrator.Snapshot `json:"snapshot"`
	Usage     usage.Notice          `json:"usage"`
}

type ChunkUploadResponse struct {
	Bytes int `json:"bytes"`
}

// RecordingStatusResponse wraps a snapshot with the usage notice produced
// when the session completed, if any.
type RecordingStatusResponse struct {
	Snapshot orchestrator.Snapshot `json:"snapshot"`
	Usage    *usage.Notice         `json:"usage,omitempty"`
}
