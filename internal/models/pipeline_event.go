package models

import "time"

// PipelineEventType enumerates the event kinds published on a session's
// pipeline bus topic.
type PipelineEventType string

const (
	EventOrchestrationProgress PipelineEventType = "orchestration_progress"
	EventEyeResult             PipelineEventType = "eye_update"
	EventOrchestrationComplete PipelineEventType = "orchestration_complete"
	EventOrchestrationFailed   PipelineEventType = "orchestration_failed"
)

// PipelineEvent is a timestamped, sequenced record published to observers
// of a session. Sequence numbers are monotonic per session and totally
// order events within that session.
type PipelineEvent struct {
	Type      PipelineEventType `json:"type"`
	SessionID string            `json:"session_id"`
	Sequence  uint64            `json:"seq"`
	Timestamp time.Time         `json:"ts"`
	Payload   map[string]any    `json:"data"`
	// Dropped is non-zero when the subscriber receiving this event missed
	// earlier events because its delivery queue was full.
	Dropped uint64 `json:"dropped,omitempty"`
}

// OrchestrationProgressPayload is the payload shape for EventOrchestrationProgress.
type OrchestrationProgressPayload struct {
	Progress      float64 `json:"progress"`
	CurrentStage  string  `json:"current_stage"`
	TotalStages   int     `json:"total_stages"`
	CompletedStages int   `json:"completed_stages"`
}
