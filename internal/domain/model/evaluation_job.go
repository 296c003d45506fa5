package model

import "time"

const (
	JobStatusQueued       = "Queued"
	JobStatusProcessing   = "Processing"
	JobStatusSentToScorer = "SentToScorer" // waiting on the webhook callback
	JobStatusCompleted    = "Completed"
	JobStatusFailed       = "Failed"
)

// EvaluationJob is the durable record behind the Redis queue: the queue only
// carries job ids, so a restart never loses a pending evaluation.
type EvaluationJob struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Status       string    `json:"status"`
	Attempts     int       `json:"attempts"`
	LastError    *string   `json:"last_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
