package model

import "time"

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionReviewed SubmissionStatus = "reviewed"
	SubmissionRejected SubmissionStatus = "rejected"
)

type Submission struct {
	ID              string           `json:"id"`
	ChallengeID     string           `json:"challenge_id"`
	UserID          string           `json:"user_id"`
	RepoURL         string           `json:"repo_url"`
	VideoURL        string           `json:"video_url"`
	PresentationURL string           `json:"presentation_url"`
	Notes           *string          `json:"notes,omitempty"`
	Status          SubmissionStatus `json:"status"`
	Score           *int             `json:"score,omitempty"`
	Feedback        *string          `json:"feedback,omitempty"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`

	// Populated by joins for display.
	ChallengeTitle *string `json:"challenge_title,omitempty"`
	UserFullName   *string `json:"user_full_name,omitempty"`
	UserAvatarURL  *string `json:"user_avatar_url,omitempty"`
}
