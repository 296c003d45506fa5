package model

import "time"

// Participation is the join record between a participant and a challenge.
// Created once per (challenge, user); never mutated.
type Participation struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challenge_id"`
	UserID      string    `json:"user_id"`
	JoinedAt    time.Time `json:"joined_at"`

	// Populated by joins for dashboard views.
	ChallengeTitle    *string    `json:"challenge_title,omitempty"`
	ChallengeCompany  *string    `json:"challenge_company,omitempty"`
	ChallengeDeadline *time.Time `json:"challenge_deadline,omitempty"`
}
