package model

import "time"

// LeaderboardEntry is a display row: rank is the 1-based position in the
// score-descending order, ties receive sequential ranks.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
	RepoURL     string    `json:"repo_url"`
}
