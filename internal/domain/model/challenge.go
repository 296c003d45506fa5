package model

import (
	"math"
	"time"
)

type ChallengeDifficulty string

const (
	DifficultyBeginner     ChallengeDifficulty = "Beginner"
	DifficultyIntermediate ChallengeDifficulty = "Intermediate"
	DifficultyAdvanced     ChallengeDifficulty = "Advanced"
)

type Prize struct {
	Position string `json:"position"`
	Reward   string `json:"reward"`
}

type Challenge struct {
	ID                     string              `json:"id"`
	Slug                   string              `json:"slug"`
	Title                  string              `json:"title"`
	Company                string              `json:"company"`
	CompanyLogoURL         *string             `json:"company_logo_url,omitempty"`
	Description            string              `json:"description"`
	LongDescription        string              `json:"long_description"`
	Difficulty             ChallengeDifficulty `json:"difficulty"`
	Deadline               time.Time           `json:"deadline"`
	Tags                   []string            `json:"tags"`
	Featured               bool                `json:"featured"`
	Participants           int                 `json:"participants"`
	Prizes                 []Prize             `json:"prizes"`
	SubmissionRequirements []string            `json:"submission_requirements"`
	EvaluationCriteria     []string            `json:"evaluation_criteria"`
	CreatedByID            *string             `json:"created_by_id,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`

	// Derived, never stored.
	DaysLeft int  `json:"days_left"`
	Expired  bool `json:"expired"`
}

// ComputeDeadlineState fills DaysLeft and Expired relative to now. A past
// deadline yields Expired=true and DaysLeft=0, never a positive day count.
func (c *Challenge) ComputeDeadlineState(now time.Time) {
	diff := c.Deadline.Sub(now)
	if diff <= 0 {
		c.Expired = true
		c.DaysLeft = 0
		return
	}
	c.Expired = false
	c.DaysLeft = int(math.Ceil(diff.Hours() / 24))
}

func ValidDifficulty(d ChallengeDifficulty) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}
