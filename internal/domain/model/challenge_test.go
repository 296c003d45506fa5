package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeDeadlineState(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		deadline     time.Time
		wantDaysLeft int
		wantExpired  bool
	}{
		{"deadline in the past", now.Add(-72 * time.Hour), 0, true},
		{"deadline just passed", now.Add(-time.Minute), 0, true},
		{"deadline equals now", now, 0, true},
		{"less than a day counts as one", now.Add(6 * time.Hour), 1, false},
		{"exactly one day", now.Add(24 * time.Hour), 1, false},
		{"partial days round up", now.Add(36 * time.Hour), 2, false},
		{"two weeks out", now.Add(14 * 24 * time.Hour), 14, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Challenge{Deadline: tt.deadline}
			c.ComputeDeadlineState(now)
			assert.Equal(t, tt.wantDaysLeft, c.DaysLeft)
			assert.Equal(t, tt.wantExpired, c.Expired)
		})
	}
}

func TestValidDifficulty(t *testing.T) {
	assert.True(t, ValidDifficulty(DifficultyBeginner))
	assert.True(t, ValidDifficulty(DifficultyIntermediate))
	assert.True(t, ValidDifficulty(DifficultyAdvanced))
	assert.False(t, ValidDifficulty("Expert"))
	assert.False(t, ValidDifficulty(""))
}

func TestHasRole(t *testing.T) {
	assert.False(t, (&Profile{}).HasRole())
	assert.False(t, (&Profile{Role: "admin"}).HasRole())
	assert.True(t, (&Profile{Role: RoleParticipant}).HasRole())
	assert.True(t, (&Profile{Role: RoleCompany}).HasRole())
}
