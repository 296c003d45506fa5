package model

import "time"

const (
	RoleParticipant = "participant"
	RoleCompany     = "company"
)

// Profile is the stored identity. Role stays empty until the user completes
// role selection; all role-gated routes branch on this single field.
type Profile struct {
	ID             string    `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	Role           string    `json:"role"`
	CompanyName    *string   `json:"company_name,omitempty"`
	Score          int       `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasRole reports whether role selection has been completed.
func (p *Profile) HasRole() bool {
	return p.Role == RoleParticipant || p.Role == RoleCompany
}
