package service

import (
	"context"
	"fmt"
	"strings"

	"challengearena/internal/common"
	"challengearena/internal/common/security"
	"challengearena/internal/domain/model"
	"challengearena/internal/domain/repository"
)

type ProfileService struct {
	profileRepo repository.ProfileRepository
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// Me resolves the authenticated identity's profile. A missing role is a
// normal state (the client shows role selection); it is not an error.
func (s *ProfileService) Me(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}
	profile.HashedPassword = ""
	return profile, nil
}

type SelectRoleRequest struct {
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
}

// SelectRole persists the one-time role choice and reissues a token carrying
// the role claim, so gating works without another lookup.
func (s *ProfileService) SelectRole(ctx context.Context, userID string, req SelectRoleRequest) (*AuthResponse, error) {
	if req.Role != model.RoleParticipant && req.Role != model.RoleCompany {
		return nil, fmt.Errorf("role must be %q or %q: %w", model.RoleParticipant, model.RoleCompany, common.ErrValidation)
	}

	var companyName *string
	if req.Role == model.RoleCompany {
		name := strings.TrimSpace(req.CompanyName)
		if name == "" {
			return nil, fmt.Errorf("company name is required for the company role: %w", common.ErrValidation)
		}
		companyName = &name
	}

	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}
	if profile.HasRole() {
		return nil, fmt.Errorf("role already selected: %w", common.ErrConflict)
	}

	if err := s.profileRepo.SetRole(ctx, userID, req.Role, companyName); err != nil {
		return nil, fmt.Errorf("failed to set role: %w", err)
	}

	profile.Role = req.Role
	profile.CompanyName = companyName
	profile.HashedPassword = ""

	token, err := security.GenerateToken(profile.ID, profile.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{Profile: profile, Token: token}, nil
}

type UpdateProfileRequest struct {
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

func (s *ProfileService) UpdateMe(ctx context.Context, userID string, req UpdateProfileRequest) (*model.Profile, error) {
	if strings.TrimSpace(req.FullName) == "" {
		return nil, fmt.Errorf("full name is required: %w", common.ErrValidation)
	}
	if err := s.profileRepo.UpdateDetails(ctx, userID, req.FullName, req.AvatarURL); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.Me(ctx, userID)
}
