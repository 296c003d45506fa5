package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"challengearena/internal/common"
	"challengearena/internal/common/security"
	"challengearena/internal/domain/model"
	"challengearena/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	profileRepo repository.ProfileRepository
}

func NewAuthService(profileRepo repository.ProfileRepository) *AuthService {
	return &AuthService{profileRepo: profileRepo}
}

type SignupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Profile *model.Profile `json:"profile"`
	Token   string         `json:"token"`
}

// Signup creates a profile with no role; role selection is a separate step.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("full name, email and password are required: %w", common.ErrBadRequest)
	}
	if !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("invalid email address: %w", common.ErrValidation)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters: %w", common.ErrValidation)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &model.Profile{
		ID:             uuid.NewString(),
		FullName:       req.FullName,
		Email:          req.Email,
		HashedPassword: hashedPassword,
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	token, err := security.GenerateToken(profile.ID, profile.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	profile.HashedPassword = ""
	return &AuthResponse{Profile: profile, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", common.ErrBadRequest)
	}

	profile, err := s.profileRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // generic message, no account enumeration
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, profile.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(profile.ID, profile.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	profile.HashedPassword = ""
	return &AuthResponse{Profile: profile, Token: token}, nil
}
