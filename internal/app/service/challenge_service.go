package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"
	"challengearena/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type ChallengeService struct {
	challengeRepo repository.ChallengeRepository
	now           func() time.Time
}

func NewChallengeService(challengeRepo repository.ChallengeRepository) *ChallengeService {
	return &ChallengeService{challengeRepo: challengeRepo, now: time.Now}
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type ListChallengesRequest struct {
	Difficulty string
	Tag        string
	Search     string
	Featured   *bool
	Limit      int
	Offset     int
}

type ChallengeListResponse struct {
	Challenges []model.Challenge `json:"challenges"`
	Total      int               `json:"total"`
}

func (s *ChallengeService) List(ctx context.Context, req ListChallengesRequest) (*ChallengeListResponse, error) {
	if req.Limit <= 0 || req.Limit > maxListLimit {
		req.Limit = defaultListLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Difficulty != "" && !model.ValidDifficulty(model.ChallengeDifficulty(req.Difficulty)) {
		return nil, fmt.Errorf("unknown difficulty %q: %w", req.Difficulty, common.ErrValidation)
	}

	challenges, total, err := s.challengeRepo.List(ctx, repository.ChallengeFilter{
		Difficulty: model.ChallengeDifficulty(req.Difficulty),
		Tag:        req.Tag,
		SearchTerm: req.Search,
		Featured:   req.Featured,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	now := s.now()
	for i := range challenges {
		challenges[i].ComputeDeadlineState(now)
	}
	return &ChallengeListResponse{Challenges: challenges, Total: total}, nil
}

// Get resolves by id, falling back to slug so both URL forms work.
func (s *ChallengeService) Get(ctx context.Context, idOrSlug string) (*model.Challenge, error) {
	var challenge *model.Challenge
	var err error
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		challenge, err = s.challengeRepo.FindByID(ctx, idOrSlug)
	} else {
		challenge, err = s.challengeRepo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	challenge.ComputeDeadlineState(s.now())
	return challenge, nil
}

type ChallengeRequest struct {
	Title                  string        `json:"title"`
	CompanyLogoURL         *string       `json:"company_logo_url"`
	Description            string        `json:"description"`
	LongDescription        string        `json:"long_description"`
	Difficulty             string        `json:"difficulty"`
	Deadline               time.Time     `json:"deadline"`
	Tags                   []string      `json:"tags"`
	Featured               bool          `json:"featured"`
	Prizes                 []model.Prize `json:"prizes"`
	SubmissionRequirements []string      `json:"submission_requirements"`
	EvaluationCriteria     []string      `json:"evaluation_criteria"`
}

func (s *ChallengeService) validateRequest(req ChallengeRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title is required: %w", common.ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.LongDescription) == "" {
		return fmt.Errorf("description and long description are required: %w", common.ErrValidation)
	}
	if !model.ValidDifficulty(model.ChallengeDifficulty(req.Difficulty)) {
		return fmt.Errorf("unknown difficulty %q: %w", req.Difficulty, common.ErrValidation)
	}
	if !req.Deadline.After(s.now()) {
		return fmt.Errorf("deadline must be in the future: %w", common.ErrValidation)
	}
	return nil
}

// Create requires a company profile; the challenge is stamped with the
// acting profile's company name.
func (s *ChallengeService) Create(ctx context.Context, actor *model.Profile, req ChallengeRequest) (*model.Challenge, error) {
	if actor.CompanyName == nil || *actor.CompanyName == "" {
		return nil, fmt.Errorf("company profile is incomplete: %w", common.ErrForbidden)
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	challenge := &model.Challenge{
		ID:                     uuid.NewString(),
		Slug:                   slug.Make(req.Title),
		Title:                  req.Title,
		Company:                *actor.CompanyName,
		CompanyLogoURL:         req.CompanyLogoURL,
		Description:            req.Description,
		LongDescription:        req.LongDescription,
		Difficulty:             model.ChallengeDifficulty(req.Difficulty),
		Deadline:               req.Deadline,
		Tags:                   req.Tags,
		Featured:               req.Featured,
		Prizes:                 req.Prizes,
		SubmissionRequirements: req.SubmissionRequirements,
		EvaluationCriteria:     req.EvaluationCriteria,
		CreatedByID:            &actor.ID,
	}

	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	challenge.ComputeDeadlineState(s.now())
	return challenge, nil
}

// requireOwnership enforces the company-name string match; ownership is not
// a foreign key to the creating identity.
func (s *ChallengeService) requireOwnership(actor *model.Profile, challenge *model.Challenge) error {
	if actor.CompanyName == nil || challenge.Company != *actor.CompanyName {
		return fmt.Errorf("challenge belongs to a different company: %w", common.ErrForbidden)
	}
	return nil
}

func (s *ChallengeService) Update(ctx context.Context, actor *model.Profile, id string, req ChallengeRequest) (*model.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnership(actor, challenge); err != nil {
		return nil, err
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	challenge.Title = req.Title
	challenge.CompanyLogoURL = req.CompanyLogoURL
	challenge.Description = req.Description
	challenge.LongDescription = req.LongDescription
	challenge.Difficulty = model.ChallengeDifficulty(req.Difficulty)
	challenge.Deadline = req.Deadline
	challenge.Tags = req.Tags
	challenge.Featured = req.Featured
	challenge.Prizes = req.Prizes
	challenge.SubmissionRequirements = req.SubmissionRequirements
	challenge.EvaluationCriteria = req.EvaluationCriteria

	if err := s.challengeRepo.Update(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}
	challenge.ComputeDeadlineState(s.now())
	return challenge, nil
}

func (s *ChallengeService) Delete(ctx context.Context, actor *model.Profile, id string) error {
	challenge, err := s.challengeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(actor, challenge); err != nil {
		return err
	}
	return s.challengeRepo.Delete(ctx, id)
}
