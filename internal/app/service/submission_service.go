package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"
	"challengearena/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SubmissionService struct {
	submissionRepo    repository.SubmissionRepository
	challengeRepo     repository.ChallengeRepository
	participationRepo repository.ParticipationRepository
	evaluationService *EvaluationService
	db                *sql.DB
	logger            *zap.Logger
	now               func() time.Time
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	challengeRepo repository.ChallengeRepository,
	participationRepo repository.ParticipationRepository,
	evaluationService *EvaluationService,
	db *sql.DB,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo:    submissionRepo,
		challengeRepo:     challengeRepo,
		participationRepo: participationRepo,
		evaluationService: evaluationService,
		db:                db,
		logger:            logger,
		now:               time.Now,
	}
}

type CreateSubmissionRequest struct {
	RepoURL         string  `json:"repo_url"`
	VideoURL        string  `json:"video_url"`
	PresentationURL string  `json:"presentation_url"`
	Notes           *string `json:"notes"`
}

func validateSubmissionRequest(req CreateSubmissionRequest) error {
	if strings.TrimSpace(req.RepoURL) == "" ||
		strings.TrimSpace(req.VideoURL) == "" ||
		strings.TrimSpace(req.PresentationURL) == "" {
		return fmt.Errorf("repository, video and presentation links are all required: %w", common.ErrValidation)
	}
	if !strings.Contains(req.RepoURL, "github.com") {
		return fmt.Errorf("repository link must be a GitHub URL: %w", common.ErrValidation)
	}
	return nil
}

// Create writes the submission and its evaluation job in one transaction.
// A second submission for the same challenge hits the uniqueness constraint
// and surfaces as a conflict ("already submitted").
func (s *SubmissionService) Create(ctx context.Context, userID, challengeID string, req CreateSubmissionRequest) (*model.Submission, error) {
	if err := validateSubmissionRequest(req); err != nil {
		return nil, err
	}

	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	challenge.ComputeDeadlineState(s.now())
	if challenge.Expired {
		return nil, fmt.Errorf("challenge deadline has passed: %w", common.ErrForbidden)
	}

	joined, err := s.participationRepo.Exists(ctx, challenge.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if !joined {
		return nil, fmt.Errorf("join the challenge before submitting: %w", common.ErrForbidden)
	}

	submission := &model.Submission{
		ID:              uuid.NewString(),
		ChallengeID:     challenge.ID,
		UserID:          userID,
		RepoURL:         req.RepoURL,
		VideoURL:        req.VideoURL,
		PresentationURL: req.PresentationURL,
		Notes:           req.Notes,
		Status:          model.SubmissionPending,
		SubmittedAt:     s.now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.submissionRepo.Create(ctx, tx, submission); err != nil {
		return nil, err
	}
	job, err := s.evaluationService.Enqueue(ctx, tx, submission.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.evaluationService.Push(ctx, job.ID); err != nil {
		// The job row committed as Queued; the worker's startup sweep
		// picks it up.
		s.logger.Warn("evaluation job push failed, leaving it for the sweep",
			zap.String("job_id", job.ID), zap.Error(err))
	}

	s.logger.Info("submission created",
		zap.String("submission_id", submission.ID),
		zap.String("challenge_id", challenge.ID),
		zap.String("job_id", job.ID))
	return submission, nil
}

func (s *SubmissionService) ListMine(ctx context.Context, userID string) ([]model.Submission, error) {
	submissions, err := s.submissionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	if submissions == nil {
		submissions = []model.Submission{}
	}
	return submissions, nil
}
