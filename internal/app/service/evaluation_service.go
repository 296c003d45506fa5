package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"
	"challengearena/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EvaluationQueue is the slice of redis.Client the evaluation pipeline uses;
// narrowed so tests can substitute a fake.
type EvaluationQueue interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type EvaluationService struct {
	jobRepo        repository.EvaluationJobRepository
	submissionRepo repository.SubmissionRepository
	profileRepo    repository.ProfileRepository
	challengeRepo  repository.ChallengeRepository
	queue          EvaluationQueue
	queueName      string
	db             *sql.DB
	logger         *zap.Logger
	now            func() time.Time
}

func NewEvaluationService(
	jobRepo repository.EvaluationJobRepository,
	submissionRepo repository.SubmissionRepository,
	profileRepo repository.ProfileRepository,
	challengeRepo repository.ChallengeRepository,
	queue EvaluationQueue,
	queueName string,
	db *sql.DB,
	logger *zap.Logger,
) *EvaluationService {
	return &EvaluationService{
		jobRepo:        jobRepo,
		submissionRepo: submissionRepo,
		profileRepo:    profileRepo,
		challengeRepo:  challengeRepo,
		queue:          queue,
		queueName:      queueName,
		db:             db,
		logger:         logger,
		now:            time.Now,
	}
}

// Enqueue creates the durable job record inside the caller's transaction.
// The id goes onto the queue via Push only after that transaction commits,
// so the worker can never pop an id whose row is not yet visible.
func (s *EvaluationService) Enqueue(ctx context.Context, tx *sql.Tx, submissionID string) (*model.EvaluationJob, error) {
	job := &model.EvaluationJob{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		Status:       model.JobStatusQueued,
	}
	if err := s.jobRepo.Create(ctx, tx, job); err != nil {
		return nil, fmt.Errorf("failed to create evaluation job: %w", err)
	}
	return job, nil
}

// Push makes a committed job visible to the worker. A failed push is
// recoverable: the row stays Queued and the worker's startup sweep
// re-enqueues it.
func (s *EvaluationService) Push(ctx context.Context, jobID string) error {
	if err := s.queue.LPush(ctx, s.queueName, jobID).Err(); err != nil {
		return fmt.Errorf("failed to push evaluation job to queue: %w", err)
	}
	s.logger.Info("evaluation job enqueued", zap.String("job_id", jobID))
	return nil
}

// Requeue puts a job id back at the tail of the queue for a later attempt.
func (s *EvaluationService) Requeue(ctx context.Context, jobID string) error {
	return s.queue.RPush(ctx, s.queueName, jobID).Err()
}

type EvaluationResult struct {
	Status   model.SubmissionStatus
	Score    *int
	Feedback *string
}

// validate enforces the same rules for every result source, whether the
// scorer webhook, the built-in evaluator or a manual review.
func (r EvaluationResult) validate() error {
	if r.Status != model.SubmissionReviewed && r.Status != model.SubmissionRejected {
		return fmt.Errorf("evaluation result status must be %q or %q: %w",
			model.SubmissionReviewed, model.SubmissionRejected, common.ErrValidation)
	}
	if r.Status == model.SubmissionReviewed && r.Score == nil {
		return fmt.Errorf("score is required when marking reviewed: %w", common.ErrValidation)
	}
	if r.Score != nil && (*r.Score < 0 || *r.Score > 100) {
		return fmt.Errorf("score must be between 0 and 100: %w", common.ErrValidation)
	}
	return nil
}

// ApplyResult finishes an evaluation job in one transaction: the submission
// is updated, the participant's aggregate score adjusted, and the job closed.
// The challenge's leaderboard cache is invalidated after commit.
func (s *EvaluationService) ApplyResult(ctx context.Context, jobID string, result EvaluationResult) error {
	if err := result.validate(); err != nil {
		return err
	}
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("evaluation job not found: %w", err)
	}
	if job.Status == model.JobStatusCompleted {
		return fmt.Errorf("evaluation job already completed: %w", common.ErrConflict)
	}
	submission, err := s.submissionRepo.FindByID(ctx, job.SubmissionID)
	if err != nil {
		return fmt.Errorf("submission for job not found: %w", err)
	}

	if err := s.applyToSubmission(ctx, submission, result, func(tx *sql.Tx) error {
		return s.jobRepo.UpdateStatus(ctx, tx, job.ID, model.JobStatusCompleted, nil)
	}); err != nil {
		return err
	}

	s.logger.Info("evaluation result applied",
		zap.String("job_id", job.ID),
		zap.String("submission_id", submission.ID),
		zap.String("status", string(result.Status)))
	return nil
}

// FailJob marks a job failed after its attempts are exhausted and rejects the
// submission with system feedback so the participant is not left pending.
func (s *EvaluationService) FailJob(ctx context.Context, jobID, reason string) error {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("evaluation job not found: %w", err)
	}
	submission, err := s.submissionRepo.FindByID(ctx, job.SubmissionID)
	if err != nil {
		return fmt.Errorf("submission for job not found: %w", err)
	}

	feedback := "Evaluation could not be completed. Please contact support."
	result := EvaluationResult{Status: model.SubmissionRejected, Feedback: &feedback}
	if err := s.applyToSubmission(ctx, submission, result, func(tx *sql.Tx) error {
		return s.jobRepo.UpdateStatus(ctx, tx, job.ID, model.JobStatusFailed, &reason)
	}); err != nil {
		return err
	}

	s.logger.Error("evaluation job failed permanently",
		zap.String("job_id", job.ID), zap.String("reason", reason))
	return nil
}

type ManualReviewRequest struct {
	Status   string  `json:"status"`
	Score    *int    `json:"score"`
	Feedback *string `json:"feedback"`
}

// ManualReview lets the owning company set the outcome directly. Ownership is
// the company-name string match, same as challenge edits.
func (s *EvaluationService) ManualReview(ctx context.Context, actor *model.Profile, submissionID string, req ManualReviewRequest) (*model.Submission, error) {
	result := EvaluationResult{Status: model.SubmissionStatus(req.Status), Score: req.Score, Feedback: req.Feedback}
	if err := result.validate(); err != nil {
		return nil, err
	}

	submission, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	challenge, err := s.challengeRepo.FindByID(ctx, submission.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("challenge for submission not found: %w", err)
	}
	if actor.CompanyName == nil || challenge.Company != *actor.CompanyName {
		return nil, fmt.Errorf("submission belongs to a different company's challenge: %w", common.ErrForbidden)
	}

	if err := s.applyToSubmission(ctx, submission, result, func(tx *sql.Tx) error {
		// Close out any still-open pipeline job so the worker result cannot
		// overwrite a human decision.
		job, err := s.jobRepo.FindBySubmissionID(ctx, submission.ID)
		if err != nil {
			if common.HTTPStatusFromError(err) == 404 {
				return nil
			}
			return err
		}
		if job.Status != model.JobStatusCompleted && job.Status != model.JobStatusFailed {
			return s.jobRepo.UpdateStatus(ctx, tx, job.ID, model.JobStatusCompleted, nil)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.submissionRepo.FindByID(ctx, submissionID)
}

// applyToSubmission runs the shared write path: submission update, aggregate
// score delta, plus any caller work, in one transaction.
func (s *EvaluationService) applyToSubmission(ctx context.Context, submission *model.Submission, result EvaluationResult, extra func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reviewedAt := s.now()
	if err := s.submissionRepo.ApplyEvaluation(ctx, tx, submission.ID, result.Status, result.Score, result.Feedback, reviewedAt); err != nil {
		return err
	}

	// Aggregate score moves by the delta so re-reviews do not double count.
	oldScore := 0
	if submission.Status == model.SubmissionReviewed && submission.Score != nil {
		oldScore = *submission.Score
	}
	newScore := 0
	if result.Status == model.SubmissionReviewed && result.Score != nil {
		newScore = *result.Score
	}
	if delta := newScore - oldScore; delta != 0 {
		if err := s.profileRepo.AddScore(ctx, tx, submission.UserID, delta); err != nil {
			return err
		}
	}

	if extra != nil {
		if err := extra(tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.queue.Del(ctx, LeaderboardCacheKey(submission.ChallengeID)).Err(); err != nil {
		s.logger.Warn("failed to invalidate leaderboard cache",
			zap.String("challenge_id", submission.ChallengeID), zap.Error(err))
	}
	return nil
}
