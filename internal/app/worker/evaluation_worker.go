package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"challengearena/internal/app/service"
	"challengearena/internal/domain/model"
	"challengearena/internal/domain/repository"
	"challengearena/internal/platform/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EvaluationWorker drains the evaluation queue. Each job either goes to the
// configured external scorer (which answers via the webhook) or is scored by
// the built-in evaluator immediately.
type EvaluationWorker struct {
	rdb               *redis.Client
	jobRepo           repository.EvaluationJobRepository
	submissionRepo    repository.SubmissionRepository
	challengeRepo     repository.ChallengeRepository
	evaluationService *service.EvaluationService
	logger            *zap.Logger

	queueName   string
	maxAttempts int
	scorerURL   string
	webhookURL  string
	httpClient  *http.Client
}

type Config struct {
	QueueName   string
	MaxAttempts int
	ScorerURL   string
	WebhookURL  string
}

func NewEvaluationWorker(
	rdb *redis.Client,
	jobRepo repository.EvaluationJobRepository,
	submissionRepo repository.SubmissionRepository,
	challengeRepo repository.ChallengeRepository,
	evaluationService *service.EvaluationService,
	cfg Config,
	logger *zap.Logger,
) *EvaluationWorker {
	return &EvaluationWorker{
		rdb:               rdb,
		jobRepo:           jobRepo,
		submissionRepo:    submissionRepo,
		challengeRepo:     challengeRepo,
		evaluationService: evaluationService,
		logger:            logger,
		queueName:         cfg.QueueName,
		maxAttempts:       cfg.MaxAttempts,
		scorerURL:         cfg.ScorerURL,
		webhookURL:        cfg.WebhookURL,
		httpClient:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *EvaluationWorker) Start(ctx context.Context) {
	w.logger.Info("evaluation worker started", zap.String("queue", w.queueName))
	w.recoverQueued(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("evaluation worker stopping")
			return
		default:
			res, err := w.rdb.BRPop(ctx, 5*time.Second, w.queueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue // timeout, poll again
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				w.logger.Error("failed to pop from evaluation queue", zap.Error(err))
				time.Sleep(5 * time.Second)
				continue
			}
			if len(res) < 2 || res[1] == "" {
				continue
			}
			w.processJob(ctx, res[1])
		}
	}
}

// recoverQueued re-enqueues jobs whose rows are still Queued. Covers ids
// lost between the submission commit and the push. Re-delivery of an id
// already in the queue is tolerated: resolved jobs are skipped on pop and
// a second result is rejected as a conflict.
func (w *EvaluationWorker) recoverQueued(ctx context.Context) {
	ids, err := w.jobRepo.ListQueuedIDs(ctx)
	if err != nil {
		w.logger.Error("failed to sweep queued evaluation jobs", zap.Error(err))
		return
	}
	for _, id := range ids {
		if err := w.evaluationService.Requeue(ctx, id); err != nil {
			w.logger.Error("failed to re-enqueue evaluation job", zap.String("job_id", id), zap.Error(err))
		}
	}
	if len(ids) > 0 {
		w.logger.Info("re-enqueued queued evaluation jobs", zap.Int("count", len(ids)))
	}
}

func (w *EvaluationWorker) processJob(ctx context.Context, jobID string) {
	job, err := w.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		w.logger.Error("failed to load evaluation job", zap.String("job_id", jobID), zap.Error(err))
		metrics.EvaluationJobsTotal.WithLabelValues("orphaned").Inc()
		return
	}
	if job.Status == model.JobStatusCompleted || job.Status == model.JobStatusFailed {
		// Already resolved, e.g. by a manual review racing the queue.
		return
	}

	attempts, err := w.jobRepo.IncrementAttempts(ctx, job.ID)
	if err != nil {
		w.logger.Error("failed to increment job attempts", zap.String("job_id", job.ID), zap.Error(err))
		attempts = job.Attempts + 1
	}
	if err := w.jobRepo.UpdateStatus(ctx, nil, job.ID, model.JobStatusProcessing, nil); err != nil {
		w.logger.Error("failed to mark job processing", zap.String("job_id", job.ID), zap.Error(err))
	}

	if err := w.evaluate(ctx, job); err != nil {
		w.handleFailure(ctx, job, attempts, err)
		return
	}
	metrics.EvaluationJobsTotal.WithLabelValues("processed").Inc()
}

func (w *EvaluationWorker) evaluate(ctx context.Context, job *model.EvaluationJob) error {
	submission, err := w.submissionRepo.FindByID(ctx, job.SubmissionID)
	if err != nil {
		return fmt.Errorf("load submission %s: %w", job.SubmissionID, err)
	}
	challenge, err := w.challengeRepo.FindByID(ctx, submission.ChallengeID)
	if err != nil {
		return fmt.Errorf("load challenge %s: %w", submission.ChallengeID, err)
	}

	if w.scorerURL == "" {
		score, feedback := builtinScore(submission.ID)
		return w.evaluationService.ApplyResult(ctx, job.ID, service.EvaluationResult{
			Status:   model.SubmissionReviewed,
			Score:    &score,
			Feedback: &feedback,
		})
	}

	if err := w.sendToScorer(ctx, job, submission, challenge); err != nil {
		return err
	}
	return w.jobRepo.UpdateStatus(ctx, nil, job.ID, model.JobStatusSentToScorer, nil)
}

func (w *EvaluationWorker) handleFailure(ctx context.Context, job *model.EvaluationJob, attempts int, cause error) {
	errMsg := cause.Error()
	w.logger.Error("evaluation attempt failed",
		zap.String("job_id", job.ID), zap.Int("attempts", attempts), zap.Error(cause))

	if attempts >= w.maxAttempts {
		if err := w.evaluationService.FailJob(ctx, job.ID, errMsg); err != nil {
			w.logger.Error("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		metrics.EvaluationJobsTotal.WithLabelValues("failed").Inc()
		return
	}

	if err := w.jobRepo.UpdateStatus(ctx, nil, job.ID, model.JobStatusQueued, &errMsg); err != nil {
		w.logger.Error("failed to reset job status", zap.String("job_id", job.ID), zap.Error(err))
	}
	if err := w.evaluationService.Requeue(ctx, job.ID); err != nil {
		w.logger.Error("failed to requeue job", zap.String("job_id", job.ID), zap.Error(err))
	}
	metrics.EvaluationJobsTotal.WithLabelValues("requeued").Inc()
}

// ScorerRequest is the payload sent to the external scoring service. The
// scorer answers asynchronously via the evaluation webhook.
type ScorerRequest struct {
	JobID              string   `json:"job_id"`
	SubmissionID       string   `json:"submission_id"`
	ChallengeID        string   `json:"challenge_id"`
	RepoURL            string   `json:"repo_url"`
	VideoURL           string   `json:"video_url"`
	PresentationURL    string   `json:"presentation_url"`
	Notes              *string  `json:"notes,omitempty"`
	EvaluationCriteria []string `json:"evaluation_criteria"`
	WebhookURL         string   `json:"webhook_url"`
}

func (w *EvaluationWorker) sendToScorer(ctx context.Context, job *model.EvaluationJob, submission *model.Submission, challenge *model.Challenge) error {
	payload := ScorerRequest{
		JobID:              job.ID,
		SubmissionID:       submission.ID,
		ChallengeID:        challenge.ID,
		RepoURL:            submission.RepoURL,
		VideoURL:           submission.VideoURL,
		PresentationURL:    submission.PresentationURL,
		Notes:              submission.Notes,
		EvaluationCriteria: challenge.EvaluationCriteria,
		WebhookURL:         w.webhookURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal scorer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.scorerURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build scorer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send to scorer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("scorer returned status %d", resp.StatusCode)
	}
	return nil
}

var feedbackByBand = []struct {
	min      int
	feedback string
}{
	{90, "Outstanding work. Clean implementation, strong documentation, and a compelling demo."},
	{80, "Great submission. The approach is solid; a few areas could use deeper evaluation."},
	{70, "Good effort. The solution works but documentation and presentation could be stronger."},
	{0, "A reasonable start. Consider tightening the implementation and clarifying the write-up."},
}

// builtinScore stands in for a real scoring service: a uniform score in
// [60,100] with canned feedback matching the band.
func builtinScore(submissionID string) (int, string) {
	_ = submissionID
	score := 60 + rand.IntN(41)
	for _, band := range feedbackByBand {
		if score >= band.min {
			return score, band.feedback
		}
	}
	return score, feedbackByBand[len(feedbackByBand)-1].feedback
}
