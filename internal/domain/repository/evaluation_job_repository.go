package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"
)

type EvaluationJobRepository interface {
	Create(ctx context.Context, tx *sql.Tx, job *model.EvaluationJob) error
	FindByID(ctx context.Context, id string) (*model.EvaluationJob, error)
	FindBySubmissionID(ctx context.Context, submissionID string) (*model.EvaluationJob, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, jobID, status string, lastError *string) error
	IncrementAttempts(ctx context.Context, jobID string) (int, error)
	ListQueuedIDs(ctx context.Context) ([]string, error)
}

type pgEvaluationJobRepository struct {
	db *sql.DB
}

func NewPgEvaluationJobRepository(db *sql.DB) EvaluationJobRepository {
	return &pgEvaluationJobRepository{db: db}
}

func (r *pgEvaluationJobRepository) Create(ctx context.Context, tx *sql.Tx, job *model.EvaluationJob) error {
	query := `INSERT INTO evaluation_jobs (id, submission_id, status) VALUES ($1, $2, $3)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, job.ID, job.SubmissionID, job.Status)
	} else {
		_, err = r.db.ExecContext(ctx, query, job.ID, job.SubmissionID, job.Status)
	}
	if err != nil {
		return fmt.Errorf("pgEvaluationJobRepository.Create: %w", err)
	}
	return nil
}

const jobColumns = `id, submission_id, status, attempts, last_error, created_at, updated_at`

func scanJob(row interface{ Scan(...interface{}) error }) (*model.EvaluationJob, error) {
	j := &model.EvaluationJob{}
	err := row.Scan(&j.ID, &j.SubmissionID, &j.Status, &j.Attempts, &j.LastError, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (r *pgEvaluationJobRepository) FindByID(ctx context.Context, id string) (*model.EvaluationJob, error) {
	query := `SELECT ` + jobColumns + ` FROM evaluation_jobs WHERE id = $1`
	j, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgEvaluationJobRepository.FindByID: %w", err)
	}
	return j, nil
}

func (r *pgEvaluationJobRepository) FindBySubmissionID(ctx context.Context, submissionID string) (*model.EvaluationJob, error) {
	query := `SELECT ` + jobColumns + ` FROM evaluation_jobs WHERE submission_id = $1 ORDER BY created_at DESC LIMIT 1`
	j, err := scanJob(r.db.QueryRowContext(ctx, query, submissionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgEvaluationJobRepository.FindBySubmissionID: %w", err)
	}
	return j, nil
}

func (r *pgEvaluationJobRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, jobID, status string, lastError *string) error {
	query := `UPDATE evaluation_jobs SET status = $1, last_error = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, status, lastError, jobID)
	} else {
		_, err = r.db.ExecContext(ctx, query, status, lastError, jobID)
	}
	if err != nil {
		return fmt.Errorf("pgEvaluationJobRepository.UpdateStatus: %w", err)
	}
	return nil
}

// ListQueuedIDs returns jobs whose row committed but whose id may never have
// reached the queue (a crash or failed push between commit and LPUSH).
func (r *pgEvaluationJobRepository) ListQueuedIDs(ctx context.Context) ([]string, error) {
	query := `SELECT id FROM evaluation_jobs WHERE status = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, model.JobStatusQueued)
	if err != nil {
		return nil, fmt.Errorf("pgEvaluationJobRepository.ListQueuedIDs query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgEvaluationJobRepository.ListQueuedIDs scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgEvaluationJobRepository.ListQueuedIDs rows.Err: %w", err)
	}
	return ids, nil
}

func (r *pgEvaluationJobRepository) IncrementAttempts(ctx context.Context, jobID string) (int, error) {
	query := `UPDATE evaluation_jobs SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP WHERE id = $1 RETURNING attempts`
	var attempts int
	if err := r.db.QueryRowContext(ctx, query, jobID).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("pgEvaluationJobRepository.IncrementAttempts: %w", err)
	}
	return attempts, nil
}
