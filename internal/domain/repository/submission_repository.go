package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"
)

type SubmissionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	ListByUser(ctx context.Context, userID string) ([]model.Submission, error)
	ListReviewedByChallenge(ctx context.Context, challengeID string) ([]model.Submission, error)
	ListByChallengeIDs(ctx context.Context, challengeIDs []string) ([]model.Submission, error)
	ApplyEvaluation(ctx context.Context, tx *sql.Tx, id string, status model.SubmissionStatus, score *int, feedback *string, reviewedAt time.Time) error
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, challenge_id, user_id, repo_url, video_url, presentation_url,
	notes, status, score, feedback, submitted_at, reviewed_at`

func scanSubmission(row interface{ Scan(...interface{}) error }) (*model.Submission, error) {
	s := &model.Submission{}
	err := row.Scan(
		&s.ID, &s.ChallengeID, &s.UserID, &s.RepoURL, &s.VideoURL, &s.PresentationURL,
		&s.Notes, &s.Status, &s.Score, &s.Feedback, &s.SubmittedAt, &s.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *pgSubmissionRepository) Create(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `INSERT INTO submissions
		(id, challenge_id, user_id, repo_url, video_url, presentation_url, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, sub.ID, sub.ChallengeID, sub.UserID,
			sub.RepoURL, sub.VideoURL, sub.PresentationURL, sub.Notes, sub.Status)
	} else {
		_, err = r.db.ExecContext(ctx, query, sub.ID, sub.ChallengeID, sub.UserID,
			sub.RepoURL, sub.VideoURL, sub.PresentationURL, sub.Notes, sub.Status)
	}
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("already submitted for this challenge: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindByID: %w", err)
	}
	return s, nil
}

// ListByUser joins challenge titles for the participant's submission history.
func (r *pgSubmissionRepository) ListByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	query := `
		SELECT s.id, s.challenge_id, s.user_id, s.repo_url, s.video_url, s.presentation_url,
		       s.notes, s.status, s.score, s.feedback, s.submitted_at, s.reviewed_at, c.title
		FROM submissions s
		JOIN challenges c ON s.challenge_id = c.id
		WHERE s.user_id = $1
		ORDER BY s.submitted_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByUser query: %w", err)
	}
	defer rows.Close()

	var submissions []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.ChallengeID, &s.UserID, &s.RepoURL, &s.VideoURL, &s.PresentationURL,
			&s.Notes, &s.Status, &s.Score, &s.Feedback, &s.SubmittedAt, &s.ReviewedAt, &s.ChallengeTitle); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByUser scan: %w", err)
		}
		submissions = append(submissions, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByUser rows.Err: %w", err)
	}
	return submissions, nil
}

// ListReviewedByChallenge returns reviewed submissions ordered score
// descending; storage order is the only tie-break.
func (r *pgSubmissionRepository) ListReviewedByChallenge(ctx context.Context, challengeID string) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + `
	          FROM submissions WHERE challenge_id = $1 AND status = 'reviewed'
	          ORDER BY score DESC`
	rows, err := r.db.QueryContext(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListReviewedByChallenge query: %w", err)
	}
	defer rows.Close()

	var submissions []model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListReviewedByChallenge scan: %w", err)
		}
		submissions = append(submissions, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListReviewedByChallenge rows.Err: %w", err)
	}
	return submissions, nil
}

func (r *pgSubmissionRepository) ListByChallengeIDs(ctx context.Context, challengeIDs []string) ([]model.Submission, error) {
	if len(challengeIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + submissionColumns + `
	          FROM submissions WHERE challenge_id = ANY($1)
	          ORDER BY submitted_at DESC`
	rows, err := r.db.QueryContext(ctx, query, challengeIDs)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByChallengeIDs query: %w", err)
	}
	defer rows.Close()

	var submissions []model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByChallengeIDs scan: %w", err)
		}
		submissions = append(submissions, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByChallengeIDs rows.Err: %w", err)
	}
	return submissions, nil
}

func (r *pgSubmissionRepository) ApplyEvaluation(ctx context.Context, tx *sql.Tx, id string, status model.SubmissionStatus, score *int, feedback *string, reviewedAt time.Time) error {
	query := `UPDATE submissions SET status = $1, score = $2, feedback = $3, reviewed_at = $4 WHERE id = $5`
	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, status, score, feedback, reviewedAt, id)
	} else {
		res, err = r.db.ExecContext(ctx, query, status, score, feedback, reviewedAt, id)
	}
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.ApplyEvaluation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
