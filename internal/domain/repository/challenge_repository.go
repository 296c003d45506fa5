package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"
)

type ChallengeFilter struct {
	Difficulty model.ChallengeDifficulty
	Tag        string
	SearchTerm string
	Featured   *bool
	Company    string
	Limit      int
	Offset     int
}

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *model.Challenge) error
	Update(ctx context.Context, challenge *model.Challenge) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Challenge, error)
	FindBySlug(ctx context.Context, slug string) (*model.Challenge, error)
	List(ctx context.Context, filter ChallengeFilter) ([]model.Challenge, int, error)
	IncrementParticipants(ctx context.Context, tx *sql.Tx, id string) error
}

type pgChallengeRepository struct {
	db *sql.DB
}

func NewPgChallengeRepository(db *sql.DB) ChallengeRepository {
	return &pgChallengeRepository{db: db}
}

const challengeColumns = `id, slug, title, company, company_logo_url, description, long_description,
	difficulty, deadline, tags, featured, participants, prizes,
	submission_requirements, evaluation_criteria, created_by, created_at, updated_at`

func scanChallenge(row interface{ Scan(...interface{}) error }) (*model.Challenge, error) {
	c := &model.Challenge{}
	var tags, prizes, reqs, criteria []byte
	err := row.Scan(
		&c.ID, &c.Slug, &c.Title, &c.Company, &c.CompanyLogoURL, &c.Description, &c.LongDescription,
		&c.Difficulty, &c.Deadline, &tags, &c.Featured, &c.Participants, &prizes,
		&reqs, &criteria, &c.CreatedByID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &c.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(prizes, &c.Prizes); err != nil {
		return nil, fmt.Errorf("decode prizes: %w", err)
	}
	if err := json.Unmarshal(reqs, &c.SubmissionRequirements); err != nil {
		return nil, fmt.Errorf("decode submission requirements: %w", err)
	}
	if err := json.Unmarshal(criteria, &c.EvaluationCriteria); err != nil {
		return nil, fmt.Errorf("decode evaluation criteria: %w", err)
	}
	return c, nil
}

func encodeChallengeJSON(c *model.Challenge) (tags, prizes, reqs, criteria []byte, err error) {
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Prizes == nil {
		c.Prizes = []model.Prize{}
	}
	if c.SubmissionRequirements == nil {
		c.SubmissionRequirements = []string{}
	}
	if c.EvaluationCriteria == nil {
		c.EvaluationCriteria = []string{}
	}
	if tags, err = json.Marshal(c.Tags); err != nil {
		return
	}
	if prizes, err = json.Marshal(c.Prizes); err != nil {
		return
	}
	if reqs, err = json.Marshal(c.SubmissionRequirements); err != nil {
		return
	}
	criteria, err = json.Marshal(c.EvaluationCriteria)
	return
}

func (r *pgChallengeRepository) Create(ctx context.Context, c *model.Challenge) error {
	tags, prizes, reqs, criteria, err := encodeChallengeJSON(c)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.Create encode: %w", err)
	}
	query := `INSERT INTO challenges
		(id, slug, title, company, company_logo_url, description, long_description, difficulty,
		 deadline, tags, featured, prizes, submission_requirements, evaluation_criteria, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.Slug, c.Title, c.Company, c.CompanyLogoURL, c.Description, c.LongDescription, c.Difficulty,
		c.Deadline, tags, c.Featured, prizes, reqs, criteria, c.CreatedByID,
	)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("challenge with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgChallengeRepository.Create: %w", err)
	}
	return nil
}

func (r *pgChallengeRepository) Update(ctx context.Context, c *model.Challenge) error {
	tags, prizes, reqs, criteria, err := encodeChallengeJSON(c)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.Update encode: %w", err)
	}
	query := `UPDATE challenges SET
		title = $1, company_logo_url = $2, description = $3, long_description = $4,
		difficulty = $5, deadline = $6, tags = $7, featured = $8, prizes = $9,
		submission_requirements = $10, evaluation_criteria = $11, updated_at = CURRENT_TIMESTAMP
		WHERE id = $12`
	res, err := r.db.ExecContext(ctx, query,
		c.Title, c.CompanyLogoURL, c.Description, c.LongDescription,
		c.Difficulty, c.Deadline, tags, c.Featured, prizes,
		reqs, criteria, c.ID,
	)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgChallengeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgChallengeRepository) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`
	c, err := scanChallenge(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgChallengeRepository.FindByID: %w", err)
	}
	return c, nil
}

func (r *pgChallengeRepository) FindBySlug(ctx context.Context, slug string) (*model.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE slug = $1`
	c, err := scanChallenge(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgChallengeRepository.FindBySlug: %w", err)
	}
	return c, nil
}

func (r *pgChallengeRepository) List(ctx context.Context, filter ChallengeFilter) ([]model.Challenge, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filter.Difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argID))
		args = append(args, filter.Difficulty)
		argID++
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("tags @> $%d", argID))
		tagJSON, _ := json.Marshal([]string{filter.Tag})
		args = append(args, tagJSON)
		argID++
	}
	if filter.SearchTerm != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argID, argID+1))
		likeTerm := "%" + filter.SearchTerm + "%"
		args = append(args, likeTerm, likeTerm)
		argID += 2
	}
	if filter.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("featured = $%d", argID))
		args = append(args, *filter.Featured)
		argID++
	}
	if filter.Company != "" {
		conditions = append(conditions, fmt.Sprintf("company = $%d", argID))
		args = append(args, filter.Company)
		argID++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM challenges` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgChallengeRepository.List count: %w", err)
	}

	query := `SELECT ` + challengeColumns + ` FROM challenges` + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgChallengeRepository.List query: %w", err)
	}
	defer rows.Close()

	challenges := []model.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgChallengeRepository.List scan: %w", err)
		}
		challenges = append(challenges, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgChallengeRepository.List rows.Err: %w", err)
	}
	return challenges, total, nil
}

func (r *pgChallengeRepository) IncrementParticipants(ctx context.Context, tx *sql.Tx, id string) error {
	query := `UPDATE challenges SET participants = participants + 1, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, id)
	} else {
		_, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		return fmt.Errorf("pgChallengeRepository.IncrementParticipants: %w", err)
	}
	return nil
}
