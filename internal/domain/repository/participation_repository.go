package repository

import (
	"context"
	"database/sql"
	"fmt"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"
)

type ParticipationRepository interface {
	Create(ctx context.Context, tx *sql.Tx, p *model.Participation) error
	Exists(ctx context.Context, challengeID, userID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Participation, error)
	ListByChallengeIDs(ctx context.Context, challengeIDs []string) ([]model.Participation, error)
}

type pgParticipationRepository struct {
	db *sql.DB
}

func NewPgParticipationRepository(db *sql.DB) ParticipationRepository {
	return &pgParticipationRepository{db: db}
}

func (r *pgParticipationRepository) Create(ctx context.Context, tx *sql.Tx, p *model.Participation) error {
	query := `INSERT INTO challenge_participants (id, challenge_id, user_id) VALUES ($1, $2, $3)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, p.ID, p.ChallengeID, p.UserID)
	} else {
		_, err = r.db.ExecContext(ctx, query, p.ID, p.ChallengeID, p.UserID)
	}
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("already joined this challenge: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgParticipationRepository.Create: %w", err)
	}
	return nil
}

func (r *pgParticipationRepository) Exists(ctx context.Context, challengeID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, challengeID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgParticipationRepository.Exists: %w", err)
	}
	return exists, nil
}

// ListByUser joins each participation with its challenge for dashboard views.
func (r *pgParticipationRepository) ListByUser(ctx context.Context, userID string) ([]model.Participation, error) {
	query := `
		SELECT cp.id, cp.challenge_id, cp.user_id, cp.joined_at,
		       c.title, c.company, c.deadline
		FROM challenge_participants cp
		JOIN challenges c ON cp.challenge_id = c.id
		WHERE cp.user_id = $1
		ORDER BY cp.joined_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgParticipationRepository.ListByUser query: %w", err)
	}
	defer rows.Close()

	var participations []model.Participation
	for rows.Next() {
		var p model.Participation
		if err := rows.Scan(&p.ID, &p.ChallengeID, &p.UserID, &p.JoinedAt,
			&p.ChallengeTitle, &p.ChallengeCompany, &p.ChallengeDeadline); err != nil {
			return nil, fmt.Errorf("pgParticipationRepository.ListByUser scan: %w", err)
		}
		participations = append(participations, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgParticipationRepository.ListByUser rows.Err: %w", err)
	}
	return participations, nil
}

func (r *pgParticipationRepository) ListByChallengeIDs(ctx context.Context, challengeIDs []string) ([]model.Participation, error) {
	if len(challengeIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, challenge_id, user_id, joined_at
	          FROM challenge_participants WHERE challenge_id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, challengeIDs)
	if err != nil {
		return nil, fmt.Errorf("pgParticipationRepository.ListByChallengeIDs query: %w", err)
	}
	defer rows.Close()

	var participations []model.Participation
	for rows.Next() {
		var p model.Participation
		if err := rows.Scan(&p.ID, &p.ChallengeID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("pgParticipationRepository.ListByChallengeIDs scan: %w", err)
		}
		participations = append(participations, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgParticipationRepository.ListByChallengeIDs rows.Err: %w", err)
	}
	return participations, nil
}
