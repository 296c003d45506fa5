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
)

type ParticipationService struct {
	participationRepo repository.ParticipationRepository
	challengeRepo     repository.ChallengeRepository
	db                *sql.DB
	now               func() time.Time
}

func NewParticipationService(
	participationRepo repository.ParticipationRepository,
	challengeRepo repository.ChallengeRepository,
	db *sql.DB,
) *ParticipationService {
	return &ParticipationService{
		participationRepo: participationRepo,
		challengeRepo:     challengeRepo,
		db:                db,
		now:               time.Now,
	}
}

// Join creates the participation row and bumps the challenge counter in one
// transaction. A second join hits the uniqueness constraint and surfaces as
// a conflict ("already joined").
func (s *ParticipationService) Join(ctx context.Context, userID, challengeID string) (*model.Participation, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	challenge.ComputeDeadlineState(s.now())
	if challenge.Expired {
		return nil, fmt.Errorf("challenge deadline has passed: %w", common.ErrForbidden)
	}

	participation := &model.Participation{
		ID:          uuid.NewString(),
		ChallengeID: challenge.ID,
		UserID:      userID,
		JoinedAt:    s.now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.participationRepo.Create(ctx, tx, participation); err != nil {
		return nil, err
	}
	if err := s.challengeRepo.IncrementParticipants(ctx, tx, challenge.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return participation, nil
}

func (s *ParticipationService) HasJoined(ctx context.Context, userID, challengeID string) (bool, error) {
	return s.participationRepo.Exists(ctx, challengeID, userID)
}
