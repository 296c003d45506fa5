package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"challengearena/internal/domain/model"
	"challengearena/internal/domain/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LeaderboardCache is the slice of redis.Client leaderboard reads use.
type LeaderboardCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

func LeaderboardCacheKey(challengeID string) string {
	return "leaderboard:" + challengeID
}

type LeaderboardService struct {
	submissionRepo repository.SubmissionRepository
	profileRepo    repository.ProfileRepository
	challengeRepo  repository.ChallengeRepository
	cache          LeaderboardCache
	cacheTTL       time.Duration
	logger         *zap.Logger
}

func NewLeaderboardService(
	submissionRepo repository.SubmissionRepository,
	profileRepo repository.ProfileRepository,
	challengeRepo repository.ChallengeRepository,
	cache LeaderboardCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		submissionRepo: submissionRepo,
		profileRepo:    profileRepo,
		challengeRepo:  challengeRepo,
		cache:          cache,
		cacheTTL:       cacheTTL,
		logger:         logger,
	}
}

// Get ranks reviewed submissions by score descending. Profiles are fetched
// in a second query and joined in memory; a missing profile renders as
// "Anonymous User". Rank is the 1-based position; ties get sequential
// ranks, storage order is the only tie-break.
func (s *LeaderboardService) Get(ctx context.Context, challengeID string) ([]model.LeaderboardEntry, error) {
	if _, err := s.challengeRepo.FindByID(ctx, challengeID); err != nil {
		return nil, err
	}

	cacheKey := LeaderboardCacheKey(challengeID)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var entries []model.LeaderboardEntry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				return entries, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}

	submissions, err := s.submissionRepo.ListReviewedByChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewed submissions: %w", err)
	}

	userIDs := make([]string, 0, len(submissions))
	seen := make(map[string]bool, len(submissions))
	for _, sub := range submissions {
		if !seen[sub.UserID] {
			seen[sub.UserID] = true
			userIDs = append(userIDs, sub.UserID)
		}
	}

	profiles, err := s.profileRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profiles: %w", err)
	}
	profilesByID := make(map[string]model.Profile, len(profiles))
	for _, p := range profiles {
		profilesByID[p.ID] = p
	}

	entries := make([]model.LeaderboardEntry, 0, len(submissions))
	for i, sub := range submissions {
		entry := model.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      sub.UserID,
			UserName:    "Anonymous User",
			SubmittedAt: sub.SubmittedAt,
			RepoURL:     sub.RepoURL,
		}
		if sub.Score != nil {
			entry.Score = *sub.Score
		}
		if p, ok := profilesByID[sub.UserID]; ok {
			if p.FullName != "" {
				entry.UserName = p.FullName
			}
			entry.AvatarURL = p.AvatarURL
		}
		entries = append(entries, entry)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}
	return entries, nil
}
