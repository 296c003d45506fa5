package service

import (
	"context"
	"testing"
	"time"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLeaderboardEnv(cache *fakeCache) (*LeaderboardService, *fakeSubmissionRepo, *fakeProfileRepo, *fakeChallengeRepo) {
	submissionRepo := newFakeSubmissionRepo()
	profileRepo := newFakeProfileRepo()
	challengeRepo := newFakeChallengeRepo()
	svc := NewLeaderboardService(submissionRepo, profileRepo, challengeRepo, cache, time.Minute, zap.NewNop())
	return svc, submissionRepo, profileRepo, challengeRepo
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by score descending with sequential ranks", func(t *testing.T) {
		svc, submissionRepo, profileRepo, challengeRepo := newLeaderboardEnv(newFakeCache())
		challengeRepo.add(model.Challenge{ID: "c1"})
		profileRepo.add(model.Profile{ID: "u1", FullName: "Ada"})
		profileRepo.add(model.Profile{ID: "u2", FullName: "Grace"})
		profileRepo.add(model.Profile{ID: "u3", FullName: "Edsger"})

		submissionRepo.add(model.Submission{ID: "s1", ChallengeID: "c1", UserID: "u1", Status: model.SubmissionReviewed, Score: ptr(70), RepoURL: "https://github.com/ada/x"})
		submissionRepo.add(model.Submission{ID: "s2", ChallengeID: "c1", UserID: "u2", Status: model.SubmissionReviewed, Score: ptr(95)})
		submissionRepo.add(model.Submission{ID: "s3", ChallengeID: "c1", UserID: "u3", Status: model.SubmissionReviewed, Score: ptr(95)})
		// pending submissions never rank
		submissionRepo.add(model.Submission{ID: "s4", ChallengeID: "c1", UserID: "u1", Status: model.SubmissionPending})

		entries, err := svc.Get(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
		assert.Equal(t, 95, entries[0].Score)
		assert.Equal(t, 95, entries[1].Score)
		assert.Equal(t, 70, entries[2].Score)
		assert.Equal(t, "Ada", entries[2].UserName)
		assert.Equal(t, "https://github.com/ada/x", entries[2].RepoURL)
	})

	t.Run("missing profile renders as anonymous", func(t *testing.T) {
		svc, submissionRepo, _, challengeRepo := newLeaderboardEnv(newFakeCache())
		challengeRepo.add(model.Challenge{ID: "c1"})
		submissionRepo.add(model.Submission{ID: "s1", ChallengeID: "c1", UserID: "ghost", Status: model.SubmissionReviewed, Score: ptr(50)})

		entries, err := svc.Get(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Anonymous User", entries[0].UserName)
	})

	t.Run("unknown challenge is not found", func(t *testing.T) {
		svc, _, _, _ := newLeaderboardEnv(newFakeCache())
		_, err := svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("empty leaderboard is an empty slice", func(t *testing.T) {
		svc, _, _, challengeRepo := newLeaderboardEnv(newFakeCache())
		challengeRepo.add(model.Challenge{ID: "c1"})

		entries, err := svc.Get(ctx, "c1")
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("second read is served from cache", func(t *testing.T) {
		cache := newFakeCache()
		svc, submissionRepo, profileRepo, challengeRepo := newLeaderboardEnv(cache)
		challengeRepo.add(model.Challenge{ID: "c1"})
		profileRepo.add(model.Profile{ID: "u1", FullName: "Ada"})
		submissionRepo.add(model.Submission{ID: "s1", ChallengeID: "c1", UserID: "u1", Status: model.SubmissionReviewed, Score: ptr(80)})

		first, err := svc.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 1, cache.sets)

		// Mutate storage; the cached rendering must win until it expires.
		submissionRepo.add(model.Submission{ID: "s2", ChallengeID: "c1", UserID: "u2", Status: model.SubmissionReviewed, Score: ptr(99)})
		second, err := svc.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, cache.sets)
	})
}
