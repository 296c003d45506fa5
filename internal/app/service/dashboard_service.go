package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"
	"challengearena/internal/domain/repository"

	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	profileRepo       repository.ProfileRepository
	challengeRepo     repository.ChallengeRepository
	participationRepo repository.ParticipationRepository
	submissionRepo    repository.SubmissionRepository
	now               func() time.Time
}

func NewDashboardService(
	profileRepo repository.ProfileRepository,
	challengeRepo repository.ChallengeRepository,
	participationRepo repository.ParticipationRepository,
	submissionRepo repository.SubmissionRepository,
) *DashboardService {
	return &DashboardService{
		profileRepo:       profileRepo,
		challengeRepo:     challengeRepo,
		participationRepo: participationRepo,
		submissionRepo:    submissionRepo,
		now:               time.Now,
	}
}

// Participant aggregates the signed-in participant's view: joined challenges
// with progress, achievements derived from reviewed submissions, and the
// career score. Participations and submissions are fetched concurrently.
func (s *DashboardService) Participant(ctx context.Context, userID string) (*model.ParticipantDashboard, error) {
	var (
		profile        *model.Profile
		participations []model.Participation
		submissions    []model.Submission
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profileRepo.FindByID(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to resolve profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		ps, err := s.participationRepo.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list participations: %w", err)
		}
		participations = ps
		return nil
	})
	g.Go(func() error {
		subs, err := s.submissionRepo.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list submissions: %w", err)
		}
		submissions = subs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	submissionsByChallenge := make(map[string]model.Submission, len(submissions))
	for _, sub := range submissions {
		submissionsByChallenge[sub.ChallengeID] = sub
	}

	now := s.now()
	active := make([]model.ActiveChallenge, 0, len(participations))
	for _, p := range participations {
		ac := model.ActiveChallenge{ID: p.ChallengeID, Status: "Joined"}
		if p.ChallengeTitle != nil {
			ac.Title = *p.ChallengeTitle
		}
		if p.ChallengeCompany != nil {
			ac.Company = *p.ChallengeCompany
		}
		if p.ChallengeDeadline != nil {
			if diff := p.ChallengeDeadline.Sub(now); diff > 0 {
				ac.DaysLeft = int(math.Ceil(diff.Hours() / 24))
			}
		}
		if sub, ok := submissionsByChallenge[p.ChallengeID]; ok {
			if sub.Status == model.SubmissionReviewed {
				ac.Status = "Completed"
				ac.Progress = 100
			} else {
				ac.Status = "In Progress"
				ac.Progress = 50
			}
		}
		active = append(active, ac)
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].DaysLeft < active[j].DaysLeft })
	if len(active) > 3 {
		active = active[:3]
	}

	achievements := make([]model.Achievement, 0, 3)
	for _, sub := range submissions {
		if sub.Status != model.SubmissionReviewed {
			continue
		}
		title := "Challenge Completed"
		if sub.Score != nil && *sub.Score > 80 {
			title = "High Score Achievement"
		}
		description := "Score: N/A"
		if sub.Score != nil {
			description = fmt.Sprintf("Score: %d", *sub.Score)
		}
		if sub.Feedback != nil && *sub.Feedback != "" {
			description += " - " + *sub.Feedback
		}
		achievements = append(achievements, model.Achievement{
			Title:       title,
			Description: description,
			Date:        sub.SubmittedAt.Format("2006-01-02"),
		})
		if len(achievements) == 3 {
			break
		}
	}

	return &model.ParticipantDashboard{
		OngoingChallenges: len(participations),
		CareerScore:       profile.Score,
		ActiveChallenges:  active,
		Achievements:      achievements,
	}, nil
}

// Company aggregates analytics over the acting company's challenges:
// submissions and participants are fetched concurrently over the owned id
// set, then reduced in memory in a single pass each.
func (s *DashboardService) Company(ctx context.Context, actor *model.Profile) (*model.CompanyDashboard, error) {
	if actor.CompanyName == nil || *actor.CompanyName == "" {
		return nil, fmt.Errorf("company profile is incomplete: %w", common.ErrForbidden)
	}

	challenges, _, err := s.challengeRepo.List(ctx, repository.ChallengeFilter{
		Company: *actor.CompanyName,
		Limit:   maxListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list owned challenges: %w", err)
	}

	challengeIDs := make([]string, len(challenges))
	challengesByID := make(map[string]model.Challenge, len(challenges))
	for i, c := range challenges {
		challengeIDs[i] = c.ID
		challengesByID[c.ID] = c
	}

	var (
		submissions    []model.Submission
		participations []model.Participation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subs, err := s.submissionRepo.ListByChallengeIDs(gctx, challengeIDs)
		if err != nil {
			return fmt.Errorf("failed to list submissions: %w", err)
		}
		submissions = subs
		return nil
	})
	g.Go(func() error {
		ps, err := s.participationRepo.ListByChallengeIDs(gctx, challengeIDs)
		if err != nil {
			return fmt.Errorf("failed to list participants: %w", err)
		}
		participations = ps
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	uniqueParticipants := make(map[string]bool, len(participations))
	for _, p := range participations {
		uniqueParticipants[p.UserID] = true
	}

	scoreSum, scoreCount := 0, 0
	for _, sub := range submissions {
		if sub.Score != nil {
			scoreSum += *sub.Score
			scoreCount++
		}
	}
	averageScore := 0.0 // zero, never NaN, when nothing is scored
	if scoreCount > 0 {
		averageScore = math.Round(float64(scoreSum)/float64(scoreCount)*10) / 10
	}

	recent := submissions
	if len(recent) > 5 {
		recent = recent[:5]
	}
	recent = append([]model.Submission(nil), recent...)
	if err := s.attachSubmitterDetails(ctx, recent, challengesByID); err != nil {
		return nil, err
	}

	top := append([]model.Challenge(nil), challenges...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Participants > top[j].Participants })
	if len(top) > 3 {
		top = top[:3]
	}
	now := s.now()
	for i := range top {
		top[i].ComputeDeadlineState(now)
	}

	return &model.CompanyDashboard{
		ActiveChallenges:  len(challenges),
		TotalSubmissions:  len(submissions),
		CandidatesEngaged: len(uniqueParticipants),
		AverageScore:      averageScore,
		RecentSubmissions: recent,
		TopChallenges:     top,
	}, nil
}

// Candidates lists distinct participants across the company's challenges
// with their submission count and best score.
func (s *DashboardService) Candidates(ctx context.Context, actor *model.Profile) ([]model.Candidate, error) {
	if actor.CompanyName == nil || *actor.CompanyName == "" {
		return nil, fmt.Errorf("company profile is incomplete: %w", common.ErrForbidden)
	}

	challenges, _, err := s.challengeRepo.List(ctx, repository.ChallengeFilter{
		Company: *actor.CompanyName,
		Limit:   maxListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list owned challenges: %w", err)
	}
	challengeIDs := make([]string, len(challenges))
	for i, c := range challenges {
		challengeIDs[i] = c.ID
	}

	participations, err := s.participationRepo.ListByChallengeIDs(ctx, challengeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	submissions, err := s.submissionRepo.ListByChallengeIDs(ctx, challengeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	byUser := make(map[string]*model.Candidate)
	order := []string{}
	for _, p := range participations {
		if _, ok := byUser[p.UserID]; !ok {
			byUser[p.UserID] = &model.Candidate{UserID: p.UserID, FullName: "Anonymous User"}
			order = append(order, p.UserID)
		}
	}
	for _, sub := range submissions {
		c, ok := byUser[sub.UserID]
		if !ok {
			continue
		}
		c.Submissions++
		if sub.Score != nil && (c.BestScore == nil || *sub.Score > *c.BestScore) {
			score := *sub.Score
			c.BestScore = &score
		}
	}

	userIDs := make([]string, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	profiles, err := s.profileRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate profiles: %w", err)
	}
	for _, p := range profiles {
		if c, ok := byUser[p.ID]; ok {
			if p.FullName != "" {
				c.FullName = p.FullName
			}
			c.AvatarURL = p.AvatarURL
		}
	}

	candidates := make([]model.Candidate, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, *byUser[id])
	}
	return candidates, nil
}

// attachSubmitterDetails joins profile names and challenge titles onto
// submissions for display, mirroring the in-memory map join the catalog uses.
func (s *DashboardService) attachSubmitterDetails(ctx context.Context, submissions []model.Submission, challengesByID map[string]model.Challenge) error {
	if len(submissions) == 0 {
		return nil
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
		return fmt.Errorf("failed to fetch submitter profiles: %w", err)
	}
	profilesByID := make(map[string]model.Profile, len(profiles))
	for _, p := range profiles {
		profilesByID[p.ID] = p
	}
	for i := range submissions {
		if p, ok := profilesByID[submissions[i].UserID]; ok {
			name := p.FullName
			submissions[i].UserFullName = &name
			submissions[i].UserAvatarURL = p.AvatarURL
		}
		if c, ok := challengesByID[submissions[i].ChallengeID]; ok {
			title := c.Title
			submissions[i].ChallengeTitle = &title
		}
	}
	return nil
}
