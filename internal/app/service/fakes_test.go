package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"challengearena/internal/common"
	"challengearena/internal/domain/model"
	"challengearena/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// newTxDB returns a *sql.DB whose transactions are mocked. Repositories in
// these tests are in-memory fakes, so only Begin/Commit/Rollback cross the
// driver boundary.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// sqlmockCtl scripts the transaction boundaries a test run will cross.
type sqlmockCtl struct{ mock sqlmock.Sqlmock }

func (c sqlmockCtl) expectCommit() {
	c.mock.ExpectBegin()
	c.mock.ExpectCommit()
}

func (c sqlmockCtl) expectRollback() {
	c.mock.ExpectBegin()
	c.mock.ExpectRollback()
}

func ptr[T any](v T) *T { return &v }

// --- redis fakes ---

type fakeQueue struct {
	pushed  []string // front of slice is head of queue
	deleted []string
	pushErr error
}

func (q *fakeQueue) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if q.pushErr != nil {
		return redis.NewIntResult(0, q.pushErr)
	}
	for _, v := range values {
		q.pushed = append([]string{fmt.Sprint(v)}, q.pushed...)
	}
	return redis.NewIntResult(int64(len(q.pushed)), nil)
}

func (q *fakeQueue) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if q.pushErr != nil {
		return redis.NewIntResult(0, q.pushErr)
	}
	for _, v := range values {
		q.pushed = append(q.pushed, fmt.Sprint(v))
	}
	return redis.NewIntResult(int64(len(q.pushed)), nil)
}

func (q *fakeQueue) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	q.deleted = append(q.deleted, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

type fakeCache struct {
	data map[string]string
	sets int
	gets int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	c.gets++
	if v, ok := c.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	c.sets++
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	default:
		c.data[key] = fmt.Sprint(v)
	}
	return redis.NewStatusResult("OK", nil)
}

// --- repository fakes ---

type fakeProfileRepo struct {
	profiles map[string]*model.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (r *fakeProfileRepo) add(p model.Profile) *model.Profile {
	stored := p
	r.profiles[p.ID] = &stored
	return &stored
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	for _, p := range r.profiles {
		if p.Email == profile.Email {
			return fmt.Errorf("email already registered: %w", common.ErrConflict)
		}
	}
	stored := *profile
	r.profiles[profile.ID] = &stored
	return nil
}

func (r *fakeProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	for _, p := range r.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeProfileRepo) FindByIDs(ctx context.Context, ids []string) ([]model.Profile, error) {
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) SetRole(ctx context.Context, id, role string, companyName *string) error {
	p, ok := r.profiles[id]
	if !ok {
		return common.ErrNotFound
	}
	p.Role = role
	p.CompanyName = companyName
	return nil
}

func (r *fakeProfileRepo) UpdateDetails(ctx context.Context, id, fullName string, avatarURL *string) error {
	p, ok := r.profiles[id]
	if !ok {
		return common.ErrNotFound
	}
	p.FullName = fullName
	p.AvatarURL = avatarURL
	return nil
}

func (r *fakeProfileRepo) AddScore(ctx context.Context, tx *sql.Tx, id string, delta int) error {
	p, ok := r.profiles[id]
	if !ok {
		return common.ErrNotFound
	}
	p.Score += delta
	return nil
}

type fakeChallengeRepo struct {
	challenges map[string]*model.Challenge
	order      []string
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{challenges: make(map[string]*model.Challenge)}
}

func (r *fakeChallengeRepo) add(c model.Challenge) *model.Challenge {
	stored := c
	r.challenges[c.ID] = &stored
	r.order = append(r.order, c.ID)
	return &stored
}

func (r *fakeChallengeRepo) Create(ctx context.Context, challenge *model.Challenge) error {
	for _, c := range r.challenges {
		if c.Slug == challenge.Slug {
			return fmt.Errorf("challenge slug already exists: %w", common.ErrConflict)
		}
	}
	r.add(*challenge)
	return nil
}

func (r *fakeChallengeRepo) Update(ctx context.Context, challenge *model.Challenge) error {
	if _, ok := r.challenges[challenge.ID]; !ok {
		return common.ErrNotFound
	}
	stored := *challenge
	r.challenges[challenge.ID] = &stored
	return nil
}

func (r *fakeChallengeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.challenges[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.challenges, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeChallengeRepo) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	c, ok := r.challenges[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeChallengeRepo) FindBySlug(ctx context.Context, slug string) (*model.Challenge, error) {
	for _, c := range r.challenges {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeChallengeRepo) List(ctx context.Context, filter repository.ChallengeFilter) ([]model.Challenge, int, error) {
	matched := make([]model.Challenge, 0, len(r.order))
	for _, id := range r.order {
		c := r.challenges[id]
		if filter.Difficulty != "" && c.Difficulty != filter.Difficulty {
			continue
		}
		if filter.Company != "" && c.Company != filter.Company {
			continue
		}
		if filter.Featured != nil && c.Featured != *filter.Featured {
			continue
		}
		if filter.Tag != "" {
			found := false
			for _, tag := range c.Tags {
				if tag == filter.Tag {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.SearchTerm != "" {
			term := strings.ToLower(filter.SearchTerm)
			if !strings.Contains(strings.ToLower(c.Title), term) &&
				!strings.Contains(strings.ToLower(c.Description), term) {
				continue
			}
		}
		matched = append(matched, *c)
	}
	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *fakeChallengeRepo) IncrementParticipants(ctx context.Context, tx *sql.Tx, id string) error {
	c, ok := r.challenges[id]
	if !ok {
		return common.ErrNotFound
	}
	c.Participants++
	return nil
}

type fakeParticipationRepo struct {
	participations []model.Participation
}

func (r *fakeParticipationRepo) add(p model.Participation) {
	r.participations = append(r.participations, p)
}

func (r *fakeParticipationRepo) Create(ctx context.Context, tx *sql.Tx, p *model.Participation) error {
	for _, existing := range r.participations {
		if existing.ChallengeID == p.ChallengeID && existing.UserID == p.UserID {
			return fmt.Errorf("already joined: %w", common.ErrConflict)
		}
	}
	r.participations = append(r.participations, *p)
	return nil
}

func (r *fakeParticipationRepo) Exists(ctx context.Context, challengeID, userID string) (bool, error) {
	for _, p := range r.participations {
		if p.ChallengeID == challengeID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeParticipationRepo) ListByUser(ctx context.Context, userID string) ([]model.Participation, error) {
	var out []model.Participation
	for _, p := range r.participations {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeParticipationRepo) ListByChallengeIDs(ctx context.Context, challengeIDs []string) ([]model.Participation, error) {
	ids := make(map[string]bool, len(challengeIDs))
	for _, id := range challengeIDs {
		ids[id] = true
	}
	var out []model.Participation
	for _, p := range r.participations {
		if ids[p.ChallengeID] {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSubmissionRepo struct {
	submissions map[string]*model.Submission
	order       []string
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: make(map[string]*model.Submission)}
}

func (r *fakeSubmissionRepo) add(s model.Submission) *model.Submission {
	stored := s
	r.submissions[s.ID] = &stored
	r.order = append(r.order, s.ID)
	return &stored
}

func (r *fakeSubmissionRepo) Create(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	for _, existing := range r.submissions {
		if existing.ChallengeID == sub.ChallengeID && existing.UserID == sub.UserID {
			return fmt.Errorf("already submitted: %w", common.ErrConflict)
		}
	}
	r.add(*sub)
	return nil
}

func (r *fakeSubmissionRepo) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	s, ok := r.submissions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSubmissionRepo) ListByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	var out []model.Submission
	for _, id := range r.order {
		if s := r.submissions[id]; s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) ListReviewedByChallenge(ctx context.Context, challengeID string) ([]model.Submission, error) {
	var out []model.Submission
	for _, id := range r.order {
		s := r.submissions[id]
		if s.ChallengeID == challengeID && s.Status == model.SubmissionReviewed {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := 0, 0
		if out[i].Score != nil {
			si = *out[i].Score
		}
		if out[j].Score != nil {
			sj = *out[j].Score
		}
		return si > sj
	})
	return out, nil
}

func (r *fakeSubmissionRepo) ListByChallengeIDs(ctx context.Context, challengeIDs []string) ([]model.Submission, error) {
	ids := make(map[string]bool, len(challengeIDs))
	for _, id := range challengeIDs {
		ids[id] = true
	}
	var out []model.Submission
	for _, id := range r.order {
		if s := r.submissions[id]; ids[s.ChallengeID] {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r *fakeSubmissionRepo) ApplyEvaluation(ctx context.Context, tx *sql.Tx, id string, status model.SubmissionStatus, score *int, feedback *string, reviewedAt time.Time) error {
	s, ok := r.submissions[id]
	if !ok {
		return common.ErrNotFound
	}
	s.Status = status
	s.Score = score
	s.Feedback = feedback
	s.ReviewedAt = &reviewedAt
	return nil
}

type fakeEvaluationJobRepo struct {
	jobs map[string]*model.EvaluationJob
}

func newFakeEvaluationJobRepo() *fakeEvaluationJobRepo {
	return &fakeEvaluationJobRepo{jobs: make(map[string]*model.EvaluationJob)}
}

func (r *fakeEvaluationJobRepo) add(j model.EvaluationJob) *model.EvaluationJob {
	stored := j
	r.jobs[j.ID] = &stored
	return &stored
}

func (r *fakeEvaluationJobRepo) Create(ctx context.Context, tx *sql.Tx, job *model.EvaluationJob) error {
	r.add(*job)
	return nil
}

func (r *fakeEvaluationJobRepo) FindByID(ctx context.Context, id string) (*model.EvaluationJob, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *fakeEvaluationJobRepo) FindBySubmissionID(ctx context.Context, submissionID string) (*model.EvaluationJob, error) {
	for _, j := range r.jobs {
		if j.SubmissionID == submissionID {
			cp := *j
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeEvaluationJobRepo) UpdateStatus(ctx context.Context, tx *sql.Tx, jobID, status string, lastError *string) error {
	j, ok := r.jobs[jobID]
	if !ok {
		return common.ErrNotFound
	}
	j.Status = status
	j.LastError = lastError
	return nil
}

func (r *fakeEvaluationJobRepo) ListQueuedIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for _, j := range r.jobs {
		if j.Status == model.JobStatusQueued {
			ids = append(ids, j.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeEvaluationJobRepo) IncrementAttempts(ctx context.Context, jobID string) (int, error) {
	j, ok := r.jobs[jobID]
	if !ok {
		return 0, common.ErrNotFound
	}
	j.Attempts++
	return j.Attempts, nil
}
