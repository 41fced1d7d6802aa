package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/consistify-api/internal/analytics"
	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

const (
	studentID  = "64b7f0c2a1b2c3d4e5f60718"
	student2ID = "64b7f0c2a1b2c3d4e5f60719"
	educatorID = "64b7f0c2a1b2c3d4e5f60720"
)

// Wednesday; the week started on Sunday 2026-10-11.
var refNow = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

func day(d, hour int) time.Time {
	return time.Date(2026, time.October, d, hour, 0, 0, 0, time.UTC)
}

type stubUsers struct {
	users map[string]models.User
	order []string
	err   error
}

func newStubUsers(users ...models.User) *stubUsers {
	s := &stubUsers{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
		s.order = append(s.order, u.ID)
	}
	return s
}

func (s *stubUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	return &u, nil
}

func (s *stubUsers) ListByRole(_ context.Context, role models.UserRole) ([]models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.User
	for _, id := range s.order {
		if s.users[id].Role == role {
			out = append(out, s.users[id])
		}
	}
	return out, nil
}

type stubActivities struct {
	mu        sync.Mutex
	byOwner   map[string][]models.Activity
	calls     int
	err       error
	failFor   string
	delayFor  map[string]time.Duration
	afterRead func()
}

func (s *stubActivities) ListByStudent(ctx context.Context, id string) ([]models.Activity, error) {
	s.mu.Lock()
	s.calls++
	delay := s.delayFor[id]
	s.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil || id == s.failFor {
		return nil, errors.New("connection refused")
	}
	out := s.byOwner[id]
	if hook := s.afterRead; hook != nil {
		s.afterRead = nil
		hook()
	}
	return out, nil
}

type stubFeedback struct {
	byEducator map[string][]models.Feedback
	err        error
}

func (s *stubFeedback) ListByEducator(_ context.Context, id string) ([]models.Feedback, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byEducator[id], nil
}

type stubCacheRepo struct {
	store   map[string][]byte
	getErr  error
	incrErr error
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) Incr(ctx context.Context, key string) (int64, error) {
	if s.incrErr != nil {
		return 0, s.incrErr
	}
	var current int64
	if payload, ok := s.store[key]; ok {
		if err := json.Unmarshal(payload, &current); err != nil {
			return 0, err
		}
	}
	current++
	return current, s.Set(ctx, key, current, 0)
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	removed := 0
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
			removed++
		}
	}
	return removed, nil
}

func newAnalyticsForTest(users *stubUsers, acts *stubActivities, fb *stubFeedback, cache *CacheService) *AnalyticsService {
	svc := NewAnalyticsService(users, acts, fb, cache, nil, zap.NewNop(), AnalyticsConfig{RosterConcurrency: 2})
	svc.now = func() time.Time { return refNow }
	return svc
}

func student(id, name string) models.User {
	return models.User{ID: id, Name: name, Email: name + "@example.com", Role: models.RoleStudent}
}

func TestStudentReportTodayScenario(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"))
	acts := &stubActivities{byOwner: map[string][]models.Activity{
		studentID: {
			{StudentID: studentID, Subject: "Math", DurationMinutes: 30, OccurredAt: day(14, 8)},
			{StudentID: studentID, Subject: "Physics", DurationMinutes: 45, OccurredAt: day(14, 9)},
			{StudentID: studentID, Subject: "Math", DurationMinutes: 0, OccurredAt: day(14, 10)},
		},
	}}
	svc := newAnalyticsForTest(users, acts, &stubFeedback{}, nil)

	report, cached, err := svc.StudentReport(context.Background(), studentID)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "1.3", report.TotalHours)
	assert.Equal(t, 14, report.ConsistencyScore)
	assert.Equal(t, []analytics.NamedValue{{Name: "Math", Value: 30}, {Name: "Physics", Value: 45}}, report.SubjectData)
	require.Len(t, report.WeeklyData, 7)
	assert.Equal(t, 75, report.WeeklyData[6].Minutes)
	assert.Equal(t, 3, report.TotalActivities)
	assert.Equal(t, 10.0, report.WeeklyGoal)
	assert.Equal(t, "1.3", report.CurrentWeekHours)
	assert.Equal(t, 13, report.GoalProgress)
	assert.Equal(t, "8.7", report.RemainingHours)
	require.Len(t, report.HeatmapData, 1)
	assert.Equal(t, 3, report.HeatmapData[0].Count)
}

func TestStudentReportEmptyUsesDefaultGoal(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"))
	svc := newAnalyticsForTest(users, &stubActivities{}, &stubFeedback{}, nil)

	report, _, err := svc.StudentReport(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, "0.0", report.TotalHours)
	assert.Equal(t, 0, report.ConsistencyScore)
	assert.NotNil(t, report.SubjectData)
	assert.Empty(t, report.SubjectData)
	assert.Len(t, report.WeeklyData, 7)
	assert.Equal(t, 0, report.GoalProgress)
	assert.Equal(t, "10.0", report.RemainingHours)
	assert.NotNil(t, report.HeatmapData)

	body, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"subjectData":[]`)
	assert.Contains(t, string(body), `"heatmapData":[]`)
}

func TestStudentReportGoalClamped(t *testing.T) {
	goal := 600
	ana := student(studentID, "ana")
	ana.WeeklyGoalMinutes = &goal
	users := newStubUsers(ana)
	acts := &stubActivities{byOwner: map[string][]models.Activity{
		studentID: {
			{Subject: "Math", DurationMinutes: 500, OccurredAt: day(12, 8)},
			{Subject: "Math", DurationMinutes: 400, OccurredAt: day(13, 8)},
		},
	}}
	svc := newAnalyticsForTest(users, acts, &stubFeedback{}, nil)

	report, _, err := svc.StudentReport(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, "15.0", report.CurrentWeekHours)
	assert.Equal(t, 100, report.GoalProgress)
	assert.Equal(t, "0.0", report.RemainingHours)
}

func TestStudentReportErrors(t *testing.T) {
	educator := models.User{ID: educatorID, Name: "rao", Role: models.RoleEducator}
	users := newStubUsers(student(studentID, "ana"), educator)
	svc := newAnalyticsForTest(users, &stubActivities{}, &stubFeedback{}, nil)
	ctx := context.Background()

	_, _, err := svc.StudentReport(ctx, "not-an-id")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "Invalid Student ID provided", appErrors.FromError(err).Message)

	_, _, err = svc.StudentReport(ctx, student2ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, "Student not found", appErrors.FromError(err).Message)

	_, _, err = svc.StudentReport(ctx, educatorID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestStudentReportStoreFailureIsUnavailable(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"))
	svc := newAnalyticsForTest(users, &stubActivities{err: errors.New("down")}, &stubFeedback{}, nil)

	report, _, err := svc.StudentReport(context.Background(), studentID)
	assert.Nil(t, report)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnavailable))
	assert.True(t, appErrors.FromError(err).Retryable())
}

func TestStudentReportUserLookupFailureIsUnavailable(t *testing.T) {
	users := newStubUsers()
	users.err = errors.New("timeout")
	svc := newAnalyticsForTest(users, &stubActivities{}, &stubFeedback{}, nil)

	_, _, err := svc.SelfReport(context.Background(), studentID)
	assert.True(t, errors.Is(err, appErrors.ErrUnavailable))
}

func TestStudentReportCaching(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"))
	acts := &stubActivities{byOwner: map[string][]models.Activity{
		studentID: {{Subject: "Math", DurationMinutes: 60, OccurredAt: day(14, 8)}},
	}}
	cacheRepo := &stubCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := newAnalyticsForTest(users, acts, &stubFeedback{}, cache)
	ctx := context.Background()

	first, cached, err := svc.SelfReport(ctx, studentID)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Contains(t, cacheRepo.store, "analytics:student:"+studentID+":g0:2026-10-14")

	second, cached, err := svc.SelfReport(ctx, studentID)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, acts.calls)
	assert.Equal(t, first.TotalHours, second.TotalHours)
	assert.Equal(t, first.SubjectData, second.SubjectData)

	require.NoError(t, svc.BumpGeneration(ctx, variantStudent, studentID))
	_, cached, err = svc.SelfReport(ctx, studentID)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, acts.calls)
	assert.Contains(t, cacheRepo.store, "analytics:student:"+studentID+":g1:2026-10-14")

	require.NoError(t, svc.PurgeSubject(ctx, variantStudent, studentID))
	assert.NotContains(t, cacheRepo.store, "analytics:student:"+studentID+":g0:2026-10-14")
	assert.NotContains(t, cacheRepo.store, "analytics:student:"+studentID+":g1:2026-10-14")
	assert.Contains(t, cacheRepo.store, generationKey(variantStudent, studentID))
}

func TestStudentReportWriteDuringAssemblyIsNotServed(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"))
	acts := &stubActivities{byOwner: map[string][]models.Activity{
		studentID: {{Subject: "Math", DurationMinutes: 60, OccurredAt: day(14, 8)}},
	}}
	cache := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := newAnalyticsForTest(users, acts, &stubFeedback{}, cache)
	invalidator := NewReportInvalidator(nil, svc, zap.NewNop())
	ctx := context.Background()

	// a write lands after the records were read but before the report is cached
	acts.afterRead = func() {
		acts.byOwner[studentID] = append(acts.byOwner[studentID], models.Activity{Subject: "Physics", DurationMinutes: 120, OccurredAt: day(14, 9)})
		invalidator.Invalidate(ctx, variantStudent, studentID)
	}

	stale, cached, err := svc.SelfReport(ctx, studentID)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, stale.TotalActivities)

	fresh, cached, err := svc.SelfReport(ctx, studentID)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, fresh.TotalActivities)
	assert.Equal(t, "3.0", fresh.TotalHours)

	again, cached, err := svc.SelfReport(ctx, studentID)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 2, again.TotalActivities)
}

func TestStudentReportBypassesCacheWhenGenerationUnreadable(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"))
	acts := &stubActivities{}
	cacheRepo := &stubCacheRepo{getErr: errors.New("redis down")}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := newAnalyticsForTest(users, acts, &stubFeedback{}, cache)

	_, cached, err := svc.SelfReport(context.Background(), studentID)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Empty(t, cacheRepo.store)
}

func TestStudentReportCacheFailureFallsThrough(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"))
	acts := &stubActivities{}
	cache := NewCacheService(&stubCacheRepo{getErr: errors.New("redis down")}, nil, time.Minute, zap.NewNop(), true)
	svc := newAnalyticsForTest(users, acts, &stubFeedback{}, cache)

	report, cached, err := svc.SelfReport(context.Background(), studentID)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.NotNil(t, report)
	assert.Equal(t, 1, acts.calls)
}

func TestEducatorReportScenario(t *testing.T) {
	educator := models.User{ID: educatorID, Name: "rao", Role: models.RoleEducator}
	users := newStubUsers(educator)
	fb := &stubFeedback{byEducator: map[string][]models.Feedback{
		educatorID: {
			{StudentID: studentID, CreatedAt: day(8, 10)},
			{StudentID: student2ID, CreatedAt: day(9, 10)},
			{StudentID: studentID, CreatedAt: day(11, 10)},
			{StudentID: studentID, CreatedAt: day(12, 10)},
			{StudentID: student2ID, CreatedAt: day(14, 10)},
		},
	}}
	svc := newAnalyticsForTest(users, &stubActivities{}, fb, nil)

	report, _, err := svc.EducatorReport(context.Background(), educatorID)
	require.NoError(t, err)
	assert.Equal(t, 5, report.TotalHours)
	assert.Equal(t, 100, report.ConsistencyScore)
	assert.Equal(t, []analytics.NamedValue{{Name: "Feedback Given", Value: 5}, {Name: "Students Mentored", Value: 2}}, report.SubjectData)
	assert.Len(t, report.WeeklyData, 7)
	assert.Equal(t, 5, report.TotalActivities)
	assert.Equal(t, 10, report.WeeklyGoal)
	assert.Equal(t, 5, report.CurrentWeekHours)
	assert.Equal(t, 50, report.GoalProgress)
	assert.Equal(t, 5, report.RemainingHours)

	body, err := json.Marshal(report)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "heatmapData")
}

func TestEducatorReportRejectsStudents(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"))
	svc := newAnalyticsForTest(users, &stubActivities{}, &stubFeedback{}, nil)

	_, _, err := svc.EducatorReport(context.Background(), studentID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, "Educator not found", appErrors.FromError(err).Message)

	_, _, err = svc.EducatorReport(context.Background(), "xyz")
	assert.Equal(t, "Invalid Educator ID provided", appErrors.FromError(err).Message)
}

func TestRosterPreservesOrder(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"), student(student2ID, "ben"))
	acts := &stubActivities{
		byOwner: map[string][]models.Activity{
			studentID:  {{Subject: "Math", DurationMinutes: 30, OccurredAt: day(14, 8)}},
			student2ID: {{Subject: "Art", DurationMinutes: 30, OccurredAt: day(13, 8)}, {Subject: "Art", DurationMinutes: 30, OccurredAt: day(12, 8)}},
		},
		// the first student finishes last
		delayFor: map[string]time.Duration{studentID: 20 * time.Millisecond},
	}
	svc := newAnalyticsForTest(users, acts, &stubFeedback{}, nil)

	roster, err := svc.Roster(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, studentID, roster[0].ID)
	assert.Equal(t, 14, roster[0].ConsistencyScore)
	assert.Equal(t, 1, roster[0].TotalActivities)
	require.NotNil(t, roster[0].LastActive)
	assert.Equal(t, day(14, 8), *roster[0].LastActive)
	assert.Equal(t, student2ID, roster[1].ID)
	assert.Equal(t, 29, roster[1].ConsistencyScore)
	assert.Equal(t, day(13, 8), *roster[1].LastActive)
}

func TestRosterFailsWhenAnyFetchFails(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"), student(student2ID, "ben"))
	svc := newAnalyticsForTest(users, &stubActivities{failFor: student2ID}, &stubFeedback{}, nil)

	roster, err := svc.Roster(context.Background())
	assert.Nil(t, roster)
	assert.True(t, errors.Is(err, appErrors.ErrUnavailable))
}

func TestRosterEmpty(t *testing.T) {
	svc := newAnalyticsForTest(newStubUsers(), &stubActivities{}, &stubFeedback{}, nil)

	roster, err := svc.Roster(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, roster)
	assert.Empty(t, roster)
}
