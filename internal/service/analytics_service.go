package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/consistify-api/internal/analytics"
	"github.com/noah-isme/consistify-api/internal/dto"
	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

// Report variants used for cache keys and metrics labels.
const (
	variantStudent  = "student"
	variantEducator = "educator"
)

type analyticsUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

type activityReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Activity, error)
}

type feedbackReader interface {
	ListByEducator(ctx context.Context, educatorID string) ([]models.Feedback, error)
}

// AnalyticsConfig tunes report assembly.
type AnalyticsConfig struct {
	DefaultWeeklyGoalMinutes int
	EducatorWeeklyTarget     int
	RosterConcurrency        int
	StoreTimeout             time.Duration
	CacheTTL                 time.Duration
}

// AnalyticsService assembles analytics reports from the record store.
type AnalyticsService struct {
	users      analyticsUserReader
	activities activityReader
	feedback   feedbackReader
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        AnalyticsConfig
	now        func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(users analyticsUserReader, activities activityReader, feedback feedbackReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg AnalyticsConfig) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultWeeklyGoalMinutes <= 0 {
		cfg.DefaultWeeklyGoalMinutes = 600
	}
	if cfg.EducatorWeeklyTarget <= 0 {
		cfg.EducatorWeeklyTarget = 10
	}
	if cfg.RosterConcurrency <= 0 {
		cfg.RosterConcurrency = 8
	}
	return &AnalyticsService{
		users:      users,
		activities: activities,
		feedback:   feedback,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SelfReport returns the activity report of the authenticated caller.
func (s *AnalyticsService) SelfReport(ctx context.Context, userID string) (*dto.StudentAnalyticsResponse, bool, error) {
	user, err := s.loadSubject(ctx, userID, "", "User not found")
	if err != nil {
		return nil, false, err
	}
	return s.studentReport(ctx, user)
}

// StudentReport returns the activity report of a student for a third party.
func (s *AnalyticsService) StudentReport(ctx context.Context, studentID string) (*dto.StudentAnalyticsResponse, bool, error) {
	user, err := s.loadSubject(ctx, studentID, models.RoleStudent, "Student not found")
	if err != nil {
		return nil, false, err
	}
	return s.studentReport(ctx, user)
}

// EducatorReport returns the feedback based report of an educator.
func (s *AnalyticsService) EducatorReport(ctx context.Context, educatorID string) (*dto.EducatorAnalyticsResponse, bool, error) {
	user, err := s.loadSubject(ctx, educatorID, models.RoleEducator, "Educator not found")
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	ref := s.now()
	key, cacheable := s.reportKey(ctx, variantEducator, user.ID, ref)
	var cached dto.EducatorAnalyticsResponse
	if cacheable && s.cacheGet(ctx, key, &cached) {
		s.metrics.ObserveReport(variantEducator, true, time.Since(start))
		return &cached, true, nil
	}

	feedback, err := s.fetchFeedback(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}

	entries := analytics.FromFeedback(feedback)
	weekly := analytics.WeeklyTrend(entries, ref)
	recent := analytics.TrendTotal(weekly)
	progress, remaining := analytics.CountProgress(recent, s.cfg.EducatorWeeklyTarget)
	given := analytics.Total(entries)

	report := &dto.EducatorAnalyticsResponse{
		TotalHours:       given,
		ConsistencyScore: analytics.FeedbackConsistencyScore(weekly),
		SubjectData: []analytics.NamedValue{
			{Name: "Feedback Given", Value: given},
			{Name: "Students Mentored", Value: analytics.DistinctKeys(entries)},
		},
		WeeklyData:       weekly,
		TotalActivities:  len(entries),
		WeeklyGoal:       s.cfg.EducatorWeeklyTarget,
		CurrentWeekHours: recent,
		GoalProgress:     progress,
		RemainingHours:   remaining,
	}

	if cacheable {
		s.cacheSet(ctx, key, report)
	}
	s.metrics.ObserveReport(variantEducator, false, time.Since(start))
	return report, false, nil
}

// Roster summarises every student for the educator dashboard. Students are
// fetched concurrently but the result keeps the directory order.
func (s *AnalyticsService) Roster(ctx context.Context) ([]dto.RosterEntry, error) {
	start := time.Now()
	students, err := s.users.ListByRole(ctx, models.RoleStudent)
	if err != nil {
		s.metrics.RecordStoreFailure("students")
		return nil, appErrors.Unavailable(err, "Failed to load students")
	}
	s.metrics.ObserveStoreQuery("students_by_role", time.Since(start))

	ref := s.now()
	entries := make([]dto.RosterEntry, len(students))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.RosterConcurrency)
	for i := range students {
		i, student := i, students[i]
		group.Go(func() error {
			activities, err := s.fetchActivities(groupCtx, student.ID)
			if err != nil {
				return err
			}
			records := analytics.FromActivities(activities)
			entries[i] = dto.RosterEntry{
				ID:               student.ID,
				Name:             student.Name,
				Email:            student.Email,
				ConsistencyScore: analytics.ConsistencyScore(analytics.WeeklyTrend(records, ref)),
				LastActive:       analytics.LastActive(records),
				TotalActivities:  len(records),
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// SelfDataset returns the caller's raw engine output for exports.
func (s *AnalyticsService) SelfDataset(ctx context.Context, userID string) (*models.User, analytics.Report, error) {
	user, err := s.loadSubject(ctx, userID, "", "User not found")
	if err != nil {
		return nil, analytics.Report{}, err
	}
	activities, err := s.fetchActivities(ctx, user.ID)
	if err != nil {
		return nil, analytics.Report{}, err
	}
	report := analytics.Compute(analytics.FromActivities(activities), s.now(), s.weeklyGoal(user), analytics.ConsistencyScore)
	return user, report, nil
}

// BumpGeneration makes every cached report of a subject unreachable. Reports
// assembled from records read before the bump are written under the old
// generation and are never served again.
func (s *AnalyticsService) BumpGeneration(ctx context.Context, variant, subjectID string) error {
	if !s.cache.Enabled() {
		return nil
	}
	_, err := s.cache.Bump(ctx, generationKey(variant, subjectID))
	return err
}

// PurgeSubject deletes the stored reports of a subject, whatever their
// generation.
func (s *AnalyticsService) PurgeSubject(ctx context.Context, variant, subjectID string) error {
	if !s.cache.Enabled() {
		return nil
	}
	return s.cache.Invalidate(ctx, "analytics:"+variant+":"+subjectID+":*")
}

// SystemMetrics returns an instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}

func (s *AnalyticsService) studentReport(ctx context.Context, user *models.User) (*dto.StudentAnalyticsResponse, bool, error) {
	start := time.Now()
	ref := s.now()
	key, cacheable := s.reportKey(ctx, variantStudent, user.ID, ref)
	var cached dto.StudentAnalyticsResponse
	if cacheable && s.cacheGet(ctx, key, &cached) {
		s.metrics.ObserveReport(variantStudent, true, time.Since(start))
		return &cached, true, nil
	}

	activities, err := s.fetchActivities(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}

	goal := s.weeklyGoal(user)
	out := analytics.Compute(analytics.FromActivities(activities), ref, goal, analytics.ConsistencyScore)
	report := &dto.StudentAnalyticsResponse{
		TotalHours:       analytics.FormatHours(out.Total),
		ConsistencyScore: out.ConsistencyScore,
		SubjectData:      out.Distribution,
		WeeklyData:       out.Weekly,
		TotalActivities:  out.TotalEntries,
		HeatmapData:      out.Heatmap,
		WeeklyGoal:       float64(goal) / 60,
		CurrentWeekHours: out.Goal.CurrentWeekHours(),
		GoalProgress:     out.Goal.Percent,
		RemainingHours:   out.Goal.RemainingHours(),
	}

	if cacheable {
		s.cacheSet(ctx, key, report)
	}
	s.metrics.ObserveReport(variantStudent, false, time.Since(start))
	return report, false, nil
}

// loadSubject validates the identifier and loads the user. An empty role
// accepts any role.
func (s *AnalyticsService) loadSubject(ctx context.Context, id string, role models.UserRole, notFound string) (*models.User, error) {
	if !primitive.IsValidObjectID(id) {
		label := "ID"
		switch role {
		case models.RoleStudent:
			label = "Student ID"
		case models.RoleEducator:
			label = "Educator ID"
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid "+label+" provided")
	}

	start := time.Now()
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
		}
		s.metrics.RecordStoreFailure("user")
		return nil, appErrors.Unavailable(err, "Failed to load user")
	}
	s.metrics.ObserveStoreQuery("user_by_id", time.Since(start))

	if role != "" && user.Role != role {
		return nil, appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return user, nil
}

func (s *AnalyticsService) fetchActivities(ctx context.Context, studentID string) ([]models.Activity, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	start := time.Now()
	activities, err := s.activities.ListByStudent(ctx, studentID)
	if err != nil {
		s.metrics.RecordStoreFailure("activities")
		return nil, appErrors.Unavailable(err, "Failed to load activities")
	}
	s.metrics.ObserveStoreQuery("activities_by_student", time.Since(start))
	return activities, nil
}

func (s *AnalyticsService) fetchFeedback(ctx context.Context, educatorID string) ([]models.Feedback, error) {
	ctx, cancel := s.storeContext(ctx)
	defer cancel()
	start := time.Now()
	feedback, err := s.feedback.ListByEducator(ctx, educatorID)
	if err != nil {
		s.metrics.RecordStoreFailure("feedback")
		return nil, appErrors.Unavailable(err, "Failed to load feedback")
	}
	s.metrics.ObserveStoreQuery("feedback_by_educator", time.Since(start))
	return feedback, nil
}

func (s *AnalyticsService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StoreTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func (s *AnalyticsService) weeklyGoal(user *models.User) int {
	if user.WeeklyGoalMinutes != nil && *user.WeeklyGoalMinutes > 0 {
		return *user.WeeklyGoalMinutes
	}
	return s.cfg.DefaultWeeklyGoalMinutes
}

func (s *AnalyticsService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		// the cache already logged it; serve from the store
		return false
	}
	return hit
}

func (s *AnalyticsService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache analytics report", zap.String("key", key), zap.Error(err))
	}
}

// reportKey resolves the cache key of a report. The generation is read before
// any record is fetched; when it cannot be read the report bypasses the cache.
func (s *AnalyticsService) reportKey(ctx context.Context, variant, subjectID string, ref time.Time) (string, bool) {
	if !s.cache.Enabled() {
		return "", false
	}
	generation, err := s.cache.Generation(ctx, generationKey(variant, subjectID))
	if err != nil {
		return "", false
	}
	return reportCacheKey(variant, subjectID, generation, ref), true
}

// reportCacheKey scopes a report to its subject, write generation and UTC day
// so that the rolling windows never serve a previous day's buckets.
func reportCacheKey(variant, subjectID string, generation int64, ref time.Time) string {
	var builder strings.Builder
	builder.Grow(56)
	builder.WriteString("analytics:")
	builder.WriteString(variant)
	builder.WriteByte(':')
	builder.WriteString(subjectID)
	builder.WriteString(":g")
	builder.WriteString(strconv.FormatInt(generation, 10))
	builder.WriteByte(':')
	builder.WriteString(analytics.DateKey(ref))
	return builder.String()
}

func generationKey(variant, subjectID string) string {
	return "analytics:gen:" + variant + ":" + subjectID
}
