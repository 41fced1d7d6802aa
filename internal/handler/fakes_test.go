package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consistify-api/internal/dto"
	"github.com/noah-isme/consistify-api/internal/models"
	"github.com/noah-isme/consistify-api/internal/service"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

const (
	studentID  = "64b7f0c2a1b2c3d4e5f60001"
	educatorID = "64b7f0c2a1b2c3d4e5f60002"
	adminID    = "64b7f0c2a1b2c3d4e5f60003"
)

type fakeTokens map[string]*models.JWTClaims

func (f fakeTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := f[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Not authorized, token failed")
	}
	return claims, nil
}

func testTokens() fakeTokens {
	return fakeTokens{
		"student":  {UserID: studentID, Role: models.RoleStudent},
		"educator": {UserID: educatorID, Role: models.RoleEducator},
		"admin":    {UserID: adminID, Role: models.RoleAdmin},
	}
}

type fakeAnalytics struct {
	student     *dto.StudentAnalyticsResponse
	educator    *dto.EducatorAnalyticsResponse
	roster      []dto.RosterEntry
	cached      bool
	err         error
	lastSubject string
}

func (f *fakeAnalytics) SelfReport(_ context.Context, userID string) (*dto.StudentAnalyticsResponse, bool, error) {
	f.lastSubject = userID
	return f.student, f.cached, f.err
}

func (f *fakeAnalytics) StudentReport(_ context.Context, id string) (*dto.StudentAnalyticsResponse, bool, error) {
	f.lastSubject = id
	return f.student, f.cached, f.err
}

func (f *fakeAnalytics) EducatorReport(_ context.Context, id string) (*dto.EducatorAnalyticsResponse, bool, error) {
	f.lastSubject = id
	return f.educator, f.cached, f.err
}

func (f *fakeAnalytics) Roster(context.Context) ([]dto.RosterEntry, error) {
	return f.roster, f.err
}

func (f *fakeAnalytics) SystemMetrics() models.SystemMetrics {
	return models.SystemMetrics{CacheHits: 3, CacheMisses: 1, CacheHitRatio: 0.75}
}

type fakeExporter struct {
	result     *service.ExportResult
	err        error
	lastFormat string
}

func (f *fakeExporter) Export(_ context.Context, _ string, format string) (*service.ExportResult, error) {
	f.lastFormat = format
	return f.result, f.err
}

type fakeActivities struct {
	items   []models.Activity
	err     error
	deleted string
	owner   string
}

func (f *fakeActivities) List(_ context.Context, studentID string) ([]models.Activity, error) {
	f.owner = studentID
	return f.items, f.err
}

func (f *fakeActivities) Create(_ context.Context, studentID string, req dto.ActivityRequest) (*models.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.owner = studentID
	return &models.Activity{ID: "64b7f0c2a1b2c3d4e5f60100", StudentID: studentID, Subject: req.Subject, DurationMinutes: req.Duration}, nil
}

func (f *fakeActivities) Update(_ context.Context, studentID, activityID string, req dto.ActivityRequest) (*models.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Activity{ID: activityID, StudentID: studentID, Subject: req.Subject, DurationMinutes: req.Duration}, nil
}

func (f *fakeActivities) Delete(_ context.Context, _ string, activityID string) error {
	f.deleted = activityID
	return f.err
}

type fakeFeedback struct {
	inbox  []models.FeedbackWithEducator
	err    error
	author string
}

func (f *fakeFeedback) Create(_ context.Context, educatorID string, req dto.FeedbackRequest) (*models.Feedback, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.author = educatorID
	return &models.Feedback{ID: "64b7f0c2a1b2c3d4e5f60200", StudentID: req.StudentID, EducatorID: educatorID, Message: req.Message}, nil
}

func (f *fakeFeedback) Inbox(context.Context, string) ([]models.FeedbackWithEducator, error) {
	return f.inbox, f.err
}

type fakeUsers struct {
	byRole  map[models.UserRole][]models.UserSummary
	err     error
	deleted string
	updated string
}

func (f *fakeUsers) ListByRole(_ context.Context, role models.UserRole) ([]models.UserSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if users, ok := f.byRole[role]; ok {
		return users, nil
	}
	return []models.UserSummary{}, nil
}

func (f *fakeUsers) Create(_ context.Context, req dto.CreateUserRequest) (*models.UserSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.UserSummary{ID: "64b7f0c2a1b2c3d4e5f60300", Name: req.Name, Email: req.Email, Role: models.UserRole(req.Role)}, nil
}

func (f *fakeUsers) Update(_ context.Context, id string, req dto.UpdateUserRequest) (*models.UserSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = id
	return &models.UserSummary{ID: id, Name: req.Name, Email: req.Email, Role: models.UserRole(req.Role)}, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.deleted = id
	return f.err
}

type fakeAuth struct {
	user    *models.User
	err     error
	touched string
}

func (f *fakeAuth) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{ID: studentID, Email: req.Email, Role: models.RoleStudent, Token: "signed"}, nil
}

func (f *fakeAuth) AdminLogin(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{ID: adminID, Email: req.Email, Role: models.RoleAdmin, Token: "signed"}, nil
}

func (f *fakeAuth) Register(_ context.Context, req dto.RegisterRequest) (*models.LoginResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	role := models.RoleStudent
	if req.Role != "" {
		role = models.UserRole(req.Role)
	}
	return &models.LoginResponse{ID: "64b7f0c2a1b2c3d4e5f60400", Name: req.Name, Email: req.Email, Role: role, Token: "signed"}, nil
}

func (f *fakeAuth) Heartbeat(_ context.Context, userID string) error {
	f.touched = userID
	return f.err
}

func (f *fakeAuth) Me(context.Context, string) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeAuth) UpdateProfile(_ context.Context, _ string, req dto.UpdateProfileRequest) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	updated := *f.user
	if req.Name != "" {
		updated.Name = req.Name
	}
	if req.WeeklyGoal != nil {
		minutes := int(*req.WeeklyGoal * 60)
		updated.WeeklyGoalMinutes = &minutes
	}
	return &updated, nil
}

type testServer struct {
	engine     *gin.Engine
	analytics  *fakeAnalytics
	exporter   *fakeExporter
	activities *fakeActivities
	feedback   *fakeFeedback
	users      *fakeUsers
	auth       *fakeAuth
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	ts := &testServer{
		analytics:  &fakeAnalytics{student: &dto.StudentAnalyticsResponse{TotalHours: "1.5"}, educator: &dto.EducatorAnalyticsResponse{TotalHours: 2}},
		exporter:   &fakeExporter{},
		activities: &fakeActivities{items: []models.Activity{}},
		feedback:   &fakeFeedback{inbox: []models.FeedbackWithEducator{}},
		users:      &fakeUsers{},
		auth:       &fakeAuth{user: &models.User{ID: studentID, Name: "Ana", Email: "ana@example.com", Role: models.RoleStudent}},
	}
	ts.engine = gin.New()
	RegisterRoutes(ts.engine.Group("/api"), Handlers{
		Auth:      NewAuthHandler(ts.auth),
		Analytics: NewAnalyticsHandler(ts.analytics, ts.exporter),
		Activity:  NewActivityHandler(ts.activities),
		Feedback:  NewFeedbackHandler(ts.feedback),
		User:      NewUserHandler(ts.users),
	}, testTokens())
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}

var errStoreDown = errors.New("connection refused")
