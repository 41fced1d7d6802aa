package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consistify-api/internal/dto"
	"github.com/noah-isme/consistify-api/internal/middleware"
	"github.com/noah-isme/consistify-api/internal/service"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
	"github.com/noah-isme/consistify-api/pkg/response"
)

func TestAnalyticsSelfUsesCallerIdentity(t *testing.T) {
	ts := newTestServer()
	ts.analytics.cached = true

	rec := ts.do(t, http.MethodGet, "/api/analytics", "student", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, studentID, ts.analytics.lastSubject)
	assert.Equal(t, "HIT", rec.Header().Get(middleware.CacheHeader))

	var body dto.StudentAnalyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.5", body.TotalHours)
}

func TestAnalyticsSelfRequiresToken(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/analytics", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, no token", decodeMessage(t, rec))
}

func TestAnalyticsStudentReportForEducator(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/educator/student/"+studentID+"/analytics", "educator", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, studentID, ts.analytics.lastSubject)
	assert.Equal(t, "MISS", rec.Header().Get(middleware.CacheHeader))
}

func TestAnalyticsStudentReportRejectsStudents(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/educator/student/"+studentID+"/analytics", "student", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, ts.analytics.lastSubject)
}

func TestAnalyticsStudentReportPropagatesNotFound(t *testing.T) {
	ts := newTestServer()
	ts.analytics.err = appErrors.Clone(appErrors.ErrNotFound, "Student not found")

	rec := ts.do(t, http.MethodGet, "/api/admin/students/"+studentID+"/analytics", "admin", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Student not found", decodeMessage(t, rec))
}

func TestAnalyticsEducatorReportIsAdminOnly(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/admin/educators/"+educatorID+"/analytics", "educator", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/admin/educators/"+educatorID+"/analytics", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body dto.EducatorAnalyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.TotalHours)
}

func TestAnalyticsUnavailableSetsRetryAfter(t *testing.T) {
	ts := newTestServer()
	ts.analytics.err = appErrors.Unavailable(errStoreDown, "Failed to load activities")

	rec := ts.do(t, http.MethodGet, "/api/analytics", "student", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, "UNAVAILABLE", rec.Header().Get(response.ErrorCodeHeader))
}

func TestAnalyticsRosterReturnsArray(t *testing.T) {
	ts := newTestServer()
	ts.analytics.roster = []dto.RosterEntry{{ID: studentID, Name: "Ana", ConsistencyScore: 40}}

	rec := ts.do(t, http.MethodGet, "/api/educator/students", "educator", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []dto.RosterEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, 40, body[0].ConsistencyScore)
}

func TestAnalyticsExportStreamsAttachment(t *testing.T) {
	ts := newTestServer()
	ts.exporter.result = &service.ExportResult{Filename: "analytics-2026-10-14.csv", ContentType: "text/csv", Body: []byte("section,label\n")}

	rec := ts.do(t, http.MethodGet, "/api/analytics/export?format=csv", "student", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", ts.exporter.lastFormat)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="analytics-2026-10-14.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "section,label\n", rec.Body.String())
}

func TestAnalyticsSystemSnapshotForAdmin(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/admin/system", "admin", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0.75, body["cacheHitRatio"])
}
