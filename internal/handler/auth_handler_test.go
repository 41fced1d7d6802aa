package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

func TestAuthLoginIsPublic(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "signed", body["token"])
	assert.Equal(t, studentID, body["_id"])
}

func TestAuthAdminLoginRejectsNonAdmins(t *testing.T) {
	ts := newTestServer()
	ts.auth.err = appErrors.Clone(appErrors.ErrUnauthorized, "Not authorized as an admin")

	rec := ts.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"email": "ana@example.com", "password": "secret1"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized as an admin", decodeMessage(t, rec))
}

func TestAuthInvalidTokenRejected(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/auth/me", "forged", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, token failed", decodeMessage(t, rec))
}

func TestAuthUpdateProfileReportsGoalInHours(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPut, "/api/auth/profile", "student", map[string]interface{}{"weeklyGoal": 12})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(12), body["weeklyGoal"])
	assert.Equal(t, "Ana", body["name"])
}

func TestAuthRegisterIsPublic(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ben", "email": "ben@example.com", "password": "secret1", "role": "educator", "collegeId": "C-7",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "signed", body["token"])
	assert.Equal(t, "educator", body["role"])
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer()
	ts.auth.err = appErrors.Clone(appErrors.ErrConflict, "User already exists")

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret1",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists", decodeMessage(t, rec))
}

func TestAuthHeartbeatRequiresToken(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/auth/heartbeat", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ts.auth.touched)

	rec = ts.do(t, http.MethodPost, "/api/auth/heartbeat", "educator", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, educatorID, ts.auth.touched)
	assert.Equal(t, "Heartbeat recorded", decodeMessage(t, rec))
}
