package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

func TestUserDirectoryOpenToStudents(t *testing.T) {
	ts := newTestServer()
	ts.users.byRole = map[models.UserRole][]models.UserSummary{
		models.RoleEducator: {{ID: educatorID, Name: "Mr. Reyes", Email: "reyes@example.com", Role: models.RoleEducator}},
	}

	rec := ts.do(t, http.MethodGet, "/api/educator/list", "student", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []models.UserSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, educatorID, body[0].ID)
}

func TestUserAdminListsAreAdminOnly(t *testing.T) {
	ts := newTestServer()

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/admin/students", "educator", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/admin/students", "admin", nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/admin/educators", "admin", nil).Code)
}

func TestUserCreateConflict(t *testing.T) {
	ts := newTestServer()
	ts.users.err = appErrors.Clone(appErrors.ErrConflict, "User already exists")

	rec := ts.do(t, http.MethodPost, "/api/admin/users", "admin", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret1", "role": "student",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists", decodeMessage(t, rec))
}

func TestUserCreateReturnsSummary(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/admin/users", "admin", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret1", "role": "educator",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "educator", body["role"])
	assert.NotContains(t, body, "password")
}

func TestUserDeleteReplies(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodDelete, "/api/admin/users/"+studentID, "admin", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, studentID, ts.users.deleted)
	assert.Equal(t, "User removed", decodeMessage(t, rec))
}

func TestUserUpdateIsAdminOnly(t *testing.T) {
	ts := newTestServer()
	payload := map[string]string{"name": "Ana Lim", "email": "ana@example.com", "role": "educator"}

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPut, "/api/admin/users/"+studentID, "educator", payload).Code)
	assert.Empty(t, ts.users.updated)

	rec := ts.do(t, http.MethodPut, "/api/admin/users/"+studentID, "admin", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, studentID, ts.users.updated)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Ana Lim", body["name"])
	assert.Equal(t, "educator", body["role"])
}

func TestUserUpdateMissingUser(t *testing.T) {
	ts := newTestServer()
	ts.users.err = appErrors.Clone(appErrors.ErrNotFound, "User not found")

	rec := ts.do(t, http.MethodPut, "/api/admin/users/"+studentID, "admin", map[string]string{"name": "Ana"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeMessage(t, rec))
}
