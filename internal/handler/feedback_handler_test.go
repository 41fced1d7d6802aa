package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

func TestFeedbackCreateByEducator(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/feedback", "educator", map[string]string{"studentId": studentID, "message": "Keep going"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, educatorID, ts.feedback.author)
}

func TestFeedbackCreateForbiddenForStudents(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/feedback", "student", map[string]string{"studentId": studentID, "message": "hi"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, ts.feedback.author)
}

func TestFeedbackCreateUnknownStudent(t *testing.T) {
	ts := newTestServer()
	ts.feedback.err = appErrors.Clone(appErrors.ErrNotFound, "Student not found")

	rec := ts.do(t, http.MethodPost, "/api/feedback", "admin", map[string]string{"studentId": studentID, "message": "hi"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Student not found", decodeMessage(t, rec))
}

func TestFeedbackInboxForAnyCaller(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/feedback", "student", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
