package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/consistify-api/internal/dto"
	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

type memoryFeedback struct {
	created []models.Feedback
	inbox   []models.FeedbackWithEducator
	err     error
}

func (m *memoryFeedback) ListForStudent(_ context.Context, _ string) ([]models.FeedbackWithEducator, error) {
	return m.inbox, m.err
}

func (m *memoryFeedback) Create(_ context.Context, f *models.Feedback) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *f)
	return nil
}

func TestFeedbackCreate(t *testing.T) {
	users := newStubUsers(student(studentID, "ana"), models.User{ID: educatorID, Role: models.RoleEducator})
	repo := &memoryFeedback{}
	queue := &recordingQueue{}
	svc := NewFeedbackService(repo, users, nil, NewReportInvalidator(queue, nil, zap.NewNop()), zap.NewNop())
	svc.now = func() time.Time { return refNow }

	feedback, err := svc.Create(context.Background(), educatorID, dto.FeedbackRequest{StudentID: studentID, Message: "Keep it up"})
	require.NoError(t, err)
	assert.Equal(t, refNow, feedback.CreatedAt)
	require.Len(t, repo.created, 1)
	assert.Equal(t, educatorID, repo.created[0].EducatorID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, InvalidationPayload{Variant: variantEducator, SubjectID: educatorID}, queue.jobs[0].Payload)
}

func TestFeedbackCreateRejectsUnknownStudent(t *testing.T) {
	users := newStubUsers(models.User{ID: educatorID, Role: models.RoleEducator})
	svc := NewFeedbackService(&memoryFeedback{}, users, nil, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, educatorID, dto.FeedbackRequest{StudentID: studentID, Message: "Hi"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Create(ctx, educatorID, dto.FeedbackRequest{StudentID: educatorID, Message: "Hi"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.Create(ctx, educatorID, dto.FeedbackRequest{StudentID: "abc", Message: "Hi"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, educatorID, dto.FeedbackRequest{StudentID: studentID})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestFeedbackInbox(t *testing.T) {
	repo := &memoryFeedback{}
	svc := NewFeedbackService(repo, newStubUsers(), nil, nil, zap.NewNop())

	items, err := svc.Inbox(context.Background(), studentID)
	require.NoError(t, err)
	assert.NotNil(t, items)

	repo.err = errors.New("down")
	_, err = svc.Inbox(context.Background(), studentID)
	assert.True(t, errors.Is(err, appErrors.ErrUnavailable))
}
