package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/noah-isme/consistify-api/internal/dto"
	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

type activityStore interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Activity, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

// ActivityService manages a student's activity log.
type ActivityService struct {
	repo        activityStore
	validator   *validator.Validate
	invalidator *ReportInvalidator
	logger      *zap.Logger
	now         func() time.Time
}

// NewActivityService constructs an ActivityService.
func NewActivityService(repo activityStore, validate *validator.Validate, invalidator *ReportInvalidator, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		repo:        repo,
		validator:   validate,
		invalidator: invalidator,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns the student's activities, newest first.
func (s *ActivityService) List(ctx context.Context, studentID string) ([]models.Activity, error) {
	activities, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Unavailable(err, "Failed to load activities")
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	return activities, nil
}

// Create logs a new activity for the student.
func (s *ActivityService) Create(ctx context.Context, studentID string, req dto.ActivityRequest) (*models.Activity, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	now := s.now()
	activity := &models.Activity{
		ID:        primitive.NewObjectID().Hex(),
		StudentID: studentID,
		CreatedAt: now,
	}
	applyActivityRequest(activity, req, now)
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, activityStoreError(err, "Failed to save activity")
	}
	s.invalidator.Invalidate(ctx, variantStudent, studentID)
	return activity, nil
}

// Update edits an activity owned by the student.
func (s *ActivityService) Update(ctx context.Context, studentID, activityID string, req dto.ActivityRequest) (*models.Activity, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	activity, err := s.owned(ctx, studentID, activityID)
	if err != nil {
		return nil, err
	}
	applyActivityRequest(activity, req, s.now())
	if err := s.repo.Update(ctx, activity); err != nil {
		return nil, activityStoreError(err, "Failed to update activity")
	}
	s.invalidator.Invalidate(ctx, variantStudent, studentID)
	return activity, nil
}

// Delete removes an activity owned by the student.
func (s *ActivityService) Delete(ctx context.Context, studentID, activityID string) error {
	if _, err := s.owned(ctx, studentID, activityID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, activityID); err != nil {
		return activityStoreError(err, "Failed to delete activity")
	}
	s.invalidator.Invalidate(ctx, variantStudent, studentID)
	return nil
}

func (s *ActivityService) owned(ctx context.Context, studentID, activityID string) (*models.Activity, error) {
	if !primitive.IsValidObjectID(activityID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid Activity ID provided")
	}
	activity, err := s.repo.FindByID(ctx, activityID)
	if err != nil {
		return nil, activityStoreError(err, "Failed to load activity")
	}
	if activity.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "User not authorized")
	}
	return activity, nil
}

func (s *ActivityService) validate(req dto.ActivityRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Please add a subject and duration")
	}
	return nil
}

func applyActivityRequest(activity *models.Activity, req dto.ActivityRequest, now time.Time) {
	activity.Subject = req.Subject
	activity.Topic = req.Topic
	activity.DurationMinutes = req.Duration
	activity.Notes = req.Notes
	activity.Status = models.ActivityStatus(req.Status)
	if activity.Status == "" {
		activity.Status = models.ActivityCompleted
	}
	if req.Date != nil && !req.Date.IsZero() {
		activity.OccurredAt = req.Date.UTC()
	} else if activity.OccurredAt.IsZero() {
		activity.OccurredAt = now
	}
	activity.UpdatedAt = now
}

// activityStoreError keeps not-found and typed errors and marks the rest retryable.
func activityStoreError(err error, message string) error {
	if errors.Is(err, appErrors.ErrNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, "Activity not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Unavailable(err, message)
}
