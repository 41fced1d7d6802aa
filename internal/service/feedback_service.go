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

type feedbackStore interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.FeedbackWithEducator, error)
	Create(ctx context.Context, feedback *models.Feedback) error
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// FeedbackService records educator feedback and serves the student inbox.
type FeedbackService struct {
	repo        feedbackStore
	users       userFinder
	validator   *validator.Validate
	invalidator *ReportInvalidator
	logger      *zap.Logger
	now         func() time.Time
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(repo feedbackStore, users userFinder, validate *validator.Validate, invalidator *ReportInvalidator, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{
		repo:        repo,
		users:       users,
		validator:   validate,
		invalidator: invalidator,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create stores feedback from the educator to a student.
func (s *FeedbackService) Create(ctx context.Context, educatorID string, req dto.FeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Please provide a student and a message")
	}
	if !primitive.IsValidObjectID(req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid Student ID provided")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
		}
		return nil, appErrors.Unavailable(err, "Failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Student not found")
	}

	feedback := &models.Feedback{
		ID:         primitive.NewObjectID().Hex(),
		StudentID:  student.ID,
		EducatorID: educatorID,
		Message:    req.Message,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Create(ctx, feedback); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Unavailable(err, "Failed to save feedback")
	}
	s.invalidator.Invalidate(ctx, variantEducator, educatorID)
	return feedback, nil
}

// Inbox returns the feedback addressed to the student, newest first.
func (s *FeedbackService) Inbox(ctx context.Context, studentID string) ([]models.FeedbackWithEducator, error) {
	items, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Unavailable(err, "Failed to load feedback")
	}
	if items == nil {
		items = []models.FeedbackWithEducator{}
	}
	return items, nil
}
