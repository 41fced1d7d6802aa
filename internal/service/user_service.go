package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/consistify-api/internal/dto"
	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateAccount(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type studentFeedbackLister interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.FeedbackWithEducator, error)
}

// UserService handles account administration and the user directories.
type UserService struct {
	repo        userRepository
	feedback    studentFeedbackLister
	validator   *validator.Validate
	invalidator *ReportInvalidator
	logger      *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, feedback studentFeedbackLister, validate *validator.Validate, invalidator *ReportInvalidator, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, feedback: feedback, validator: validate, invalidator: invalidator, logger: logger}
}

// ListByRole returns the directory projection of every user with the role.
func (s *UserService) ListByRole(ctx context.Context, role models.UserRole) ([]models.UserSummary, error) {
	users, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, appErrors.Unavailable(err, "Failed to load users")
	}
	summaries := make([]models.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, models.UserSummary{
			ID:         user.ID,
			Name:       user.Name,
			Email:      user.Email,
			Role:       user.Role,
			Department: user.Department,
			CreatedAt:  user.CreatedAt,
		})
	}
	return summaries, nil
}

// Create registers a new account with a bcrypt hashed password.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*models.UserSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid user data")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           primitive.NewObjectID().Hex(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         models.UserRole(req.Role),
		CollegeID:    req.CollegeID,
		Department:   req.Department,
		CreatedAt:    time.Now().UTC(),
	}
	if req.WeeklyGoal > 0 {
		minutes := int(math.Round(req.WeeklyGoal * 60))
		user.WeeklyGoalMinutes = &minutes
	}

	if err := s.repo.Create(ctx, user); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Unavailable(err, "Failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return summaryOf(user), nil
}

// Update changes the account fields an admin may edit. A new password is
// rehashed; empty fields keep their stored value.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest) (*models.UserSummary, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid User ID provided")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid user data")
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		user.Email = email
	}
	if req.Role != "" {
		user.Role = models.UserRole(req.Role)
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.UpdateAccount(ctx, user); err != nil {
		var appErr *appErrors.Error
		switch {
		case errors.Is(err, appErrors.ErrNotFound):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		case errors.As(err, &appErr):
			return nil, appErr
		}
		return nil, appErrors.Unavailable(err, "Failed to update user")
	}

	// a role change moves the account between report variants
	s.invalidator.Invalidate(ctx, variantStudent, id)
	s.invalidator.Invalidate(ctx, variantEducator, id)
	s.logger.Info("user updated", zap.String("user_id", id), zap.String("role", string(user.Role)))
	return summaryOf(user), nil
}

// Delete removes an account and retires the cached reports it fed. Deleting a
// student cascades its feedback away, so the authors' reports go too.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if !primitive.IsValidObjectID(id) {
		return appErrors.Clone(appErrors.ErrValidation, "Invalid User ID provided")
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	var authors []string
	if user.Role == models.RoleStudent && s.feedback != nil {
		items, err := s.feedback.ListForStudent(ctx, id)
		if err != nil {
			return appErrors.Unavailable(err, "Failed to delete user")
		}
		authors = feedbackAuthors(items)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return appErrors.Unavailable(err, "Failed to delete user")
	}
	s.invalidator.Invalidate(ctx, variantStudent, id)
	s.invalidator.Invalidate(ctx, variantEducator, id)
	for _, educatorID := range authors {
		s.invalidator.Invalidate(ctx, variantEducator, educatorID)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.Int("feedback_authors", len(authors)))
	return nil
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Unavailable(err, "Failed to load user")
	}
	return user, nil
}

// feedbackAuthors lists the distinct educators in first-seen order.
func feedbackAuthors(items []models.FeedbackWithEducator) []string {
	seen := make(map[string]struct{}, len(items))
	authors := make([]string, 0, len(items))
	for _, item := range items {
		id := item.EducatorID
		if id == "" {
			id = item.Educator.ID
		}
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		authors = append(authors, id)
	}
	return authors
}

func summaryOf(user *models.User) *models.UserSummary {
	return &models.UserSummary{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
		CreatedAt:  user.CreatedAt,
	}
}
