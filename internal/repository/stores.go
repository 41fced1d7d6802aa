package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/noah-isme/consistify-api/internal/models"
)

// UserStore persists accounts.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id, name string, weeklyGoalMinutes *int) error
	UpdateAccount(ctx context.Context, user *models.User) error
	TouchLastActive(ctx context.Context, id string, ts time.Time) error
	Delete(ctx context.Context, id string) error
}

// ActivityStore persists study activities.
type ActivityStore interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Activity, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

// FeedbackStore persists educator feedback.
type FeedbackStore interface {
	ListByEducator(ctx context.Context, educatorID string) ([]models.Feedback, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.FeedbackWithEducator, error)
	Create(ctx context.Context, feedback *models.Feedback) error
}

// Stores bundles one backend's record repositories.
type Stores struct {
	Users      UserStore
	Activities ActivityStore
	Feedback   FeedbackStore
}

// NewPostgresStores builds the relational repositories.
func NewPostgresStores(db *sqlx.DB) Stores {
	return Stores{
		Users:      NewUserRepository(db),
		Activities: NewActivityRepository(db),
		Feedback:   NewFeedbackRepository(db),
	}
}

// NewMongoStores builds the repositories over the legacy collections.
func NewMongoStores(db *mongo.Database) Stores {
	return Stores{
		Users:      NewMongoUserRepository(db),
		Activities: NewMongoActivityRepository(db),
		Feedback:   NewMongoFeedbackRepository(db),
	}
}

var (
	_ UserStore     = (*UserRepository)(nil)
	_ UserStore     = (*MongoUserRepository)(nil)
	_ ActivityStore = (*ActivityRepository)(nil)
	_ ActivityStore = (*MongoActivityRepository)(nil)
	_ FeedbackStore = (*FeedbackRepository)(nil)
	_ FeedbackStore = (*MongoFeedbackRepository)(nil)
)
