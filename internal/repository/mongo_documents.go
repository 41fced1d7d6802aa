package repository

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

// Collection names of the legacy document store.
const (
	usersCollection      = "users"
	activitiesCollection = "activities"
	feedbackCollection   = "feedbacks"
)

// userDocument mirrors the legacy users collection. weeklyGoal is stored in hours.
type userDocument struct {
	ID         primitive.ObjectID `bson:"_id"`
	Name       string             `bson:"name"`
	Email      string             `bson:"email"`
	Password   string             `bson:"password"`
	Role       string             `bson:"role"`
	WeeklyGoal *float64           `bson:"weeklyGoal,omitempty"`
	CollegeID  string             `bson:"collegeId,omitempty"`
	Department string             `bson:"department,omitempty"`
	LastActive *time.Time         `bson:"lastActive,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

type activityDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Student   primitive.ObjectID `bson:"student"`
	Date      time.Time          `bson:"date"`
	Subject   string             `bson:"subject"`
	Topic     string             `bson:"topic,omitempty"`
	Duration  int                `bson:"duration"`
	Status    string             `bson:"status"`
	Notes     string             `bson:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type feedbackDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Student   primitive.ObjectID `bson:"student"`
	Educator  primitive.ObjectID `bson:"educator"`
	Message   string             `bson:"message"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// objectID parses a hex identifier. Malformed ids cannot match any document.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, appErrors.ErrNotFound
	}
	return oid, nil
}

func (d userDocument) toModel() models.User {
	user := models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         models.UserRole(d.Role),
		CollegeID:    d.CollegeID,
		Department:   d.Department,
		LastActive:   d.LastActive,
		CreatedAt:    d.CreatedAt,
	}
	if d.WeeklyGoal != nil {
		minutes := int(math.Round(*d.WeeklyGoal * 60))
		user.WeeklyGoalMinutes = &minutes
	}
	return user
}

func goalHours(minutes *int) *float64 {
	if minutes == nil {
		return nil
	}
	hours := float64(*minutes) / 60
	return &hours
}

func userDocumentFrom(user *models.User) (userDocument, error) {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return userDocument{}, appErrors.Clone(appErrors.ErrValidation, "invalid user id")
	}
	return userDocument{
		ID:         oid,
		Name:       user.Name,
		Email:      user.Email,
		Password:   user.PasswordHash,
		Role:       string(user.Role),
		WeeklyGoal: goalHours(user.WeeklyGoalMinutes),
		CollegeID:  user.CollegeID,
		Department: user.Department,
		LastActive: user.LastActive,
		CreatedAt:  user.CreatedAt,
	}, nil
}

func (d activityDocument) toModel() models.Activity {
	return models.Activity{
		ID:              d.ID.Hex(),
		StudentID:       d.Student.Hex(),
		Subject:         d.Subject,
		Topic:           d.Topic,
		DurationMinutes: d.Duration,
		Status:          models.ActivityStatus(d.Status),
		Notes:           d.Notes,
		OccurredAt:      d.Date,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func activityDocumentFrom(activity *models.Activity) (activityDocument, error) {
	oid, err := primitive.ObjectIDFromHex(activity.ID)
	if err != nil {
		return activityDocument{}, appErrors.Clone(appErrors.ErrValidation, "invalid activity id")
	}
	student, err := primitive.ObjectIDFromHex(activity.StudentID)
	if err != nil {
		return activityDocument{}, appErrors.Clone(appErrors.ErrValidation, "invalid student id")
	}
	return activityDocument{
		ID:        oid,
		Student:   student,
		Date:      activity.OccurredAt,
		Subject:   activity.Subject,
		Topic:     activity.Topic,
		Duration:  activity.DurationMinutes,
		Status:    string(activity.Status),
		Notes:     activity.Notes,
		CreatedAt: activity.CreatedAt,
		UpdatedAt: activity.UpdatedAt,
	}, nil
}

func (d feedbackDocument) toModel() models.Feedback {
	return models.Feedback{
		ID:         d.ID.Hex(),
		StudentID:  d.Student.Hex(),
		EducatorID: d.Educator.Hex(),
		Message:    d.Message,
		CreatedAt:  d.CreatedAt,
	}
}
