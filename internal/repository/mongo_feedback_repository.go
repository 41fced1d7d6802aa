package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

// MongoFeedbackRepository persists feedback in the legacy feedbacks collection.
type MongoFeedbackRepository struct {
	db *mongo.Database
}

// NewMongoFeedbackRepository constructs a MongoFeedbackRepository.
func NewMongoFeedbackRepository(db *mongo.Database) *MongoFeedbackRepository {
	return &MongoFeedbackRepository{db: db}
}

func (r *MongoFeedbackRepository) find(ctx context.Context, filter bson.M, sortDir int) ([]feedbackDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: sortDir}, {Key: "_id", Value: sortDir}})
	cursor, err := r.db.Collection(feedbackCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []feedbackDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListByEducator returns every feedback entry authored by the educator in creation order.
func (r *MongoFeedbackRepository) ListByEducator(ctx context.Context, educatorID string) ([]models.Feedback, error) {
	oid, err := objectID(educatorID)
	if err != nil {
		return []models.Feedback{}, nil
	}
	docs, err := r.find(ctx, bson.M{"educator": oid}, 1)
	if err != nil {
		return nil, fmt.Errorf("list feedback by educator: %w", err)
	}
	items := make([]models.Feedback, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toModel())
	}
	return items, nil
}

// ListForStudent returns the feedback addressed to a student with the author populated, newest first.
func (r *MongoFeedbackRepository) ListForStudent(ctx context.Context, studentID string) ([]models.FeedbackWithEducator, error) {
	oid, err := objectID(studentID)
	if err != nil {
		return []models.FeedbackWithEducator{}, nil
	}
	docs, err := r.find(ctx, bson.M{"student": oid}, -1)
	if err != nil {
		return nil, fmt.Errorf("list feedback for student: %w", err)
	}
	if len(docs) == 0 {
		return []models.FeedbackWithEducator{}, nil
	}

	authorIDs := make([]primitive.ObjectID, 0, len(docs))
	seen := make(map[primitive.ObjectID]struct{}, len(docs))
	for _, doc := range docs {
		if _, ok := seen[doc.Educator]; ok {
			continue
		}
		seen[doc.Educator] = struct{}{}
		authorIDs = append(authorIDs, doc.Educator)
	}
	opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1})
	cursor, err := r.db.Collection(usersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": authorIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("load feedback authors: %w", err)
	}
	var authors []userDocument
	if err := cursor.All(ctx, &authors); err != nil {
		return nil, fmt.Errorf("decode feedback authors: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.UserRef, len(authors))
	for _, author := range authors {
		byID[author.ID] = models.UserRef{ID: author.ID.Hex(), Name: author.Name, Email: author.Email}
	}

	items := make([]models.FeedbackWithEducator, 0, len(docs))
	for _, doc := range docs {
		ref, ok := byID[doc.Educator]
		if !ok {
			ref = models.UserRef{ID: doc.Educator.Hex()}
		}
		items = append(items, models.FeedbackWithEducator{Feedback: doc.toModel(), Educator: ref})
	}
	return items, nil
}

// Create inserts a feedback entry.
func (r *MongoFeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	id, err := primitive.ObjectIDFromHex(feedback.ID)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid feedback id")
	}
	student, err := primitive.ObjectIDFromHex(feedback.StudentID)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid student id")
	}
	educator, err := primitive.ObjectIDFromHex(feedback.EducatorID)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid educator id")
	}
	doc := feedbackDocument{
		ID:        id,
		Student:   student,
		Educator:  educator,
		Message:   feedback.Message,
		CreatedAt: feedback.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := r.db.Collection(feedbackCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}
