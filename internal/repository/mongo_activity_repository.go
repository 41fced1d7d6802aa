package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

// MongoActivityRepository persists activities in the legacy activities collection.
type MongoActivityRepository struct {
	db *mongo.Database
}

// NewMongoActivityRepository constructs a MongoActivityRepository.
func NewMongoActivityRepository(db *mongo.Database) *MongoActivityRepository {
	return &MongoActivityRepository{db: db}
}

// ListByStudent returns every activity of a student, most recent first.
func (r *MongoActivityRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Activity, error) {
	oid, err := objectID(studentID)
	if err != nil {
		return []models.Activity{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.db.Collection(activitiesCollection).Find(ctx, bson.M{"student": oid}, opts)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	var docs []activityDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	activities := make([]models.Activity, 0, len(docs))
	for _, doc := range docs {
		activities = append(activities, doc.toModel())
	}
	return activities, nil
}

// FindByID returns a single activity.
func (r *MongoActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc activityDocument
	if err := r.db.Collection(activitiesCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find activity: %w", err)
	}
	activity := doc.toModel()
	return &activity, nil
}

// Create inserts a new activity.
func (r *MongoActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	doc, err := activityDocumentFrom(activity)
	if err != nil {
		return err
	}
	if _, err := r.db.Collection(activitiesCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an activity.
func (r *MongoActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	oid, err := objectID(activity.ID)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"subject":   activity.Subject,
		"topic":     activity.Topic,
		"duration":  activity.DurationMinutes,
		"status":    string(activity.Status),
		"notes":     activity.Notes,
		"date":      activity.OccurredAt,
		"updatedAt": activity.UpdatedAt,
	}}
	res, err := r.db.Collection(activitiesCollection).UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	if res.MatchedCount == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

// Delete removes an activity.
func (r *MongoActivityRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.db.Collection(activitiesCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if res.DeletedCount == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}
