package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/consistify-api/internal/models"
	appErrors "github.com/noah-isme/consistify-api/pkg/errors"
)

// MongoUserRepository reads and writes accounts in the legacy users collection.
type MongoUserRepository struct {
	db *mongo.Database
}

// NewMongoUserRepository constructs a MongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{db: db}
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	user := doc.toModel()
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	user, err := r.findOne(ctx, bson.M{"_id": oid})
	if err != nil && !errors.Is(err, appErrors.ErrNotFound) {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, err
}

// FindByEmail returns a user by email address.
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil && !errors.Is(err, appErrors.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, err
}

// ListByRole returns every user holding the role, oldest account first.
func (r *MongoUserRepository) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.db.Collection(usersCollection).Find(ctx, bson.M{"role": string(role)}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toModel())
	}
	return users, nil
}

// Create inserts a new user. A duplicate email yields ErrConflict.
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	doc, err := userDocumentFrom(user)
	if err != nil {
		return err
	}
	if _, err := r.db.Collection(usersCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appErrors.Clone(appErrors.ErrConflict, "User already exists")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile updates the editable profile fields of a user.
func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id, name string, weeklyGoalMinutes *int) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"name": name}}
	if hours := goalHours(weeklyGoalMinutes); hours != nil {
		update = bson.M{"$set": bson.M{"name": name, "weeklyGoal": *hours}}
	}
	res, err := r.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

// UpdateAccount rewrites the admin editable fields of a user. A duplicate
// email yields ErrConflict.
func (r *MongoUserRepository) UpdateAccount(ctx context.Context, user *models.User) error {
	oid, err := objectID(user.ID)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"name":     user.Name,
		"email":    user.Email,
		"role":     string(user.Role),
		"password": user.PasswordHash,
	}}
	res, err := r.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appErrors.Clone(appErrors.ErrConflict, "User already exists")
		}
		return fmt.Errorf("update user account: %w", err)
	}
	if res.MatchedCount == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

// TouchLastActive records the most recent sign-in of a user.
func (r *MongoUserRepository) TouchLastActive(ctx context.Context, id string, ts time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	if _, err := r.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"lastActive": ts}}); err != nil {
		return fmt.Errorf("touch last active: %w", err)
	}
	return nil
}

// Delete removes a user along with the activities and feedback referencing it.
func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.db.Collection(usersCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return appErrors.ErrNotFound
	}
	if _, err := r.db.Collection(activitiesCollection).DeleteMany(ctx, bson.M{"student": oid}); err != nil {
		return fmt.Errorf("delete user activities: %w", err)
	}
	filter := bson.M{"$or": bson.A{bson.M{"student": oid}, bson.M{"educator": oid}}}
	if _, err := r.db.Collection(feedbackCollection).DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("delete user feedback: %w", err)
	}
	return nil
}
