// internal/app/store/history/historystore.go
package historystore

import (
	"context"
	"time"

	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("history")}
}

// listLimit caps the activity feed; the client only renders the latest page.
const listLimit = 50

// Add records one action for a user.
func (s *Store) Add(ctx context.Context, userID, projectID primitive.ObjectID, action, description string) (models.History, error) {
	h := models.History{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		ProjectID:   projectID,
		Action:      action,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, h); err != nil {
		return models.History{}, err
	}
	return h, nil
}

// ListForUser returns the user's most recent entries, newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.History, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(listLimit)
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.History
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
