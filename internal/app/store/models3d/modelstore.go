// internal/app/store/models3d/modelstore.go

// Package modelstore persists uploaded 3D-model metadata. The original
// system kept this list in process memory; it is a proper collection here
// so uploads survive restarts and multiple instances agree.
package modelstore

import (
	"context"
	"errors"
	"time"

	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("models")}
}

var ErrNotFound = errors.New("model not found")

func (s *Store) Create(ctx context.Context, m models.Model) (models.Model, error) {
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Model{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Model, error) {
	var m models.Model
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Model{}, ErrNotFound
		}
		return models.Model{}, err
	}
	return m, nil
}

func (s *Store) List(ctx context.Context) ([]models.Model, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Model
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the metadata document. The caller deletes the file on disk
// after this succeeds.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
