// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"errors"
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
	return &Store{c: db.Collection("projects")}
}

var ErrNotFound = errors.New("project not found")

const defaultDuration = 60 // seconds

// Create inserts a project. The keyframe blob always starts as the empty
// object so it parses unconditionally.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	if p.Duration <= 0 {
		p.Duration = defaultDuration
	}
	if p.Elements == nil {
		p.Elements = []models.Element{}
	}
	p.KeyframesJSON = models.EmptyKeyframes
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, err
	}
	return p, nil
}

// Summary is the lightweight listing shape (no elements, no keyframe blob).
type Summary struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	IsPrivate   bool               `bson:"is_private" json:"is_private"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// ListVisible returns summaries of projects userID owns plus public ones.
func (s *Store) ListVisible(ctx context.Context, userID primitive.ObjectID) ([]Summary, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"is_private": false},
	}}
	proj := options.Find().SetProjection(bson.M{
		"_id": 1, "name": 1, "description": 1, "owner": 1,
		"is_private": 1, "created_at": 1, "updated_at": 1,
	})
	cur, err := s.c.Find(ctx, filter, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update carries the mutable metadata fields. Nil pointers are left
// untouched. KeyframesJSON is deliberately absent: the blob is only ever
// written through SetKeyframesField so a metadata save cannot clobber a
// concurrent keyframe merge.
type Update struct {
	Name        *string
	Description *string
	IsPrivate   *bool
	Duration    *float64
	AudioURL    *string
	Elements    *[]models.Element
}

// ApplyUpdate performs a field-level $set of the provided fields.
func (s *Store) ApplyUpdate(ctx context.Context, id primitive.ObjectID, u Update) (models.Project, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.IsPrivate != nil {
		set["is_private"] = *u.IsPrivate
	}
	if u.Duration != nil {
		set["duration"] = *u.Duration
	}
	if u.AudioURL != nil {
		set["audio_url"] = *u.AudioURL
	}
	if u.Elements != nil {
		set["elements"] = *u.Elements
	}

	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Project
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, after).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, err
	}
	return p, nil
}

// SetKeyframesField writes only the keyframes_json field. This must stay a
// targeted single-field update: a full document replace here would race a
// concurrent elements save and lose it. Returns matched and modified counts
// so the merge engine can judge the write (an identical re-submission
// legitimately matches without modifying).
func (s *Store) SetKeyframesField(ctx context.Context, id primitive.ObjectID, blob string) (matched, modified int64, err error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"keyframes_json": blob}})
	if err != nil {
		return 0, 0, err
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// Delete removes the project. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
