// internal/domain/models/model.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Model is uploaded 3D-model metadata. The binary itself lives on disk under
// the configured models directory; Filename is the uuid-based name it was
// stored as.
type Model struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Filename     string             `bson:"filename" json:"filename"`
	OriginalName string             `bson:"original_name" json:"original_name"`
	Size         int64              `bson:"size" json:"size"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
