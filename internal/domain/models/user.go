// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can own teams and projects.
//
// NOTE:
//   - Team membership roles are not stored on the user; the team document's
//     members array is authoritative. The teams field is only a back-reference
//     so "my teams" listings don't need a collection scan.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username     string               `bson:"username" json:"username"`
	UsernameCI   string               `bson:"username_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string               `bson:"email" json:"email"`
	EmailCI      string               `bson:"email_ci" json:"-"`
	PasswordHash string               `bson:"password_hash" json:"-"`
	Teams        []primitive.ObjectID `bson:"teams,omitempty" json:"teams,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
