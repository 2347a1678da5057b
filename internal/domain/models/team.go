// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team is a named group of users with one owner and role-tagged members.
//
// Invariants:
//   - The owner is never stored in members; their effective role is always
//     "owner" and is derived, not persisted.
//   - A user appears at most once in members.
//   - Member roles are "admin", "editor", or "viewer" (never "owner").
type Team struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	NameCI      string               `bson:"name_ci" json:"-"`
	Description string               `bson:"description" json:"description"`
	Owner       primitive.ObjectID   `bson:"owner" json:"owner"`
	Members     []TeamMember         `bson:"members" json:"members"`
	Projects    []primitive.ObjectID `bson:"projects" json:"projects"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// TeamMember links one user to a team with a scalar role.
type TeamMember struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role     string             `bson:"role" json:"role"`
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
}

// HasProject reports whether projectID is attached to the team.
func (t Team) HasProject(projectID primitive.ObjectID) bool {
	for _, p := range t.Projects {
		if p == projectID {
			return true
		}
	}
	return false
}
