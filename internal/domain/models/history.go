// internal/domain/models/history.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// History is one entry in a user's action log.
// Team-level events reuse ProjectID to carry the team id, matching how the
// client groups its activity feed.
type History struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	ProjectID   primitive.ObjectID `bson:"project_id" json:"project_id"`
	Action      string             `bson:"action" json:"action"`
	Description string             `bson:"description" json:"description"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}

// History actions recorded by the API.
const (
	ActionTeamMemberAdded    = "TEAM_MEMBER_ADDED"
	ActionTeamMemberRemoved  = "TEAM_MEMBER_REMOVED"
	ActionTeamProjectUpdated = "TEAM_PROJECT_UPDATED"
)
