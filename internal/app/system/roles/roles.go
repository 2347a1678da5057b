// internal/app/system/roles/roles.go

// Package roles derives a user's effective role in a team and defines the
// capability ordering used by every access check in the API.
//
// Resolution is pure: no I/O, no side effects, total for any input. The
// team document is the single source of truth; the owner field always wins
// over whatever the members array says.
package roles

import (
	"strings"

	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is an effective capability level within one team.
// Ordering (least to most privileged): none < viewer < editor < admin < owner.
type Role string

const (
	None   Role = "none"
	Viewer Role = "viewer"
	Editor Role = "editor"
	Admin  Role = "admin"
	Owner  Role = "owner"
)

// Capability is a minimum role required for an operation. Owner is derived,
// never required directly; endpoints ask for viewer, editor, or admin.
type Capability = Role

var rank = map[Role]int{
	None:   0,
	Viewer: 1,
	Editor: 2,
	Admin:  3,
	Owner:  4,
}

// Normalize maps a stored role string to a Role. Unknown or empty values
// normalize to None so a corrupt member record fails closed.
func Normalize(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case Viewer:
		return Viewer
	case Editor:
		return Editor
	case Admin:
		return Admin
	case Owner:
		return Owner
	default:
		return None
	}
}

// IsMemberRole reports whether s is a role that may be stored on a team
// member record. Owner is excluded: it is derived from the team's owner
// field, never persisted as a member role.
func IsMemberRole(s string) bool {
	switch Normalize(s) {
	case Viewer, Editor, Admin:
		return true
	default:
		return false
	}
}

// Resolve computes userID's effective role in team.
//
// The owner check is unconditional and takes precedence over the member
// scan, so a legacy document that erroneously lists the owner in members
// still resolves to Owner. A zero userID or a team with no match returns
// None; malformed input never errors.
func Resolve(team models.Team, userID primitive.ObjectID) Role {
	if userID == primitive.NilObjectID {
		return None
	}
	if team.Owner == userID {
		return Owner
	}
	for _, m := range team.Members {
		if m.UserID == userID {
			return Normalize(m.Role)
		}
	}
	return None
}

// ResolveHex is Resolve for callers holding a hex user id (e.g. straight
// out of an auth token). An unparsable id resolves to None.
func ResolveHex(team models.Team, userID string) Role {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(userID))
	if err != nil {
		return None
	}
	return Resolve(team, oid)
}

// Satisfies reports whether the role meets the required capability.
// Owner passes every check without consulting the rank table.
func (r Role) Satisfies(need Capability) bool {
	if r == Owner {
		return true
	}
	return rank[r] >= rank[need] && rank[need] > 0
}
