// internal/app/policy/teampolicy/teampolicy.go

// Package teampolicy is the access gate for team-scoped operations.
//
// Check is pure: given a loaded team, a user, and a required capability it
// yields an allow/deny decision with a machine-readable reason, so the API
// can tell "you are not a team member" apart from "your role is too low".
// The store-backed wrapper returns an error only for storage faults; a
// business-rule denial is a Decision, never an error.
package teampolicy

import (
	"context"

	teamstore "github.com/mstepanova/choreolab/internal/app/store/teams"
	"github.com/mstepanova/choreolab/internal/app/system/roles"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotMember        Reason = "not-a-member"
	ReasonInsufficientRole Reason = "insufficient-role"
	ReasonTeamNotFound     Reason = "team-not-found"
	ReasonProjectNotFound  Reason = "project-not-found"
)

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed bool
	Role    roles.Role
	Reason  Reason
}

func allow(role roles.Role) Decision {
	return Decision{Allowed: true, Role: role}
}

func deny(role roles.Role, reason Reason) Decision {
	return Decision{Role: role, Reason: reason}
}

// Check resolves the user's role in the team and tests it against the
// required capability. The owner fast path never touches the members array.
func Check(team models.Team, userID primitive.ObjectID, need roles.Capability) Decision {
	if team.Owner == userID {
		return allow(roles.Owner)
	}
	role := roles.Resolve(team, userID)
	if role == roles.None {
		return deny(role, ReasonNotMember)
	}
	if !role.Satisfies(need) {
		return deny(role, ReasonInsufficientRole)
	}
	return allow(role)
}

// CanAccessTeam loads the team and runs Check. A missing team is a denial
// with ReasonTeamNotFound; the error return is reserved for store faults.
func CanAccessTeam(ctx context.Context, teams *teamstore.Store, teamID, userID primitive.ObjectID, need roles.Capability) (Decision, error) {
	team, err := teams.GetByID(ctx, teamID)
	if err != nil {
		if err == teamstore.ErrNotFound {
			return deny(roles.None, ReasonTeamNotFound), nil
		}
		return Decision{}, err
	}
	return Check(team, userID, need), nil
}
