// internal/app/policy/projectpolicy/projectpolicy.go

// Package projectpolicy gates access to a project reached through its
// owning team.
//
// Canonical capability policy, applied uniformly here and in the routing
// layer: viewer and above may open the viewer, editor and above may use the
// constructor. (Earlier revisions of the product required admin for the
// constructor on the server path while the client gated at editor; one rule
// now holds everywhere.)
package projectpolicy

import (
	"context"

	"github.com/mstepanova/choreolab/internal/app/policy/teampolicy"
	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	teamstore "github.com/mstepanova/choreolab/internal/app/store/teams"
	"github.com/mstepanova/choreolab/internal/app/system/roles"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ViewerCapability and ConstructorCapability are the two call sites'
// required capabilities.
const (
	ViewerCapability      = roles.Viewer
	ConstructorCapability = roles.Editor
)

// CanAccessProject checks whether userID may act on projectID at the given
// capability. The project's existence is verified first, then the owning
// team is resolved; both absences are denials with distinct reasons. The
// project owner passes regardless of team placement.
func CanAccessProject(ctx context.Context, teams *teamstore.Store, projects *projectstore.Store,
	projectID, userID primitive.ObjectID, need roles.Capability) (teampolicy.Decision, error) {

	project, err := projects.GetByID(ctx, projectID)
	if err != nil {
		if err == projectstore.ErrNotFound {
			return teampolicy.Decision{Reason: teampolicy.ReasonProjectNotFound}, nil
		}
		return teampolicy.Decision{}, err
	}
	if project.Owner == userID {
		return teampolicy.Decision{Allowed: true, Role: roles.Owner}, nil
	}

	team, err := teams.FindByProject(ctx, projectID)
	if err != nil {
		if err == teamstore.ErrNotFound {
			return teampolicy.Decision{Reason: teampolicy.ReasonTeamNotFound}, nil
		}
		return teampolicy.Decision{}, err
	}
	return teampolicy.Check(team, userID, need), nil
}
