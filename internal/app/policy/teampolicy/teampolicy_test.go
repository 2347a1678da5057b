// internal/app/policy/teampolicy/teampolicy_test.go
package teampolicy_test

import (
	"testing"

	"github.com/mstepanova/choreolab/internal/app/policy/teampolicy"
	teamstore "github.com/mstepanova/choreolab/internal/app/store/teams"
	"github.com/mstepanova/choreolab/internal/app/system/roles"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"github.com/mstepanova/choreolab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCheckOwner(t *testing.T) {
	owner := primitive.NewObjectID()
	team := models.Team{Owner: owner}

	d := teampolicy.Check(team, owner, roles.Admin)
	if !d.Allowed || d.Role != roles.Owner {
		t.Errorf("owner decision = %+v, want allowed as owner", d)
	}
}

func TestCheckDenials(t *testing.T) {
	owner := primitive.NewObjectID()
	viewer := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	team := models.Team{
		Owner:   owner,
		Members: []models.TeamMember{{UserID: viewer, Role: "viewer"}},
	}

	tests := []struct {
		name       string
		user       primitive.ObjectID
		need       roles.Capability
		allowed    bool
		wantReason teampolicy.Reason
	}{
		{"viewer can view", viewer, roles.Viewer, true, teampolicy.ReasonNone},
		{"viewer cannot edit", viewer, roles.Editor, false, teampolicy.ReasonInsufficientRole},
		{"viewer cannot admin", viewer, roles.Admin, false, teampolicy.ReasonInsufficientRole},
		{"stranger denied", stranger, roles.Viewer, false, teampolicy.ReasonNotMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := teampolicy.Check(team, tt.user, tt.need)
			if d.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v", d.Allowed, tt.allowed)
			}
			if d.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.wantReason)
			}
		})
	}
}

func TestCanAccessTeamMissingTeam(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := teamstore.New(db)

	d, err := teampolicy.CanAccessTeam(ctx, store, primitive.NewObjectID(), primitive.NewObjectID(), roles.Viewer)
	if err != nil {
		t.Fatalf("missing team must be a denial, not an error: %v", err)
	}
	if d.Allowed || d.Reason != teampolicy.ReasonTeamNotFound {
		t.Errorf("decision = %+v, want denial with team-not-found", d)
	}
}

func TestCanAccessTeamMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	store := teamstore.New(db)

	owner := fx.CreateUser(ctx, "owner", "owner@example.com")
	editor := fx.CreateUser(ctx, "editor", "editor@example.com")
	team := fx.CreateTeamWithMember(ctx, "Crew", owner.ID, editor.ID, "editor")

	d, err := teampolicy.CanAccessTeam(ctx, store, team.ID, editor.ID, roles.Editor)
	if err != nil {
		t.Fatalf("CanAccessTeam failed: %v", err)
	}
	if !d.Allowed || d.Role != roles.Editor {
		t.Errorf("decision = %+v, want allowed as editor", d)
	}

	d, err = teampolicy.CanAccessTeam(ctx, store, team.ID, editor.ID, roles.Admin)
	if err != nil {
		t.Fatalf("CanAccessTeam failed: %v", err)
	}
	if d.Allowed || d.Reason != teampolicy.ReasonInsufficientRole {
		t.Errorf("decision = %+v, want insufficient-role denial", d)
	}
}
