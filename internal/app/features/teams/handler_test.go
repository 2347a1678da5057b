// internal/app/features/teams/handler_test.go
package teams_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	teamsfeature "github.com/mstepanova/choreolab/internal/app/features/teams"
	historystore "github.com/mstepanova/choreolab/internal/app/store/history"
	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	teamstore "github.com/mstepanova/choreolab/internal/app/store/teams"
	userstore "github.com/mstepanova/choreolab/internal/app/store/users"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"github.com/mstepanova/choreolab/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	h       *teamsfeature.Handler
	teams   *teamstore.Store
	history *historystore.Store
	fx      *testutil.Fixtures
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	teams := teamstore.New(db)
	history := historystore.New(db)
	h := teamsfeature.NewHandler(teams, userstore.New(db), projectstore.New(db), history, zap.NewNop())
	return &env{h: h, teams: teams, history: history, fx: testutil.NewFixtures(t, db)}
}

func TestCreateTeamStripsMarkup(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	owner := e.fx.CreateUser(ctx, "owner", "owner@example.com")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/teams", map[string]any{
		"name":        "<script>x</script>Crew",
		"description": "<em>weekly</em> practice",
	})
	req = testutil.WithUser(req, owner)
	rec := httptest.NewRecorder()
	e.h.HandleCreate(rec, req)

	testutil.AssertStatus(t, rec, http.StatusCreated)
	var created models.Team
	testutil.DecodeJSON(t, rec, &created)
	if created.Name != "Crew" {
		t.Errorf("Name = %q, want script stripped", created.Name)
	}
	if created.Owner != owner.ID {
		t.Errorf("Owner = %v, want %v", created.Owner, owner.ID)
	}
}

func TestAddMemberRecordsHistory(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	owner := e.fx.CreateUser(ctx, "owner", "owner@example.com")
	member := e.fx.CreateUser(ctx, "member", "member@example.com")
	team := e.fx.CreateTeam(ctx, "Crew", owner.ID)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/teams/"+team.ID.Hex()+"/members", map[string]any{
		"userId": member.ID.Hex(),
		"role":   "editor",
	})
	req = testutil.WithChiURLParam(testutil.WithUser(req, owner), "teamID", team.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleAddMember(rec, req)

	testutil.AssertStatus(t, rec, http.StatusOK)

	entries, err := e.history.ListForUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("listing history: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != models.ActionTeamMemberAdded {
		t.Errorf("history = %+v, want one member-added entry", entries)
	}
}

func TestAddMemberRejectsUnknownUser(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	owner := e.fx.CreateUser(ctx, "owner", "owner@example.com")
	team := e.fx.CreateTeam(ctx, "Crew", owner.ID)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/teams/"+team.ID.Hex()+"/members", map[string]any{
		"userId": "64b000000000000000000000",
		"role":   "editor",
	})
	req = testutil.WithChiURLParam(testutil.WithUser(req, owner), "teamID", team.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleAddMember(rec, req)

	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestAddMemberRejectsUnknownRole(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	owner := e.fx.CreateUser(ctx, "owner", "owner@example.com")
	member := e.fx.CreateUser(ctx, "member", "member@example.com")
	team := e.fx.CreateTeam(ctx, "Crew", owner.ID)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/teams/"+team.ID.Hex()+"/members", map[string]any{
		"userId": member.ID.Hex(),
		"role":   "superuser",
	})
	req = testutil.WithChiURLParam(testutil.WithUser(req, owner), "teamID", team.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleAddMember(rec, req)

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	testutil.AssertContains(t, rec, "role must be")
}

func TestUpdateMemberRoleRejectsUnknownRole(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	owner := e.fx.CreateUser(ctx, "owner", "owner@example.com")
	member := e.fx.CreateUser(ctx, "member", "member@example.com")
	team := e.fx.CreateTeamWithMember(ctx, "Crew", owner.ID, member.ID, "viewer")

	req := testutil.NewJSONRequest(t, http.MethodPut, "/teams/"+team.ID.Hex()+"/members/"+member.ID.Hex(), map[string]any{
		"role": "root",
	})
	req = testutil.WithUser(req, owner)
	req = testutil.WithChiURLParam(req, "teamID", team.ID.Hex())
	req = testutil.WithChiURLParam(req, "userID", member.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleUpdateMemberRole(rec, req)

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	testutil.AssertContains(t, rec, "role must be")
}

func TestAddMemberDeniedForEditors(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	owner := e.fx.CreateUser(ctx, "owner", "owner@example.com")
	editor := e.fx.CreateUser(ctx, "editor", "editor@example.com")
	third := e.fx.CreateUser(ctx, "third", "third@example.com")
	team := e.fx.CreateTeamWithMember(ctx, "Crew", owner.ID, editor.ID, "editor")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/teams/"+team.ID.Hex()+"/members", map[string]any{
		"userId": third.ID.Hex(),
		"role":   "viewer",
	})
	req = testutil.WithChiURLParam(testutil.WithUser(req, editor), "teamID", team.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleAddMember(rec, req)

	testutil.AssertStatus(t, rec, http.StatusForbidden)
	testutil.AssertContains(t, rec, "insufficient")
}

func TestRemoveAdminRequiresOwner(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	owner := e.fx.CreateUser(ctx, "owner", "owner@example.com")
	admin1 := e.fx.CreateUser(ctx, "admin1", "admin1@example.com")
	admin2 := e.fx.CreateUser(ctx, "admin2", "admin2@example.com")
	team := e.fx.CreateTeam(ctx, "Crew", owner.ID)
	if _, err := e.teams.AddMember(ctx, team.ID, admin1.ID, "admin"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if _, err := e.teams.AddMember(ctx, team.ID, admin2.ID, "admin"); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	// An admin cannot remove a fellow admin.
	req := httptest.NewRequest(http.MethodDelete, "/teams/"+team.ID.Hex()+"/members/"+admin2.ID.Hex(), nil)
	req = testutil.WithUser(req, admin1)
	req = testutil.WithChiURLParam(req, "teamID", team.ID.Hex())
	req = testutil.WithChiURLParam(req, "userID", admin2.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleRemoveMember(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	// The owner can.
	req = httptest.NewRequest(http.MethodDelete, "/teams/"+team.ID.Hex()+"/members/"+admin2.ID.Hex(), nil)
	req = testutil.WithUser(req, owner)
	req = testutil.WithChiURLParam(req, "teamID", team.ID.Hex())
	req = testutil.WithChiURLParam(req, "userID", admin2.ID.Hex())
	rec = httptest.NewRecorder()
	e.h.HandleRemoveMember(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestDeleteTeamOwnerOnly(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	owner := e.fx.CreateUser(ctx, "owner", "owner@example.com")
	admin := e.fx.CreateUser(ctx, "admin", "admin@example.com")
	team := e.fx.CreateTeamWithMember(ctx, "Crew", owner.ID, admin.ID, "admin")

	// Admin passes the admin gate but is still refused: delete is owner-only.
	req := httptest.NewRequest(http.MethodDelete, "/teams/"+team.ID.Hex(), nil)
	req = testutil.WithChiURLParam(testutil.WithUser(req, admin), "teamID", team.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleDelete(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	req = httptest.NewRequest(http.MethodDelete, "/teams/"+team.ID.Hex(), nil)
	req = testutil.WithChiURLParam(testutil.WithUser(req, owner), "teamID", team.ID.Hex())
	rec = httptest.NewRecorder()
	e.h.HandleDelete(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestViewTeamRequiresMembership(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	owner := e.fx.CreateUser(ctx, "owner", "owner@example.com")
	stranger := e.fx.CreateUser(ctx, "stranger", "stranger@example.com")
	team := e.fx.CreateTeam(ctx, "Crew", owner.ID)

	req := httptest.NewRequest(http.MethodGet, "/teams/"+team.ID.Hex(), nil)
	req = testutil.WithChiURLParam(testutil.WithUser(req, stranger), "teamID", team.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.ServeByID(rec, req)

	testutil.AssertStatus(t, rec, http.StatusForbidden)
	testutil.AssertContains(t, rec, "not-a-member")
}

func TestTeamProjectGatesByCapability(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)
	owner := e.fx.CreateUser(ctx, "owner", "owner@example.com")
	viewer := e.fx.CreateUser(ctx, "viewer", "viewer@example.com")
	project := e.fx.CreateProject(ctx, "Routine", owner.ID)
	team := e.fx.CreateTeamWithMember(ctx, "Crew", owner.ID, viewer.ID, "viewer")
	e.fx.AttachProject(ctx, team.ID, project.ID)

	base := "/teams/" + team.ID.Hex() + "/projects/" + project.ID.Hex()

	// Viewer access to the viewer endpoint.
	req := httptest.NewRequest(http.MethodGet, base+"/viewer", nil)
	req = testutil.WithUser(req, viewer)
	req = testutil.WithChiURLParam(req, "teamID", team.ID.Hex())
	req = testutil.WithChiURLParam(req, "projectID", project.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.ServeProjectViewer(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	// But not to the constructor endpoint.
	req = httptest.NewRequest(http.MethodGet, base+"/constructor", nil)
	req = testutil.WithUser(req, viewer)
	req = testutil.WithChiURLParam(req, "teamID", team.ID.Hex())
	req = testutil.WithChiURLParam(req, "projectID", project.ID.Hex())
	rec = httptest.NewRecorder()
	e.h.ServeProjectConstructor(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}
