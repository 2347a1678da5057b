// internal/app/store/projects/projectstore_test.go
package projectstore_test

import (
	"errors"
	"testing"

	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"github.com/mstepanova/choreolab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) (*projectstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return projectstore.New(db), testutil.NewFixtures(t, db)
}

func TestCreateDefaults(t *testing.T) {
	store, fx := newStore(t)
	ctx := testutil.TestContext(t)

	owner := fx.CreateUser(ctx, "owner", "owner@example.com")

	p, err := store.Create(ctx, models.Project{Name: "Routine", Owner: owner.ID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.KeyframesJSON != models.EmptyKeyframes {
		t.Errorf("KeyframesJSON = %q, want %q", p.KeyframesJSON, models.EmptyKeyframes)
	}
	if p.Duration != 60 {
		t.Errorf("Duration = %v, want default 60", p.Duration)
	}
	if p.Elements == nil {
		t.Error("Elements is nil, want empty slice")
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Routine" || got.Owner != owner.ID {
		t.Errorf("got = %+v", got)
	}
}

func TestCreateKeepsExplicitDuration(t *testing.T) {
	store, fx := newStore(t)
	ctx := testutil.TestContext(t)

	owner := fx.CreateUser(ctx, "owner", "owner@example.com")
	p, err := store.Create(ctx, models.Project{Name: "Long", Owner: owner.ID, Duration: 180})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Duration != 180 {
		t.Errorf("Duration = %v, want 180", p.Duration)
	}
}

func TestCreateResetsIncomingKeyframes(t *testing.T) {
	store, fx := newStore(t)
	ctx := testutil.TestContext(t)

	owner := fx.CreateUser(ctx, "owner", "owner@example.com")
	// A client cannot seed the blob through create; it always starts empty.
	p, err := store.Create(ctx, models.Project{
		Name:          "Seeded",
		Owner:         owner.ID,
		KeyframesJSON: `{"el-1":[{"time":0}]}`,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.KeyframesJSON != models.EmptyKeyframes {
		t.Errorf("KeyframesJSON = %q, want %q", p.KeyframesJSON, models.EmptyKeyframes)
	}
}

func TestGetByIDMissing(t *testing.T) {
	store, _ := newStore(t)
	ctx := testutil.TestContext(t)

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, projectstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListVisible(t *testing.T) {
	store, fx := newStore(t)
	ctx := testutil.TestContext(t)

	alice := fx.CreateUser(ctx, "alice", "alice@example.com")
	bob := fx.CreateUser(ctx, "bob", "bob@example.com")

	mine, err := store.Create(ctx, models.Project{Name: "Mine", Owner: alice.ID, IsPrivate: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	public, err := store.Create(ctx, models.Project{Name: "Public", Owner: bob.ID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Project{Name: "Hidden", Owner: bob.ID, IsPrivate: true}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	out, err := store.ListVisible(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListVisible failed: %v", err)
	}
	got := map[primitive.ObjectID]bool{}
	for _, s := range out {
		got[s.ID] = true
	}
	if len(out) != 2 || !got[mine.ID] || !got[public.ID] {
		t.Errorf("visible = %v, want own private + public", got)
	}
}

func TestApplyUpdatePartial(t *testing.T) {
	store, fx := newStore(t)
	ctx := testutil.TestContext(t)

	owner := fx.CreateUser(ctx, "owner", "owner@example.com")
	p, err := store.Create(ctx, models.Project{Name: "Routine", Description: "v1", Owner: owner.ID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	name := "Renamed"
	priv := true
	got, err := store.ApplyUpdate(ctx, p.ID, projectstore.Update{Name: &name, IsPrivate: &priv})
	if err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}
	if got.Name != "Renamed" || !got.IsPrivate {
		t.Errorf("got = %+v, want renamed private project", got)
	}
	// Untouched fields survive.
	if got.Description != "v1" || got.Duration != 60 {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestApplyUpdateLeavesKeyframesAlone(t *testing.T) {
	store, fx := newStore(t)
	ctx := testutil.TestContext(t)

	owner := fx.CreateUser(ctx, "owner", "owner@example.com")
	blob := `{"el-1":[{"time":1,"position":{"x":2,"y":3},"opacity":1}]}`
	p := fx.CreateProjectWithKeyframes(ctx, "Animated", owner.ID, blob)

	els := []models.Element{{ID: "el-1", Type: "circle"}}
	got, err := store.ApplyUpdate(ctx, p.ID, projectstore.Update{Elements: &els})
	if err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}
	if got.KeyframesJSON != blob {
		t.Errorf("KeyframesJSON = %q, want untouched %q", got.KeyframesJSON, blob)
	}
	if len(got.Elements) != 1 || got.Elements[0].ID != "el-1" {
		t.Errorf("Elements = %+v", got.Elements)
	}
}

func TestApplyUpdateMissing(t *testing.T) {
	store, _ := newStore(t)
	ctx := testutil.TestContext(t)

	name := "x"
	if _, err := store.ApplyUpdate(ctx, primitive.NewObjectID(), projectstore.Update{Name: &name}); !errors.Is(err, projectstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSetKeyframesField(t *testing.T) {
	store, fx := newStore(t)
	ctx := testutil.TestContext(t)

	owner := fx.CreateUser(ctx, "owner", "owner@example.com")
	p := fx.CreateProject(ctx, "Routine", owner.ID)

	blob := `{"el-1":[{"time":0,"position":{"x":0,"y":0},"opacity":1}]}`
	matched, modified, err := store.SetKeyframesField(ctx, p.ID, blob)
	if err != nil {
		t.Fatalf("SetKeyframesField failed: %v", err)
	}
	if matched != 1 || modified != 1 {
		t.Errorf("matched/modified = %d/%d, want 1/1", matched, modified)
	}

	// Writing the identical blob matches without modifying.
	matched, modified, err = store.SetKeyframesField(ctx, p.ID, blob)
	if err != nil {
		t.Fatalf("SetKeyframesField failed: %v", err)
	}
	if matched != 1 || modified != 0 {
		t.Errorf("repeat matched/modified = %d/%d, want 1/0", matched, modified)
	}

	matched, _, err = store.SetKeyframesField(ctx, primitive.NewObjectID(), blob)
	if err != nil {
		t.Fatalf("SetKeyframesField failed: %v", err)
	}
	if matched != 0 {
		t.Errorf("missing project matched = %d, want 0", matched)
	}
}

func TestDelete(t *testing.T) {
	store, fx := newStore(t)
	ctx := testutil.TestContext(t)

	owner := fx.CreateUser(ctx, "owner", "owner@example.com")
	p := fx.CreateProject(ctx, "Routine", owner.ID)

	n, err := store.Delete(ctx, p.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	n, err = store.Delete(ctx, p.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 0 {
		t.Errorf("repeat deleted = %d, want 0", n)
	}
}
