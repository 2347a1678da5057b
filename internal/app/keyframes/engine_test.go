// internal/app/keyframes/engine_test.go
package keyframes_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mstepanova/choreolab/internal/app/keyframes"
	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	"github.com/mstepanova/choreolab/internal/app/system/apierrors"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"github.com/mstepanova/choreolab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) (*keyframes.Engine, *projectstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := projectstore.New(db)
	return keyframes.NewEngine(store, zap.NewNop()), store, testutil.NewFixtures(t, db)
}

func TestMergeIntoEmptyProject(t *testing.T) {
	engine, store, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	project := fx.CreateProject(ctx, "Routine", primitive.NewObjectID())

	result, err := engine.Merge(ctx, project.ID, "el1", []keyframes.Input{
		kf(0, 10, 20, 1),
		kf(1, 30, 40, 0.5),
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.Accepted != 2 {
		t.Errorf("Accepted = %d, want 2", result.Accepted)
	}
	if result.TotalKeyframes != 2 {
		t.Errorf("TotalKeyframes = %d, want 2", result.TotalKeyframes)
	}

	stored, err := store.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	m := keyframes.ParseBlob(stored.KeyframesJSON)
	var arr []keyframes.Input
	if err := json.Unmarshal(m["el1"], &arr); err != nil {
		t.Fatalf("stored el1 entry not a keyframe array: %v", err)
	}
	if len(arr) != 2 {
		t.Errorf("stored el1 has %d keyframes, want 2", len(arr))
	}
}

func TestMergeDropsInvalidKeyframes(t *testing.T) {
	engine, store, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	project := fx.CreateProject(ctx, "Routine", primitive.NewObjectID())

	result, err := engine.Merge(ctx, project.ID, "el1", []keyframes.Input{
		kf(0, 1, 1, 1),
		{"time": "not a number"},
		kf(2, 3, 3, 0),
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.Accepted != 2 {
		t.Errorf("Accepted = %d, want 2", result.Accepted)
	}

	stored, _ := store.GetByID(ctx, project.ID)
	var arr []keyframes.Input
	_ = json.Unmarshal(keyframes.ParseBlob(stored.KeyframesJSON)["el1"], &arr)
	if len(arr) != 2 {
		t.Fatalf("stored %d keyframes, want 2", len(arr))
	}
	// Relative order of the survivors is preserved.
	if arr[0]["time"].(float64) != 0 || arr[1]["time"].(float64) != 2 {
		t.Errorf("survivor order wrong: %v", arr)
	}
}

func TestMergeLeavesOtherElementsUntouched(t *testing.T) {
	engine, store, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	// Non-canonical spacing in el2's entry: a merge for el1 must not
	// rewrite these bytes.
	el2Raw := `[{"time":0.5, "position":{"x":3,"y":4}, "opacity":1}]`
	project := fx.CreateProjectWithKeyframes(ctx, "Routine", primitive.NewObjectID(),
		`{"el2":`+el2Raw+`}`)

	if _, err := engine.Merge(ctx, project.ID, "el1", []keyframes.Input{kf(0, 1, 1, 1)}); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	stored, _ := store.GetByID(ctx, project.ID)
	m := keyframes.ParseBlob(stored.KeyframesJSON)
	if len(m) != 2 {
		t.Fatalf("blob has %d entries, want 2", len(m))
	}
	if string(m["el2"]) != el2Raw {
		t.Errorf("el2 entry rewritten:\n got %s\nwant %s", m["el2"], el2Raw)
	}
}

func TestMergeReplacesExistingList(t *testing.T) {
	engine, store, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	project := fx.CreateProject(ctx, "Routine", primitive.NewObjectID())

	if _, err := engine.Merge(ctx, project.ID, "el1", []keyframes.Input{
		kf(0, 1, 1, 1), kf(1, 2, 2, 1), kf(2, 3, 3, 1),
	}); err != nil {
		t.Fatalf("first Merge failed: %v", err)
	}

	result, err := engine.Merge(ctx, project.ID, "el1", []keyframes.Input{kf(5, 9, 9, 0)})
	if err != nil {
		t.Fatalf("second Merge failed: %v", err)
	}
	if result.Accepted != 1 || result.TotalKeyframes != 1 {
		t.Errorf("result = %+v, want Accepted=1 TotalKeyframes=1", result)
	}

	stored, _ := store.GetByID(ctx, project.ID)
	var arr []keyframes.Input
	_ = json.Unmarshal(keyframes.ParseBlob(stored.KeyframesJSON)["el1"], &arr)
	if len(arr) != 1 || arr[0]["time"].(float64) != 5 {
		t.Errorf("stored list not replaced: %v", arr)
	}
}

func TestMergeIdempotent(t *testing.T) {
	engine, store, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	project := fx.CreateProject(ctx, "Routine", primitive.NewObjectID())
	batch := []keyframes.Input{kf(0, 1, 1, 1), kf(1, 2, 2, 0.5)}

	if _, err := engine.Merge(ctx, project.ID, "el1", batch); err != nil {
		t.Fatalf("first Merge failed: %v", err)
	}
	first, _ := store.GetByID(ctx, project.ID)

	// A re-submission of an identical batch matches but modifies nothing;
	// it must still succeed.
	if _, err := engine.Merge(ctx, project.ID, "el1", batch); err != nil {
		t.Fatalf("repeat Merge failed: %v", err)
	}
	second, _ := store.GetByID(ctx, project.ID)

	if first.KeyframesJSON != second.KeyframesJSON {
		t.Errorf("blob changed on identical re-merge:\n first %s\nsecond %s",
			first.KeyframesJSON, second.KeyframesJSON)
	}
}

func TestMergeTwoElementsAccumulate(t *testing.T) {
	engine, _, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	project := fx.CreateProject(ctx, "Routine", primitive.NewObjectID())

	if _, err := engine.Merge(ctx, project.ID, "el1", []keyframes.Input{kf(0, 1, 1, 1), kf(1, 2, 2, 1)}); err != nil {
		t.Fatalf("el1 Merge failed: %v", err)
	}
	result, err := engine.Merge(ctx, project.ID, "el2", []keyframes.Input{kf(0, 5, 5, 0.5)})
	if err != nil {
		t.Fatalf("el2 Merge failed: %v", err)
	}
	if result.TotalKeyframes != 3 {
		t.Errorf("TotalKeyframes = %d, want 3 across both elements", result.TotalKeyframes)
	}
}

func TestMergeEmptyElementID(t *testing.T) {
	engine, _, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	project := fx.CreateProject(ctx, "Routine", primitive.NewObjectID())

	_, err := engine.Merge(ctx, project.ID, "  ", []keyframes.Input{kf(0, 1, 1, 1)})
	if apierrors.KindOf(err) != apierrors.KindValidation {
		t.Errorf("error kind = %v, want validation (err %v)", apierrors.KindOf(err), err)
	}
}

func TestMergeMissingProject(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := testutil.TestContext(t)

	_, err := engine.Merge(ctx, primitive.NewObjectID(), "el1", []keyframes.Input{kf(0, 1, 1, 1)})
	if apierrors.KindOf(err) != apierrors.KindNotFound {
		t.Errorf("error kind = %v, want not-found (err %v)", apierrors.KindOf(err), err)
	}
}

func TestMergeAllInvalidBatch(t *testing.T) {
	engine, store, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	project := fx.CreateProject(ctx, "Routine", primitive.NewObjectID())

	// An all-invalid batch stores an empty list and must not trip the
	// verification check.
	result, err := engine.Merge(ctx, project.ID, "el1", []keyframes.Input{{"time": "bad"}, {}})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if result.Accepted != 0 || result.TotalKeyframes != 0 {
		t.Errorf("result = %+v, want zero accepted", result)
	}

	stored, _ := store.GetByID(ctx, project.ID)
	var arr []keyframes.Input
	if err := json.Unmarshal(keyframes.ParseBlob(stored.KeyframesJSON)["el1"], &arr); err != nil {
		t.Fatalf("el1 entry missing after empty merge: %v", err)
	}
	if len(arr) != 0 {
		t.Errorf("stored %d keyframes, want 0", len(arr))
	}
}

func TestMergeRecoversFromCorruptBlob(t *testing.T) {
	engine, store, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	project := fx.CreateProjectWithKeyframes(ctx, "Routine", primitive.NewObjectID(), "{{{not json")

	result, err := engine.Merge(ctx, project.ID, "el1", []keyframes.Input{kf(0, 1, 1, 1)})
	if err != nil {
		t.Fatalf("Merge over corrupt blob failed: %v", err)
	}
	if result.Accepted != 1 {
		t.Errorf("Accepted = %d, want 1", result.Accepted)
	}

	stored, _ := store.GetByID(ctx, project.ID)
	if len(keyframes.ParseBlob(stored.KeyframesJSON)) != 1 {
		t.Errorf("blob not rebuilt from scratch: %s", stored.KeyframesJSON)
	}
}

// lostWriteStore reports a matched write but never persists anything, so
// every read keeps returning the original empty blob.
type lostWriteStore struct {
	project models.Project
	writes  int
}

func (s *lostWriteStore) GetByID(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	if id != s.project.ID {
		return models.Project{}, projectstore.ErrNotFound
	}
	return s.project, nil
}

func (s *lostWriteStore) SetKeyframesField(ctx context.Context, id primitive.ObjectID, blob string) (int64, int64, error) {
	s.writes++
	return 1, 0, nil
}

func TestMergeSurfacesLostWrite(t *testing.T) {
	store := &lostWriteStore{project: models.Project{
		ID:            primitive.NewObjectID(),
		KeyframesJSON: models.EmptyKeyframes,
	}}
	engine := keyframes.NewEngine(store, zap.NewNop())
	ctx := context.Background()

	_, err := engine.Merge(ctx, store.project.ID, "el1", []keyframes.Input{kf(0, 1, 1, 1)})
	if apierrors.KindOf(err) != apierrors.KindVerification {
		t.Errorf("error kind = %v, want verification (err %v)", apierrors.KindOf(err), err)
	}
	if store.writes != 1 {
		t.Errorf("writes = %d, want 1", store.writes)
	}
}

func TestCompactRemovesStaleEntries(t *testing.T) {
	engine, store, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	project := fx.CreateProjectWithKeyframes(ctx, "Routine", primitive.NewObjectID(),
		`{"live":[{"time":0}],"gone-b":[{"time":1}],"gone-a":[]}`)
	fx.AddElement(ctx, project.ID, models.Element{ID: "live", Type: "rectangle"})

	result, err := engine.Compact(ctx, project.ID)
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if result.Kept != 1 {
		t.Errorf("Kept = %d, want 1", result.Kept)
	}
	if len(result.Removed) != 2 || result.Removed[0] != "gone-a" || result.Removed[1] != "gone-b" {
		t.Errorf("Removed = %v, want [gone-a gone-b] sorted", result.Removed)
	}

	stored, _ := store.GetByID(ctx, project.ID)
	m := keyframes.ParseBlob(stored.KeyframesJSON)
	if len(m) != 1 {
		t.Errorf("blob has %d entries after compaction, want 1", len(m))
	}
	if _, ok := m["live"]; !ok {
		t.Error("live entry removed by compaction")
	}
}

func TestCompactNoopWhenNothingStale(t *testing.T) {
	engine, store, fx := newTestEngine(t)
	ctx := testutil.TestContext(t)

	blob := `{"live":[{"time":0}]}`
	project := fx.CreateProjectWithKeyframes(ctx, "Routine", primitive.NewObjectID(), blob)
	fx.AddElement(ctx, project.ID, models.Element{ID: "live", Type: "circle"})

	result, err := engine.Compact(ctx, project.ID)
	if err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	if len(result.Removed) != 0 || result.Kept != 1 {
		t.Errorf("result = %+v, want no removals", result)
	}

	stored, _ := store.GetByID(ctx, project.ID)
	if stored.KeyframesJSON != blob {
		t.Errorf("no-op compaction rewrote the blob: %s", stored.KeyframesJSON)
	}
}

func TestCompactMissingProject(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := testutil.TestContext(t)

	_, err := engine.Compact(ctx, primitive.NewObjectID())
	if apierrors.KindOf(err) != apierrors.KindNotFound {
		t.Errorf("error kind = %v, want not-found (err %v)", apierrors.KindOf(err), err)
	}
}
