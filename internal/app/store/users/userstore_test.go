// internal/app/store/users/userstore_test.go
package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/mstepanova/choreolab/internal/app/store/users"
	"github.com/mstepanova/choreolab/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) *userstore.Store {
	t.Helper()
	return userstore.New(testutil.SetupTestDB(t))
}

func TestCreateAndGet(t *testing.T) {
	store := newStore(t)
	ctx := testutil.TestContext(t)

	u, err := store.Create(ctx, "Alice", "Alice@Example.com", "hash")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.UsernameCI != "alice" || u.EmailCI != "alice@example.com" {
		t.Errorf("ci fields = %q / %q, want folded forms", u.UsernameCI, u.EmailCI)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Email != "Alice@Example.com" {
		t.Errorf("Email = %q, want original casing preserved", got.Email)
	}
}

func TestCreateDuplicate(t *testing.T) {
	store := newStore(t)
	ctx := testutil.TestContext(t)

	if _, err := store.Create(ctx, "alice", "alice@example.com", "hash"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Uniqueness is case-insensitive, backed by the ci indexes.
	if _, err := store.Create(ctx, "other", "ALICE@example.com", "hash"); !errors.Is(err, userstore.ErrDuplicate) {
		t.Errorf("duplicate email: err = %v, want ErrDuplicate", err)
	}
	if _, err := store.Create(ctx, "Alice", "new@example.com", "hash"); !errors.Is(err, userstore.ErrDuplicate) {
		t.Errorf("duplicate username: err = %v, want ErrDuplicate", err)
	}
}

func TestFindByEmail(t *testing.T) {
	store := newStore(t)
	ctx := testutil.TestContext(t)

	created, err := store.Create(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.FindByEmail(ctx, "ALICE@Example.COM")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("found %v, want %v", got.ID, created.ID)
	}

	if _, err := store.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("unknown email: err = %v, want ErrNotFound", err)
	}
}

func TestExists(t *testing.T) {
	store := newStore(t)
	ctx := testutil.TestContext(t)

	u, err := store.Create(ctx, "alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ok, err := store.Exists(ctx, u.ID)
	if err != nil || !ok {
		t.Errorf("Exists(created) = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = store.Exists(ctx, primitive.NewObjectID())
	if err != nil || ok {
		t.Errorf("Exists(random) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestList(t *testing.T) {
	store := newStore(t)
	ctx := testutil.TestContext(t)

	if _, err := store.Create(ctx, "alice", "alice@example.com", "hash"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, "bob", "bob@example.com", "hash"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	out, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("listed %d users, want 2", len(out))
	}
	for _, l := range out {
		if l.Username == "" || l.Email == "" {
			t.Errorf("listing entry incomplete: %+v", l)
		}
	}
}
