// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given username and email.
// The password for every fixture user is "password123".
func (f *Fixtures) CreateUser(ctx context.Context, username, email string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		UsernameCI:   text.Fold(username),
		Email:        email,
		EmailCI:      text.Fold(email),
		PasswordHash: string(hash),
		Teams:        []primitive.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTeam creates a test team owned by ownerID with no members.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, ownerID primitive.ObjectID) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	team := models.Team{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test team description",
		Owner:       ownerID,
		Members:     []models.TeamMember{},
		Projects:    []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	return team
}

// CreateTeamWithMember creates a team owned by ownerID with one extra
// member at the given role.
func (f *Fixtures) CreateTeamWithMember(ctx context.Context, name string, ownerID, memberID primitive.ObjectID, role string) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	team := models.Team{
		ID:     primitive.NewObjectID(),
		Name:   name,
		NameCI: text.Fold(name),
		Owner:  ownerID,
		Members: []models.TeamMember{
			{UserID: memberID, Role: role, JoinedAt: now},
		},
		Projects:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	return team
}

// CreateProject creates a test project with an empty keyframe blob.
func (f *Fixtures) CreateProject(ctx context.Context, name string, ownerID primitive.ObjectID) models.Project {
	f.t.Helper()
	return f.CreateProjectWithKeyframes(ctx, name, ownerID, models.EmptyKeyframes)
}

// CreateProjectWithKeyframes creates a test project with a pre-populated
// keyframe blob.
func (f *Fixtures) CreateProjectWithKeyframes(ctx context.Context, name string, ownerID primitive.ObjectID, keyframesJSON string) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	project := models.Project{
		ID:            primitive.NewObjectID(),
		Name:          name,
		Owner:         ownerID,
		IsPrivate:     false,
		Duration:      60,
		Elements:      []models.Element{},
		KeyframesJSON: keyframesJSON,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("projects").InsertOne(ctx, project); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// FindUser loads a user document directly, bypassing the store layer.
func FindUser(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := db.Collection("users").FindOne(ctx, map[string]any{"_id": id}).Decode(&u)
	return u, err
}

// AddElement appends an element to a project document directly.
func (f *Fixtures) AddElement(ctx context.Context, projectID primitive.ObjectID, el models.Element) {
	f.t.Helper()

	_, err := f.db.Collection("projects").UpdateByID(ctx,
		projectID,
		map[string]any{"$push": map[string]any{"elements": el}})
	if err != nil {
		f.t.Fatalf("failed to add element to test project: %v", err)
	}
}

// AttachProject links a project into a team's projects list directly.
func (f *Fixtures) AttachProject(ctx context.Context, teamID, projectID primitive.ObjectID) {
	f.t.Helper()

	_, err := f.db.Collection("teams").UpdateByID(ctx,
		teamID,
		map[string]any{"$addToSet": map[string]any{"projects": projectID}})
	if err != nil {
		f.t.Fatalf("failed to attach project to test team: %v", err)
	}
}
