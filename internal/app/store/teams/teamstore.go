// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/mstepanova/choreolab/internal/app/system/roles"
	"github.com/mstepanova/choreolab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store persists team documents. It also holds the users collection so
// team membership changes can keep each user's teams back-reference in sync.
type Store struct {
	c     *mongo.Collection
	users *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("teams"),
		users: db.Collection("users"),
	}
}

var (
	ErrNotFound         = errors.New("team not found")
	ErrDuplicateMember  = errors.New("user is already a member of this team")
	ErrDuplicateProject = errors.New("project is already attached to this team")
	ErrMemberNotFound   = errors.New("user is not a member of this team")
	ErrProjectNotFound  = errors.New("project is not attached to this team")

	// ErrRemoveOwner: the owner can never be removed, regardless of caller.
	ErrRemoveOwner = errors.New("the team owner cannot be removed")
	// ErrRemoveAdmin: only the owner may remove an admin member.
	ErrRemoveAdmin = errors.New("only the team owner can remove an admin")
	// ErrOwnerAsMember: the owner's role is derived, never stored in members.
	ErrOwnerAsMember = errors.New("the team owner cannot be added as a member")

	// ErrBadRole: member roles are a closed set; owner is derived, not assignable.
	ErrBadRole = errors.New(`role must be "admin", "editor", or "viewer"`)
)

// Create inserts a team owned by ownerID. The creator is stored only in the
// owner field; their admin-equivalent rights are derived, so members starts
// empty. The team id is appended to the owner's teams back-reference.
func (s *Store) Create(ctx context.Context, ownerID primitive.ObjectID, name, desc string) (models.Team, error) {
	now := time.Now().UTC()
	t := models.Team{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: desc,
		Owner:       ownerID,
		Members:     []models.TeamMember{},
		Projects:    []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Team{}, err
	}
	if err := s.pushUserTeam(ctx, ownerID, t.ID); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Team{}, ErrNotFound
		}
		return models.Team{}, err
	}
	return t, nil
}

// FindByProject returns the team that owns projectID.
func (s *Store) FindByProject(ctx context.Context, projectID primitive.ObjectID) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"projects": projectID}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Team{}, ErrNotFound
		}
		return models.Team{}, err
	}
	return t, nil
}

// ListForUser returns every team where userID is the owner or a member.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Team, error) {
	cur, err := s.c.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"members.user_id": userID},
	}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var teams []models.Team
	if err := cur.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// UpdateInfo updates name and/or description. Empty name keeps the current one.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, desc string) error {
	set := bson.M{
		"description": desc,
		"updated_at":  time.Now().UTC(),
	}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember appends a role-tagged member. The owner is rejected (their role
// is derived) and a user can appear at most once.
func (s *Store) AddMember(ctx context.Context, teamID, userID primitive.ObjectID, role string) (models.Team, error) {
	if !roles.IsMemberRole(role) {
		return models.Team{}, ErrBadRole
	}
	t, err := s.GetByID(ctx, teamID)
	if err != nil {
		return models.Team{}, err
	}
	if t.Owner == userID {
		return models.Team{}, ErrOwnerAsMember
	}
	for _, m := range t.Members {
		if m.UserID == userID {
			return models.Team{}, ErrDuplicateMember
		}
	}

	member := models.TeamMember{
		UserID:   userID,
		Role:     string(roles.Normalize(role)),
		JoinedAt: time.Now().UTC(),
	}
	// Guard the push with the same not-already-present filter so two
	// concurrent adds cannot both land.
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": teamID, "members.user_id": bson.M{"$ne": userID}},
		bson.M{
			"$push": bson.M{"members": member},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return models.Team{}, err
	}
	if res.ModifiedCount == 0 {
		return models.Team{}, ErrDuplicateMember
	}
	if err := s.pushUserTeam(ctx, userID, teamID); err != nil {
		return models.Team{}, err
	}
	t.Members = append(t.Members, member)
	return t, nil
}

// RemoveMember removes userID from the team. Removing the owner always
// fails; removing an admin member requires the caller to be the owner.
func (s *Store) RemoveMember(ctx context.Context, teamID, userID primitive.ObjectID, callerIsOwner bool) error {
	t, err := s.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if t.Owner == userID {
		return ErrRemoveOwner
	}
	found := false
	for _, m := range t.Members {
		if m.UserID == userID {
			found = true
			if roles.Normalize(m.Role) == roles.Admin && !callerIsOwner {
				return ErrRemoveAdmin
			}
			break
		}
	}
	if !found {
		return ErrMemberNotFound
	}

	_, err = s.c.UpdateByID(ctx, teamID, bson.M{
		"$pull": bson.M{"members": bson.M{"user_id": userID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	return s.pullUserTeam(ctx, userID, teamID)
}

// UpdateMemberRole changes an existing member's role.
func (s *Store) UpdateMemberRole(ctx context.Context, teamID, userID primitive.ObjectID, role string) error {
	if !roles.IsMemberRole(role) {
		return ErrBadRole
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": teamID, "members.user_id": userID},
		bson.M{"$set": bson.M{
			"members.$.role": string(roles.Normalize(role)),
			"updated_at":     time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing team from a missing member.
		if _, err := s.GetByID(ctx, teamID); err != nil {
			return err
		}
		return ErrMemberNotFound
	}
	return nil
}

// AddProject attaches an existing project to the team.
func (s *Store) AddProject(ctx context.Context, teamID, projectID primitive.ObjectID) error {
	t, err := s.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if t.HasProject(projectID) {
		return ErrDuplicateProject
	}
	_, err = s.c.UpdateByID(ctx, teamID, bson.M{
		"$addToSet": bson.M{"projects": projectID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveProject detaches a project from the team.
func (s *Store) RemoveProject(ctx context.Context, teamID, projectID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, teamID, bson.M{
		"$pull": bson.M{"projects": projectID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveProjectFromAll strips projectID from every team that references it.
// Used when the project itself is deleted.
func (s *Store) RemoveProjectFromAll(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"projects": projectID},
		bson.M{"$pull": bson.M{"projects": projectID}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Delete removes the team and pulls its id from the teams back-reference of
// the owner and every member.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	memberIDs := make([]primitive.ObjectID, 0, len(t.Members)+1)
	for _, m := range t.Members {
		memberIDs = append(memberIDs, m.UserID)
	}
	memberIDs = append(memberIDs, t.Owner)

	if _, err := s.users.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": memberIDs}},
		bson.M{"$pull": bson.M{"teams": id}}); err != nil {
		return err
	}

	_, err = s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Store) pushUserTeam(ctx context.Context, userID, teamID primitive.ObjectID) error {
	_, err := s.users.UpdateByID(ctx, userID, bson.M{"$addToSet": bson.M{"teams": teamID}})
	if err != nil && !wafflemongo.IsDup(err) {
		return err
	}
	return nil
}

func (s *Store) pullUserTeam(ctx context.Context, userID, teamID primitive.ObjectID) error {
	_, err := s.users.UpdateByID(ctx, userID, bson.M{"$pull": bson.M{"teams": teamID}})
	return err
}
