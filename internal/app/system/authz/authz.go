// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/mstepanova/choreolab/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the authenticated user's ObjectID, username, and a found
// flag. If no user is present, or the id in the token is malformed, it
// returns NilObjectID and false, so callers can trust that ok=true means a
// valid identity with a usable ObjectID.
func UserCtx(r *http.Request) (userID primitive.ObjectID, username string, ok bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, "", false
	}
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		// Malformed id in a signed token indicates corruption; fail closed.
		return primitive.NilObjectID, "", false
	}
	return oid, u.Username, true
}
