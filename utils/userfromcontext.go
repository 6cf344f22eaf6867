package utils

import (
	"net/http"

	"ramsy/globals"
)

// GetUserIDFromRequest returns the authenticated user's id from the request
// context, or 0 when no valid token was presented.
func GetUserIDFromRequest(r *http.Request) int {
	ctx := r.Context()
	requestingUserID, ok := ctx.Value(globals.UserIDKey).(int)
	if !ok || requestingUserID == 0 {
		return 0
	}
	return requestingUserID
}
