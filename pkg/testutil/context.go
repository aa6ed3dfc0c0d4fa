package testutil

import (
	"net/http"

	id "memberpanel/pkg/domain"
	"memberpanel/pkg/requestcontext"
)

// WithUserID adds a panel user ID to the request context, as the auth middleware would.
// If the userID is not a valid UUID, it is not added.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsedUserID, err := id.ParseUserID(userID); err == nil {
		return req.WithContext(requestcontext.WithUserID(req.Context(), parsedUserID))
	}
	return req
}
