// Package requestcontext carries request-scoped values (the acting panel user, the request
// id and the request time) through context.Context so services never import net/http.
package requestcontext

import (
	"context"
	"time"

	id "memberpanel/pkg/domain"
)

type key int

const (
	userIDKey key = iota
	requestIDKey
	requestTimeKey
)

// UserID is the authenticated panel user, or the nil UUID when the request is anonymous.
func UserID(ctx context.Context) id.UserID {
	userID, _ := ctx.Value(userIDKey).(id.UserID)
	return userID
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func RequestID(ctx context.Context) string {
	reqID, _ := ctx.Value(requestIDKey).(string)
	return reqID
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now returns the time stamped on the request, or the wall clock outside a request
// (relay, seeding, tests without a fixed time).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
