package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "memberpanel/pkg/platform/audit"
	"memberpanel/pkg/platform/audit/store/memory"
	"memberpanel/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }
func (failingStore) ListBySubject(context.Context, string) ([]audit.Event, error) {
	return nil, nil
}

func TestPublisher_Emit(t *testing.T) {
	ctx := context.Background()

	t.Run("fills category timestamp and request id from context", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := New(store)
		at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
		reqCtx := requestcontext.WithRequestID(requestcontext.WithTime(ctx, at), "req-7")

		err := pub.Emit(reqCtx, audit.Event{Subject: "app-1", Action: string(audit.EventApplicationApproved)})
		require.NoError(t, err)

		events, err := store.ListBySubject(ctx, "app-1")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.Equal(t, at, events[0].Timestamp)
		assert.Equal(t, "req-7", events[0].RequestID)
	})

	t.Run("keeps caller supplied values", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		err := New(store).Emit(ctx, audit.Event{
			Subject: "app-2", Action: string(audit.EventApplicationCreated), Timestamp: at, RequestID: "given",
		})
		require.NoError(t, err)

		events, _ := store.ListBySubject(ctx, "app-2")
		require.Len(t, events, 1)
		assert.Equal(t, at, events[0].Timestamp)
		assert.Equal(t, "given", events[0].RequestID)
		assert.Equal(t, audit.CategoryOperations, events[0].Category)
	})

	t.Run("requires subject and action", func(t *testing.T) {
		pub := New(memory.NewInMemoryStore())
		assert.ErrorIs(t, pub.Emit(ctx, audit.Event{Action: "x"}), errMissingSubject)
		assert.ErrorIs(t, pub.Emit(ctx, audit.Event{Subject: "x"}), errMissingAction)
	})

	t.Run("fails closed when the store fails", func(t *testing.T) {
		pub := New(failingStore{})
		err := pub.Emit(ctx, audit.Event{Subject: "app-1", Action: string(audit.EventApplicationRejected)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Contains(t, err.Error(), string(audit.EventApplicationRejected))
	})
}
