package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	pending   []Entry
	published []uuid.UUID
	markErr   error
}

func (f *fakeSource) FetchUnpublished(_ context.Context, limit int) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) < limit {
		limit = len(f.pending)
	}
	return append([]Entry{}, f.pending[:limit]...), nil
}

func (f *fakeSource) MarkPublished(_ context.Context, ids []uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.published = append(f.published, ids...)
	f.pending = f.pending[len(ids):]
	return nil
}

func (f *fakeSource) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

type fakeSink struct {
	batches [][]Entry
	err     error
}

func (f *fakeSink) Publish(_ context.Context, entries []Entry) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, entries)
	return nil
}

func newEntries(n int) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{ID: uuid.New(), Key: "app", EventType: "application_created"}
	}
	return entries
}

func TestRelay_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes and marks a batch", func(t *testing.T) {
		source := &fakeSource{pending: newEntries(3)}
		sink := &fakeSink{}
		relay := NewRelay(source, sink, WithBatchSize(2))

		n, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, sink.batches, 1)
		assert.Len(t, source.published, 2)
		assert.Len(t, source.pending, 1)
	})

	t.Run("empty outbox is a no-op", func(t *testing.T) {
		sink := &fakeSink{}
		n, err := NewRelay(&fakeSource{}, sink).RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, sink.batches)
	})

	t.Run("sink failure leaves entries pending", func(t *testing.T) {
		source := &fakeSource{pending: newEntries(1)}
		_, err := NewRelay(source, &fakeSink{err: errors.New("broker down")}).RunOnce(ctx)
		require.Error(t, err)
		assert.Empty(t, source.published)
		assert.Len(t, source.pending, 1)
	})
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := &fakeSource{pending: newEntries(1)}
	sink := &fakeSink{}
	relay := NewRelay(source, sink, WithPollInterval(5*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool { return source.publishedCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
