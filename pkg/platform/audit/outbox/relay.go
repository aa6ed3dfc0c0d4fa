// Package outbox relays audit events committed to the outbox table to an external sink.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Entry is one committed, not yet published outbox row.
type Entry struct {
	ID        uuid.UUID
	Key       string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// Source reads pending entries and records their publication.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Sink delivers entries downstream. Delivery is at-least-once: a batch may be
// republished if marking fails after a successful publish.
type Sink interface {
	Publish(ctx context.Context, entries []Entry) error
}

const (
	defaultBatchSize    = 100
	defaultPollInterval = 2 * time.Second
)

// Relay polls the Source and forwards batches to the Sink.
type Relay struct {
	source       Source
	sink         Sink
	logger       *slog.Logger
	batchSize    int
	pollInterval time.Duration
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func NewRelay(source Source, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		source:       source,
		sink:         sink,
		logger:       slog.Default(),
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains the outbox until ctx is cancelled. Batch failures are logged and retried on
// the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				n, err := r.RunOnce(ctx)
				if err != nil {
					r.logger.ErrorContext(ctx, "outbox relay batch failed", "error", err)
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// RunOnce publishes a single batch and returns how many entries it relayed.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	entries, err := r.source.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := r.sink.Publish(ctx, entries); err != nil {
		return 0, err
	}
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := r.source.MarkPublished(ctx, ids, time.Now()); err != nil {
		return 0, err
	}
	return len(entries), nil
}
