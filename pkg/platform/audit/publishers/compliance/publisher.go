// Package compliance writes lifecycle audit events synchronously. A failed write is returned
// to the caller so the enclosing transaction rolls back with it.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	audit "memberpanel/pkg/platform/audit"
	"memberpanel/pkg/requestcontext"
)

var (
	errMissingSubject = errors.New("audit event has no subject")
	errMissingAction  = errors.New("audit event has no action")
)

// Publisher is the fail-closed audit sink used by the application service.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills the category, timestamp and request id when the caller left them empty, then
// appends the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	switch {
	case event.Subject == "":
		return errMissingSubject
	case event.Action == "":
		return errMissingAction
	}
	event.Category = audit.AuditEvent(event.Action).Category()
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit write failed, operation aborted",
				"action", event.Action,
				"application_id", event.Subject,
				"category", event.Category,
				"error", err,
			)
		}
		return fmt.Errorf("append audit event %s: %w", event.Action, err)
	}
	return nil
}
