package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "memberpanel/pkg/domain"
	audit "memberpanel/pkg/platform/audit"
	"memberpanel/pkg/platform/audit/outbox"
	txcontext "memberpanel/pkg/platform/tx"
)

const aggregateApplication = "panel_user_application"

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table in the caller's transaction and published to
// Kafka by the outbox relay, for which Store is also the outbox.Source.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// outboxPayload is the JSON structure published to Kafka.
// Field names match audit.Event for proper deserialization by the consumer.
type outboxPayload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	UserID    string `json:"UserID,omitempty"`
	MemberID  string `json:"MemberID,omitempty"`
	Subject   string `json:"Subject"`
	Action    string `json:"Action"`
	Decision  string `json:"Decision,omitempty"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
	ActorID   string `json:"ActorID,omitempty"`
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Category always follows the action.
	category := audit.AuditEvent(event.Action).Category()

	payload := outboxPayload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		MemberID:  event.MemberID,
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
	}
	if !event.UserID.IsNil() {
		payload.UserID = event.UserID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	_, err = txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, eventID, aggregateApplication, event.Subject, event.Action, payloadBytes, time.Now())
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListBySubject returns the events recorded for an application, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, `
		SELECT payload
		FROM outbox
		WHERE aggregate_type = $1 AND aggregate_id = $2
		ORDER BY created_at, id
	`, aggregateApplication, subject)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan outbox payload: %w", err)
		}
		event, err := decodePayload(raw)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return events, nil
}

// FetchUnpublished returns up to limit entries that have not been relayed yet, oldest first.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]outbox.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unpublished outbox: %w", err)
	}
	defer rows.Close()

	var entries []outbox.Entry
	for rows.Next() {
		var e outbox.Entry
		if err := rows.Scan(&e.ID, &e.Key, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, v := range ids {
		keys[i] = v.String()
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE outbox SET published_at = $2
		WHERE id = ANY($1::uuid[]) AND published_at IS NULL
	`, pq.Array(keys), at); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func decodePayload(raw []byte) (audit.Event, error) {
	var p outboxPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return audit.Event{}, fmt.Errorf("decode outbox payload: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("decode outbox timestamp: %w", err)
	}
	event := audit.Event{
		Category:  audit.EventCategory(p.Category),
		Timestamp: ts,
		Subject:   p.Subject,
		Action:    p.Action,
		MemberID:  p.MemberID,
		Decision:  p.Decision,
		Reason:    p.Reason,
		ActorID:   p.ActorID,
		RequestID: p.RequestID,
	}
	if p.UserID != "" {
		userID, err := id.ParseUserID(p.UserID)
		if err != nil {
			return audit.Event{}, fmt.Errorf("decode outbox user id: %w", err)
		}
		event.UserID = userID
	}
	return event, nil
}
