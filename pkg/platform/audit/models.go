package audit

import (
	"context"
	"time"

	id "memberpanel/pkg/domain"
)

// EventCategory classifies audit events by retention and routing needs.
type EventCategory string

const (
	// CategoryCompliance covers decisions that grant or refuse back-office access.
	// These are written fail-closed, in the same transaction as the state change.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for operational visibility.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it transport-agnostic
// so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Subject is the aggregate the event is about (an application id).
	Subject string
	Action  string
	// UserID is the panel account affected, when one exists.
	UserID   id.UserID
	MemberID string
	Decision string
	Reason   string
	// ActorID is the panel user who performed the action.
	ActorID   string
	RequestID string
}

type AuditEvent string

const (
	EventApplicationCreated  AuditEvent = "application_created"
	EventApplicationApproved AuditEvent = "application_approved"
	EventApplicationRejected AuditEvent = "application_rejected"
	EventPanelUserCreated    AuditEvent = "panel_user_created"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventApplicationApproved: CategoryCompliance,
	EventApplicationRejected: CategoryCompliance,
	EventPanelUserCreated:    CategoryCompliance,

	EventApplicationCreated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Append joins the transaction carried by ctx when the
// implementation supports one.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
