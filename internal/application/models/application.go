package models

import (
	"time"

	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
)

// maxNoteLength bounds request and review notes.
const maxNoteLength = 2000

// Application is the aggregate root for a member's request to become a panel user.
//
// Invariants:
//   - MemberID and RequestedRoleID are set at construction and never change
//   - Status starts PENDING and moves exactly once, to APPROVED or REJECTED
//   - ReviewedBy/ReviewedAt are set iff the application has been reviewed
//   - CreatedUserID is set only on APPROVED applications
//   - RequestNote is fixed at creation
//
// Fields are unexported so the only mutators are Approve and Reject. Stores rebuild
// instances through FromRecord and persist them through Record.
//
// Uniqueness of the active (PENDING or APPROVED) application per member is not an
// aggregate invariant; the service and the store enforce it.
type Application struct {
	id              id.ApplicationID
	memberID        id.MemberID
	requestedRoleID id.RoleID
	requestNote     *string
	status          Status
	reviewedBy      *id.UserID
	reviewedAt      *time.Time
	reviewNote      *string
	createdUserID   *id.UserID
	createdAt       time.Time
	updatedAt       time.Time
}

// Record is the storage snapshot of an Application.
type Record struct {
	ID              id.ApplicationID
	MemberID        id.MemberID
	RequestedRoleID id.RoleID
	RequestNote     *string
	Status          Status
	ReviewedBy      *id.UserID
	ReviewedAt      *time.Time
	ReviewNote      *string
	CreatedUserID   *id.UserID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewApplication builds a PENDING application. The ID stays zero until the store
// assigns one on Create.
func NewApplication(memberID id.MemberID, requestedRoleID id.RoleID, requestNote *string, now time.Time) (*Application, error) {
	if memberID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member id is required")
	}
	if requestedRoleID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requested role id is required")
	}
	note, err := normalizeNote(requestNote, "request note")
	if err != nil {
		return nil, err
	}
	return &Application{
		memberID:        memberID,
		requestedRoleID: requestedRoleID,
		requestNote:     note,
		status:          StatusPending,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// FromRecord rehydrates an application loaded from storage, rejecting snapshots that
// break the aggregate invariants.
func FromRecord(r Record) (*Application, error) {
	if r.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "stored application has no id")
	}
	if r.MemberID.IsNil() || r.RequestedRoleID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "stored application is missing member or role")
	}
	if !r.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "stored application has unknown status "+string(r.Status))
	}
	reviewed := r.ReviewedBy != nil && r.ReviewedAt != nil
	if r.Status.IsTerminal() != reviewed {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "stored application review fields do not match status")
	}
	if r.CreatedUserID != nil && r.Status != StatusApproved {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "only approved applications carry a created user")
	}
	return &Application{
		id:              r.ID,
		memberID:        r.MemberID,
		requestedRoleID: r.RequestedRoleID,
		requestNote:     r.RequestNote,
		status:          r.Status,
		reviewedBy:      r.ReviewedBy,
		reviewedAt:      r.ReviewedAt,
		reviewNote:      r.ReviewNote,
		createdUserID:   r.CreatedUserID,
		createdAt:       r.CreatedAt,
		updatedAt:       r.UpdatedAt,
	}, nil
}

// Record returns a snapshot for persistence.
func (a *Application) Record() Record {
	return Record{
		ID:              a.id,
		MemberID:        a.memberID,
		RequestedRoleID: a.requestedRoleID,
		RequestNote:     a.requestNote,
		Status:          a.status,
		ReviewedBy:      a.reviewedBy,
		ReviewedAt:      a.reviewedAt,
		ReviewNote:      a.reviewNote,
		CreatedUserID:   a.createdUserID,
		CreatedAt:       a.createdAt,
		UpdatedAt:       a.updatedAt,
	}
}

func (a *Application) ID() id.ApplicationID       { return a.id }
func (a *Application) MemberID() id.MemberID      { return a.memberID }
func (a *Application) RequestedRoleID() id.RoleID { return a.requestedRoleID }
func (a *Application) RequestNote() *string       { return a.requestNote }
func (a *Application) Status() Status             { return a.status }
func (a *Application) ReviewedBy() *id.UserID     { return a.reviewedBy }
func (a *Application) ReviewedAt() *time.Time     { return a.reviewedAt }
func (a *Application) ReviewNote() *string        { return a.reviewNote }
func (a *Application) CreatedUserID() *id.UserID  { return a.createdUserID }
func (a *Application) CreatedAt() time.Time       { return a.createdAt }
func (a *Application) UpdatedAt() time.Time       { return a.updatedAt }
func (a *Application) IsPending() bool            { return a.status == StatusPending }
func (a *Application) IsActive() bool             { return a.status == StatusPending || a.status == StatusApproved }

// CanReview checks the PENDING guard shared by Approve and Reject.
func (a *Application) CanReview() error {
	if a.status != StatusPending {
		return dErrors.New(dErrors.CodeInvalidState, "application already processed")
	}
	return nil
}

// Approve moves a PENDING application to APPROVED. createdUserID is the panel account
// provisioned for the member; a nil id leaves it unset.
func (a *Application) Approve(reviewedBy id.UserID, reviewNote *string, createdUserID id.UserID, now time.Time) error {
	if err := a.review(StatusApproved, reviewedBy, reviewNote, now); err != nil {
		return err
	}
	if !createdUserID.IsNil() {
		a.createdUserID = &createdUserID
	}
	return nil
}

// Reject moves a PENDING application to REJECTED. CreatedUserID stays unset.
func (a *Application) Reject(reviewedBy id.UserID, reviewNote *string, now time.Time) error {
	return a.review(StatusRejected, reviewedBy, reviewNote, now)
}

func (a *Application) review(target Status, reviewedBy id.UserID, reviewNote *string, now time.Time) error {
	if err := a.CanReview(); err != nil {
		return err
	}
	if !a.status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvalidState, "application already processed")
	}
	if reviewedBy.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "reviewer is required")
	}
	note, err := normalizeNote(reviewNote, "review note")
	if err != nil {
		return err
	}
	a.status = target
	a.reviewedBy = &reviewedBy
	a.reviewedAt = &now
	a.reviewNote = note
	a.updatedAt = now
	return nil
}

// normalizeNote trims a free-text note; blank becomes nil.
func normalizeNote(note *string, field string) (*string, error) {
	trimmed := trimNote(note)
	if trimmed != nil && len(*trimmed) > maxNoteLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, field+" must be 2000 characters or less")
	}
	return trimmed, nil
}
