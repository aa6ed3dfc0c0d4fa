package models

import (
	"strings"

	dErrors "memberpanel/pkg/domain-errors"
)

// Status is the review state of a panel user application.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus accepts the wire form case-insensitively.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of PENDING, APPROVED, REJECTED")
	}
	return s, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo allows PENDING -> APPROVED and PENDING -> REJECTED only.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusPending && target.IsTerminal()
}

func (s Status) String() string {
	return string(s)
}
