// Package sentinel holds the storage facts stores report. Services translate them into
// domain error codes; input validation uses pkg/domain-errors directly.
package sentinel

import "errors"

var (
	// ErrNotFound: no row for the key.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyUsed: a unique key is taken (account email, active application per member).
	ErrAlreadyUsed = errors.New("already used")
	// ErrInvalidState: the stored row is not in a state that allows the write.
	ErrInvalidState = errors.New("invalid state")
)
