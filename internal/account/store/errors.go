package store

import (
	"fmt"

	"memberpanel/pkg/platform/sentinel"
)

// Uniqueness violations reported by Create. Both wrap sentinel.ErrAlreadyUsed.
var (
	ErrEmailTaken        = fmt.Errorf("email %w", sentinel.ErrAlreadyUsed)
	ErrMemberLinked      = fmt.Errorf("member account %w", sentinel.ErrAlreadyUsed)
	ErrApplicationLinked = fmt.Errorf("application account %w", sentinel.ErrAlreadyUsed)
)
