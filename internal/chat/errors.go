package chat

import "errors"

var (
	ErrChatNotFound  = errors.New("chat not found")
	ErrModelNotFound = errors.New("model not found")

	// ErrAccessDenied covers both non-participants and participants lacking
	// the role for an operation (e.g. a client trying to block).
	ErrAccessDenied = errors.New("access denied")

	ErrBlockReasonRequired = errors.New("block reason required")
	ErrEmptyMessage        = errors.New("message content required")
	ErrMessageTooLong      = errors.New("message content too long")

	// ErrConflict means an optimistic status guard lost a race with a
	// concurrent transition; callers may retry or re-fetch.
	ErrConflict = errors.New("chat was modified concurrently")
)

// QuotaExceededError refuses a client message once the free allowance is
// spent on an unpaid chat. Reason is the curated user-facing string.
type QuotaExceededError struct {
	Reason string
}

func (e *QuotaExceededError) Error() string { return e.Reason }

// SendRefusedError refuses a message on a chat that is not currently
// writable (blocked, expired, closed).
type SendRefusedError struct {
	Reason string
}

func (e *SendRefusedError) Error() string { return e.Reason }
