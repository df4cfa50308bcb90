package service

import (
	"errors"
	"fmt"

	"chinchiro/models"
)

// Expected business rejections. These are routine outcomes a caller handles
// and reports to the user; they never indicate a storage fault.
var (
	// ErrInsufficientFunds means a debit would have driven a balance
	// negative. The account is left untouched.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSessionConflict means the channel already holds an active session.
	ErrSessionConflict = errors.New("channel already has an active round")

	// ErrNoSession means no active session exists for the channel.
	ErrNoSession = errors.New("no active round in this channel")

	// ErrCapacityExceeded means the roster is full.
	ErrCapacityExceeded = errors.New("round roster is full")

	// ErrNotPermitted means the caller is neither the host nor an operator.
	ErrNotPermitted = errors.New("only the host or an operator may do this")

	// ErrBatchNotFound means a rollback referenced an unknown batch ID.
	ErrBatchNotFound = errors.New("transaction batch not found")
)

// SessionStateError reports an operation invalid for the session's current
// phase, such as joining after the round started. Session state is never
// mutated when this is returned.
type SessionStateError struct {
	Op    string
	Phase models.SessionPhase
}

func (e *SessionStateError) Error() string {
	return fmt.Sprintf("cannot %s a %s round", e.Op, e.Phase)
}

// CooldownActiveError carries the remaining wait before the user may host or
// join another round.
type CooldownActiveError struct {
	SecondsRemaining int64
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("cooldown active: %d seconds remaining", e.SecondsRemaining)
}

// PersistenceError wraps a genuine storage fault so callers cannot mistake it
// for a business rejection while handling routine errors.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsBusinessError reports whether the error is an expected rejection rather
// than a fault. Faults must propagate; rejections are shown to the user.
func IsBusinessError(err error) bool {
	var stateErr *SessionStateError
	var cooldownErr *CooldownActiveError
	switch {
	case errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrSessionConflict),
		errors.Is(err, ErrNoSession),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrNotPermitted),
		errors.Is(err, ErrBatchNotFound),
		errors.As(err, &stateErr),
		errors.As(err, &cooldownErr):
		return true
	}
	return false
}
