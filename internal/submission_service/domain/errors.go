package domain

import "errors"

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrUnknownUser is returned when an action references an unregistered identity.
	ErrUnknownUser = errors.New("user is not registered")
	// ErrValidation wraps malformed input (destination label, admin arguments).
	ErrValidation = errors.New("validation failed")
	// ErrDeliveryFailed wraps broadcast failures. Always retryable.
	ErrDeliveryFailed = errors.New("broadcast delivery failed")
	// ErrLedgerWrite wraps failures of the external ledger.
	ErrLedgerWrite = errors.New("ledger write failed")
)
