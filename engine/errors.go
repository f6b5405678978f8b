/*
errors.go - Centralized error types for the engine

PURPOSE:
  All domain error types in one place. The HTTP boundary maps these onto
  status codes using the classifier helpers at the bottom; nothing outside
  this package invents its own error taxonomy.

ERROR CATEGORIES:
  1. Not-found errors  - Animal/item absent or owned by someone else
  2. Validation errors - Malformed input (missing pet name, bad kind, ...)
  3. Economic errors   - Empty stacks, empty wallets, incompatible items
  4. Persistence errors - Opaque infrastructure failures, never retried here

USAGE:
  if errors.Is(err, engine.ErrNotFound) { ... 404 ... }
  var ve *engine.ValidationError
  if errors.As(err, &ve) { ... surface ve.Messages ... }
*/
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when an animal or item doesn't exist or does
	// not belong to the requesting owner. Ownership failures are
	// indistinguishable from absence on purpose.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrIncompatibleItem is returned when an item cannot be used on the
	// target animal kind.
	ErrIncompatibleItem = errors.New("item not usable on this animal")

	// ErrInsufficientQuantity is returned when an item stack is empty.
	ErrInsufficientQuantity = errors.New("not enough of this item")

	// ErrInsufficientFunds is returned when a debit exceeds the wallet.
	ErrInsufficientFunds = errors.New("not enough coins")

	// ErrDuplicateIdempotencyKey is returned when a ledger entry with the
	// same idempotency key already exists. Expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies what was missing.
type NotFoundError struct {
	Subject string // "animal", "item", "owner"
	ID      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Subject, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError carries the full message list so the boundary can surface
// every problem at once.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IncompatibleItemError reports an item/animal kind mismatch.
type IncompatibleItemError struct {
	ItemKind   ItemKind
	AnimalKind AnimalKind
}

func (e *IncompatibleItemError) Error() string {
	return fmt.Sprintf("%s cannot be used on a %s", e.ItemKind, e.AnimalKind)
}

func (e *IncompatibleItemError) Unwrap() error { return ErrIncompatibleItem }

// InsufficientFundsError reports a wallet shortfall.
type InsufficientFundsError struct {
	Needed    Coins
	Available Coins
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("not enough coins: need %v, have %v", e.Needed, e.Available)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// PersistenceError wraps an opaque storage failure. The engine never
// retries these; retry policy belongs to the boundary layer.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is user-correctable (400-class).
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrIncompatibleItem) ||
		errors.Is(err, ErrInsufficientQuantity) ||
		errors.Is(err, ErrInsufficientFunds)
}

// IsConflict returns true for idempotency-key collisions (409-class).
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}
