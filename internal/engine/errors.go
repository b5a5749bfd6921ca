package engine

import (
	"errors"
	"fmt"
)

// Error taxonomy surfaced by the public lifecycle operations. Every failure
// carries enough structure for the HTTP layer to render a precise message;
// none of them are retried by the engine itself.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("caller is not a party to this entity")
	ErrWindowExpired = errors.New("cancellation window has expired")
	ErrValidation    = errors.New("validation error")

	// ErrCapabilityMismatch marks bundles whose fragile or special-delivery
	// requirements a trip cannot meet. It fails matching, never booking.
	ErrCapabilityMismatch = errors.New("capability mismatch")
)

// InvalidStateError reports an operation attempted from a status that does
// not permit it.
type InvalidStateError struct {
	Op     string
	Status string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s from status %q", e.Op, e.Status)
}

// CapacityExceededError reports an assignment that fits neither remaining
// allowance. The message names the shortfall and both capacity figures.
type CapacityExceededError struct {
	NeededKg  float64
	CarryOnKg float64
	CheckedKg float64
}

func (e *CapacityExceededError) Error() string {
	best := e.CarryOnKg
	if e.CheckedKg > best {
		best = e.CheckedKg
	}
	return fmt.Sprintf(
		"assigned items weigh %.1fkg, %.1fkg over the remaining allowance (carry-on %.1fkg, checked %.1fkg)",
		e.NeededKg, e.NeededKg-best, e.CarryOnKg, e.CheckedKg,
	)
}
