package model

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrPlanNotFound indicates that a referenced plan doesn't exist or can no longer be subscribed to.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrNoActiveSubscription indicates that an operation requiring an active subscription found none.
	ErrNoActiveSubscription = errors.New("no active subscription")

	// ErrInvalidAmount indicates that a reservation was requested for a non-positive amount.
	ErrInvalidAmount = errors.New("reservation amounts must be positive integers")

	// ErrInconsistentState indicates that more than one active subscription was found for a single user.
	// The transactional subscribe path should make this unreachable; if it does occur the operation fails
	// closed instead of guessing which subscription is authoritative.
	ErrInconsistentState = errors.New("multiple active subscriptions detected")
)

// QuotaExceededError reports a denied reservation. It carries the current usage and the cap so that callers can
// render a precise, actionable message rather than an opaque failure. Running into a quota is an expected,
// frequent outcome, not an exceptional condition.
type QuotaExceededError struct {
	ResourceKind string `json:"resource_kind"`
	Current      int    `json:"current"`
	Cap          int    `json:"cap"`
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly quota exceeded for %s: %d of %d used", e.ResourceKind, e.Current, e.Cap)
}
