// Package usagecounter maintains the per-user, per-calendar-month resource counters. Its reservation primitive
// is the concurrency-critical piece of quota enforcement.
package usagecounter

import (
	"context"
	"time"

	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/model"
	"gorm.io/gorm"
)

// Counter reserves and reports resource consumption against monthly budgets.
type Counter struct {
	db *gorm.DB
}

// NewCounter creates a new usage counter backed by the given database.
func NewCounter(gormdb *gorm.DB) *Counter {
	return &Counter{db: gormdb}
}

// Reservation confirms a successful quota reservation.
type Reservation struct {
	// The resource kind the reservation was made against
	ResourceKind string `json:"resource_kind"`

	// The calendar month the reservation was recorded in
	MonthYear string `json:"month_year"`

	// The amount reserved
	Amount int `json:"amount"`

	// The counter total after the reservation
	Total int `json:"total"`

	// The cap the reservation was checked against
	Cap int `json:"cap"`
}

// TryReserve atomically reserves amount units of the given resource kind against the given monthly cap. On
// success the month's counter has been incremented and a confirming reservation is returned. If the reservation
// would push the counter past the cap, nothing is mutated and a QuotaExceededError carrying the current usage
// and the cap is returned. The check and the increment run as one atomic conditional update, so concurrent
// reservations for the same user, month, and resource kind can never jointly exceed the cap.
func (c *Counter) TryReserve(ctx context.Context, userID, resourceKind string, amount, cap int, now time.Time) (*Reservation, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}

	// The month key is computed exactly once per reservation so that a request straddling a month boundary
	// lands in a single usage record.
	monthYear := model.MonthKey(now)

	// Unknown resource kinds have no counter column and always fail closed.
	kind, ok := model.LookupResourceKind(resourceKind)
	if !ok {
		return nil, &model.QuotaExceededError{ResourceKind: resourceKind, Current: 0, Cap: 0}
	}

	// A cap of zero can never admit a positive amount, so don't bother touching storage.
	if cap <= 0 {
		current := 0
		if record, err := db.GetUsageRecord(ctx, c.db, userID, monthYear); err != nil {
			return nil, err
		} else if record != nil {
			current = record.CounterFor(resourceKind)
		}
		return nil, &model.QuotaExceededError{ResourceKind: resourceKind, Current: current, Cap: cap}
	}

	// Make sure the month's record exists before attempting the conditional increment.
	if err := db.EnsureUsageRecord(ctx, c.db, userID, monthYear); err != nil {
		return nil, err
	}

	applied, err := db.IncrementUsageWithinCap(ctx, c.db, userID, monthYear, kind.UsageColumn, amount, cap)
	if err != nil {
		return nil, err
	}

	record, err := db.GetUsageRecord(ctx, c.db, userID, monthYear)
	if err != nil {
		return nil, err
	}
	current := 0
	if record != nil {
		current = record.CounterFor(resourceKind)
	}

	if !applied {
		return nil, &model.QuotaExceededError{ResourceKind: resourceKind, Current: current, Cap: cap}
	}

	return &Reservation{
		ResourceKind: resourceKind,
		MonthYear:    monthYear,
		Amount:       amount,
		Total:        current,
		Cap:          cap,
	}, nil
}

// CurrentUsage returns the usage record for the user's current month, creating it with zero counters if it
// doesn't exist yet. This read never fails because of a missing record.
func (c *Counter) CurrentUsage(ctx context.Context, userID string, now time.Time) (*model.UsageRecord, error) {
	monthYear := model.MonthKey(now)

	if err := db.EnsureUsageRecord(ctx, c.db, userID, monthYear); err != nil {
		return nil, err
	}
	return db.GetUsageRecord(ctx, c.db, userID, monthYear)
}
