// Package gate provides the admission check every resource-consuming endpoint performs before doing its
// protected work.
package gate

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/toolbench/quotagate/internal/ledger"
	"github.com/toolbench/quotagate/internal/model"
	"github.com/toolbench/quotagate/internal/usagecounter"
)

// QuotaGate composes the subscription ledger and the usage counter into a single admission decision.
type QuotaGate struct {
	ledger  *ledger.SubscriptionLedger
	counter *usagecounter.Counter
}

// NewQuotaGate creates a new quota gate.
func NewQuotaGate(subscriptionLedger *ledger.SubscriptionLedger, counter *usagecounter.Counter) *QuotaGate {
	return &QuotaGate{ledger: subscriptionLedger, counter: counter}
}

// AdmitResult is the outcome of an admission check.
type AdmitResult struct {
	// True if the requested amount was reserved
	Allowed bool `json:"allowed"`

	// The resource kind the check was performed for
	ResourceKind string `json:"resource_kind"`

	// The name of the plan whose cap governed the decision
	Plan string `json:"plan"`

	// The amount requested
	Amount int `json:"amount"`

	// The counter value for the month: the new total when allowed, the unchanged usage when denied
	Current int `json:"current"`

	// The monthly cap for the resource kind under the governing plan
	Cap int `json:"cap"`

	// The units still available this month
	Remaining int `json:"remaining"`
}

// Admit decides whether the user may consume amount units of the given resource kind and, if so, atomically
// charges the user's monthly budget. Quota is charged on admission: if the caller's protected work is aborted
// after a successful Admit, the reservation is not refunded.
//
// On a denied result nothing has been mutated anywhere and the caller must not perform the protected work.
func (g *QuotaGate) Admit(ctx context.Context, userID, resourceKind string, amount int) (*AdmitResult, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}

	now := time.Now()

	plan, _, err := g.ledger.EffectivePlan(ctx, userID, now)
	if err != nil {
		// This includes the inconsistent-state case, which fails closed: no reservation happens and the
		// caller must not proceed.
		return nil, err
	}

	cap := plan.CapFor(resourceKind)

	reservation, err := g.counter.TryReserve(ctx, userID, resourceKind, amount, cap, now)
	if err != nil {
		var quotaErr *model.QuotaExceededError
		if errors.As(err, &quotaErr) {
			return &AdmitResult{
				Allowed:      false,
				ResourceKind: resourceKind,
				Plan:         plan.Name,
				Amount:       amount,
				Current:      quotaErr.Current,
				Cap:          quotaErr.Cap,
				Remaining:    remaining(quotaErr.Cap, quotaErr.Current),
			}, nil
		}
		return nil, err
	}

	return &AdmitResult{
		Allowed:      true,
		ResourceKind: resourceKind,
		Plan:         plan.Name,
		Amount:       amount,
		Current:      reservation.Total,
		Cap:          cap,
		Remaining:    remaining(cap, reservation.Total),
	}, nil
}

func remaining(cap, current int) int {
	if current >= cap {
		return 0
	}
	return cap - current
}
