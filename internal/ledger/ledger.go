// Package ledger tracks subscription records and their lifecycle. It is the only component that writes
// subscription rows or the denormalized subscription fields on the user row.
package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/internal/catalog"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/model"
	"github.com/toolbench/quotagate/logging"
	"gorm.io/gorm"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "ledger"})

// SubscriptionLedger manages subscription lifecycle transitions and derives the effective plan for a user.
type SubscriptionLedger struct {
	db      *gorm.DB
	catalog *catalog.PlanCatalog
}

// NewSubscriptionLedger creates a new subscription ledger.
func NewSubscriptionLedger(gormdb *gorm.DB, planCatalog *catalog.PlanCatalog) *SubscriptionLedger {
	return &SubscriptionLedger{db: gormdb, catalog: planCatalog}
}

// subscribeRetries bounds the number of times a subscribe transaction is rerun after losing a race against a
// concurrent subscribe for the same user.
const subscribeRetries = 3

// Subscribe subscribes the user to the plan with the given identifier. Any previously active subscription is
// superseded, the new subscription is inserted, and the denormalized user fields are refreshed, all within a
// single transaction: a reader observes either the fully-prior state or the fully-new state, never two active
// subscriptions at once. Two concurrent subscribe transactions for the same user can both pass the supersede
// step without seeing each other's pending insert; the partial unique index on active subscriptions rejects the
// loser's insert, and the transaction is rerun so that the supersede sees the winner's committed row.
func (l *SubscriptionLedger) Subscribe(ctx context.Context, userID, planID string, now time.Time) (*model.Subscription, error) {
	wrapMsg := "unable to subscribe the user to the plan"

	plan, err := l.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, model.ErrPlanNotFound
	}

	endDate := now.AddDate(0, 0, plan.DurationDays)

	var subscription model.Subscription
	for attempt := 0; ; attempt++ {
		subscription = model.Subscription{
			UserID:        userID,
			PlanID:        plan.ID,
			StartDate:     now,
			EndDate:       endDate,
			Status:        model.SubscriptionStatusActive,
			PaymentStatus: model.PaymentStatusCompleted,
		}

		err = l.db.Transaction(func(tx *gorm.DB) error {
			if err := db.SupersedeActiveSubscriptions(ctx, tx, userID, now); err != nil {
				return err
			}
			if err := db.InsertSubscription(ctx, tx, &subscription); err != nil {
				return err
			}
			return db.SetUserSubscriptionFields(ctx, tx, userID, true, &endDate)
		})
		if err == nil {
			break
		}
		if db.IsUniqueViolation(err) && attempt < subscribeRetries {
			log.WithFields(logrus.Fields{"user": userID}).
				Debug("lost a concurrent subscribe race, retrying")
			continue
		}
		return nil, errors.Wrap(err, wrapMsg)
	}

	subscription.Plan = plan
	return &subscription, nil
}

// Cancel cancels the user's active subscription and clears the denormalized user fields. Usage counters are
// left alone; quota already consumed stays consumed.
func (l *SubscriptionLedger) Cancel(ctx context.Context, userID string, now time.Time) error {
	wrapMsg := "unable to cancel the subscription"

	subscriptions, err := db.GetActiveSubscriptions(ctx, l.db, userID)
	if err != nil {
		return err
	}
	if len(subscriptions) == 0 {
		return model.ErrNoActiveSubscription
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		for _, subscription := range subscriptions {
			if _, err := db.UpdateSubscriptionStatus(ctx, tx, subscription.ID, model.SubscriptionStatusCancelled); err != nil {
				return err
			}
		}
		return db.SetUserSubscriptionFields(ctx, tx, userID, false, nil)
	})
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	return nil
}

// EffectivePlan returns the plan governing the user's quotas at the given instant, along with the active
// subscription it was derived from. Users without a live subscription get the reserved free plan and a nil
// subscription. A subscription whose end date has passed is lazily transitioned to expired here, so
// correctness never depends on the expiry sweeper running promptly, only eventually.
func (l *SubscriptionLedger) EffectivePlan(ctx context.Context, userID string, now time.Time) (*model.Plan, *model.Subscription, error) {
	subscriptions, err := db.GetActiveSubscriptions(ctx, l.db, userID)
	if err != nil {
		return nil, nil, err
	}

	// Finding more than one active subscription means the transactional subscribe invariant was violated.
	// Surface it and let the caller fail closed instead of guessing which one is authoritative.
	if len(subscriptions) > 1 {
		log.WithFields(logrus.Fields{"user": userID}).
			Errorf("found %d active subscriptions for a single user", len(subscriptions))
		return nil, nil, model.ErrInconsistentState
	}

	if len(subscriptions) == 0 {
		freePlan, err := l.catalog.FreePlan(ctx)
		if err != nil {
			return nil, nil, err
		}
		return freePlan, nil, nil
	}

	subscription := subscriptions[0]
	if subscription.Lapsed(now) {
		if err := l.expire(ctx, &subscription); err != nil {
			return nil, nil, err
		}
		freePlan, err := l.catalog.FreePlan(ctx)
		if err != nil {
			return nil, nil, err
		}
		return freePlan, nil, nil
	}

	plan, err := l.catalog.GetPlan(ctx, subscription.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return plan, &subscription, nil
}

// History lists the user's subscriptions, newest first, optionally restricted to a single status.
func (l *SubscriptionLedger) History(ctx context.Context, userID, status string, limit, offset int) ([]model.Subscription, error) {
	return db.ListSubscriptions(ctx, l.db, userID, status, limit, offset)
}

// SweepExpired transitions every subscription that is still marked active past its end date and returns the
// number of subscriptions transitioned. It shares the expiry code path with EffectivePlan, runs in the
// background on a fixed interval, and is idempotent: a second run in the same state transitions nothing.
func (l *SubscriptionLedger) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	log := log.WithFields(logrus.Fields{"context": "expiry sweep"})

	lapsed, err := db.ListLapsedActiveSubscriptions(ctx, l.db, now)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range lapsed {
		if err := l.expire(ctx, &lapsed[i]); err != nil {
			return count, err
		}
		count++
	}

	if count > 0 {
		log.Infof("marked %d subscriptions as expired", count)
	}
	return count, nil
}

// expire transitions a single lapsed subscription to expired and clears the denormalized user fields. Both the
// lazy read path and the sweeper funnel through here.
func (l *SubscriptionLedger) expire(ctx context.Context, subscription *model.Subscription) error {
	wrapMsg := "unable to expire the subscription"

	err := l.db.Transaction(func(tx *gorm.DB) error {
		transitioned, err := db.UpdateSubscriptionStatus(ctx, tx, subscription.ID, model.SubscriptionStatusExpired)
		if err != nil {
			return err
		}
		// Someone else already expired it; leave the user fields to whoever won.
		if !transitioned {
			return nil
		}
		return db.SetUserSubscriptionFields(ctx, tx, subscription.UserID, false, nil)
	})
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	return nil
}
