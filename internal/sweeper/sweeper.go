// Package sweeper runs the periodic subscription expiry sweep. The sweep is a backstop: the ledger's lazy
// expiry on the read path is what actually guarantees correctness between runs.
package sweeper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/internal/ledger"
	"github.com/toolbench/quotagate/logging"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "sweeper"})

// Sweeper periodically expires subscriptions whose end date has passed.
type Sweeper struct {
	ledger   *ledger.SubscriptionLedger
	interval time.Duration
}

// New creates a new sweeper that runs at the given interval.
func New(subscriptionLedger *ledger.SubscriptionLedger, interval time.Duration) *Sweeper {
	return &Sweeper{ledger: subscriptionLedger, interval: interval}
}

// Run sweeps once immediately and then on every tick until the context is cancelled. It's intended to be run
// in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	log := log.WithFields(logrus.Fields{"context": "run loop"})

	log.Infof("starting the expiry sweeper with an interval of %s", s.interval)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping the expiry sweeper")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.ledger.SweepExpired(ctx, time.Now())
	if err != nil {
		log.Errorf("expiry sweep failed: %s", err.Error())
		return
	}
	log.Debugf("expiry sweep transitioned %d subscriptions", count)
}
