// Package catalog provides a read-mostly view of the subscription plan definitions. Quota enforcement always
// resolves plans through a subscription's stored plan ID, never through the current active plan list, so plan
// changes don't retroactively alter history.
package catalog

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/model"
	"github.com/toolbench/quotagate/logging"
	"gorm.io/gorm"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "catalog"})

// Plan rows are effectively immutable after creation apart from administrative deactivation, so caching them
// per-process with a short TTL carries no correctness risk.
const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// PlanCatalog looks up subscription plan definitions, caching individual plan rows.
type PlanCatalog struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewPlanCatalog creates a new plan catalog backed by the given database.
func NewPlanCatalog(gormdb *gorm.DB) *PlanCatalog {
	return &PlanCatalog{
		db:    gormdb,
		cache: cache.New(cacheTTL, cacheCleanup),
	}
}

// GetActivePlans returns all of the plans that can currently be subscribed to, ordered by price. This listing
// is for display; enforcement never consults it.
func (c *PlanCatalog) GetActivePlans(ctx context.Context) ([]model.Plan, error) {
	return db.ListActivePlans(ctx, c.db)
}

// GetPlan returns the plan with the given identifier. Deactivated plans are still returned so that historical
// subscriptions remain resolvable.
func (c *PlanCatalog) GetPlan(ctx context.Context, planID string) (*model.Plan, error) {
	if cached, found := c.cache.Get("id:" + planID); found {
		return cached.(*model.Plan), nil
	}

	plan, err := db.GetPlanByID(ctx, c.db, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, model.ErrPlanNotFound
	}

	c.cache.Set("id:"+planID, plan, cache.DefaultExpiration)
	return plan, nil
}

// GetPlanByName returns the plan with the given name.
func (c *PlanCatalog) GetPlanByName(ctx context.Context, name string) (*model.Plan, error) {
	if cached, found := c.cache.Get("name:" + name); found {
		return cached.(*model.Plan), nil
	}

	plan, err := db.GetPlanByName(ctx, c.db, name)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, model.ErrPlanNotFound
	}

	c.cache.Set("name:"+name, plan, cache.DefaultExpiration)
	return plan, nil
}

// FreePlan returns the reserved default plan that governs users without an active subscription.
func (c *PlanCatalog) FreePlan(ctx context.Context) (*model.Plan, error) {
	return c.GetPlanByName(ctx, model.PlanNameFree)
}

// CapFor returns the monthly cap the given plan assigns to the given resource kind. Unrecognized resource
// kinds get a cap of zero, so requests for them always fail closed.
func (c *PlanCatalog) CapFor(plan *model.Plan, resourceKind string) int {
	return plan.CapFor(resourceKind)
}

// AddPlan adds a new plan to the catalog. A plan with a duplicate name is an error.
func (c *PlanCatalog) AddPlan(ctx context.Context, plan *model.Plan) error {
	err := db.InsertPlan(ctx, c.db, plan)
	if err != nil {
		return err
	}
	c.cache.Flush()
	return nil
}

// DeactivatePlan marks a plan as inactive. The plan row is kept so that existing subscriptions referencing it
// continue to resolve.
func (c *PlanCatalog) DeactivatePlan(ctx context.Context, planID string) error {
	found, err := db.DeactivatePlan(ctx, c.db, planID)
	if err != nil {
		return err
	}
	if !found {
		return model.ErrPlanNotFound
	}
	c.cache.Flush()
	return nil
}

// Bootstrap seeds the given plans into the database. Seeding is idempotent: plans whose names already exist
// are skipped, so this can safely run at every process start.
func (c *PlanCatalog) Bootstrap(ctx context.Context, plans []model.Plan) error {
	log := log.WithFields(logrus.Fields{"context": "bootstrap"})

	for i := range plans {
		inserted, err := db.InsertPlanIfMissing(ctx, c.db, &plans[i])
		if err != nil {
			return err
		}
		if inserted {
			log.Infof("created subscription plan: %s", plans[i].Name)
		}
	}

	log.Info("subscription plan initialization completed")
	return nil
}
