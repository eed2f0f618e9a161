package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolbench/quotagate/internal/catalog"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLedger(t *testing.T) (*gorm.DB, *catalog.PlanCatalog, *SubscriptionLedger) {
	gormdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// An in-memory SQLite database exists per connection, so the pool has to stay at one.
	sqldb, err := gormdb.DB()
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	err = gormdb.AutoMigrate(&model.User{}, &model.Plan{}, &model.Subscription{}, &model.UsageRecord{})
	require.NoError(t, err)

	planCatalog := catalog.NewPlanCatalog(gormdb)
	require.NoError(t, planCatalog.Bootstrap(context.Background(), model.DefaultPlans()))

	return gormdb, planCatalog, NewSubscriptionLedger(gormdb, planCatalog)
}

func createUser(t *testing.T, gormdb *gorm.DB, username string) *model.User {
	user, err := db.GetUser(context.Background(), gormdb, username)
	require.NoError(t, err)
	return user
}

func planID(t *testing.T, planCatalog *catalog.PlanCatalog, name string) string {
	plan, err := planCatalog.GetPlanByName(context.Background(), name)
	require.NoError(t, err)
	return plan.ID
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	gormdb, planCatalog, subscriptionLedger := setupLedger(t)
	user := createUser(t, gormdb, "sarah")
	now := time.Now()

	subscription, err := subscriptionLedger.Subscribe(ctx, user.ID, planID(t, planCatalog, "Basic"), now)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusActive, subscription.Status)
	assert.Equal(t, model.PaymentStatusCompleted, subscription.PaymentStatus)
	assert.WithinDuration(t, now.AddDate(0, 0, 30), subscription.EndDate, time.Second)

	// The governing plan is now Basic.
	plan, active, err := subscriptionLedger.EffectivePlan(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, "Basic", plan.Name)
	require.NotNil(t, active)
	assert.Equal(t, subscription.ID, active.ID)

	// The denormalized user fields were refreshed.
	user = createUser(t, gormdb, "sarah")
	assert.True(t, user.IsSubscribed)
	require.NotNil(t, user.SubscriptionEndDate)
	assert.WithinDuration(t, subscription.EndDate, *user.SubscriptionEndDate, time.Second)
}

func TestSubscribeSupersedesActiveSubscription(t *testing.T) {
	ctx := context.Background()
	gormdb, planCatalog, subscriptionLedger := setupLedger(t)
	user := createUser(t, gormdb, "sarah")
	now := time.Now()

	first, err := subscriptionLedger.Subscribe(ctx, user.ID, planID(t, planCatalog, "Pro"), now)
	require.NoError(t, err)

	second, err := subscriptionLedger.Subscribe(ctx, user.ID, planID(t, planCatalog, "Enterprise"), now.Add(time.Hour))
	require.NoError(t, err)

	// The new subscription governs immediately.
	plan, active, err := subscriptionLedger.EffectivePlan(ctx, user.ID, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "Enterprise", plan.Name)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	// Both subscriptions remain in the history, the superseded one closed out.
	history, err := subscriptionLedger.History(ctx, user.ID, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
	assert.Equal(t, model.SubscriptionStatusExpired, history[1].Status)

	// The history can be restricted to a single status.
	expired, err := subscriptionLedger.History(ctx, user.ID, model.SubscriptionStatusExpired, 10, 0)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, first.ID, expired[0].ID)

	activeHistory, err := subscriptionLedger.History(ctx, user.ID, model.SubscriptionStatusActive, 10, 0)
	require.NoError(t, err)
	require.Len(t, activeHistory, 1)
	assert.Equal(t, second.ID, activeHistory[0].ID)
}

func TestSubscribeRejectsUnusablePlans(t *testing.T) {
	ctx := context.Background()
	gormdb, planCatalog, subscriptionLedger := setupLedger(t)
	user := createUser(t, gormdb, "sarah")
	now := time.Now()

	t.Run("unknown plan", func(t *testing.T) {
		_, err := subscriptionLedger.Subscribe(ctx, user.ID, uuid.NewString(), now)
		assert.ErrorIs(t, err, model.ErrPlanNotFound)
	})

	t.Run("deactivated plan", func(t *testing.T) {
		id := planID(t, planCatalog, "Basic")
		require.NoError(t, planCatalog.DeactivatePlan(ctx, id))

		_, err := subscriptionLedger.Subscribe(ctx, user.ID, id, now)
		assert.ErrorIs(t, err, model.ErrPlanNotFound)
	})
}

func TestSubscribeConcurrently(t *testing.T) {
	ctx := context.Background()
	gormdb, planCatalog, subscriptionLedger := setupLedger(t)
	user := createUser(t, gormdb, "sarah")
	now := time.Now()

	basic := planID(t, planCatalog, "Basic")
	pro := planID(t, planCatalog, "Pro")

	const attempts = 8
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		id := basic
		if i%2 == 0 {
			id = pro
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := subscriptionLedger.Subscribe(ctx, user.ID, id, now)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// However the calls interleave, exactly one subscription is left active.
	var active int64
	err := gormdb.Model(&model.Subscription{}).
		Where("user_id = ? AND status = ?", user.ID, model.SubscriptionStatusActive).
		Count(&active).Error
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)

	// The user is never wedged into the inconsistent state.
	_, subscription, err := subscriptionLedger.EffectivePlan(ctx, user.ID, now)
	require.NoError(t, err)
	require.NotNil(t, subscription)

	history, err := subscriptionLedger.History(ctx, user.ID, "", attempts+1, 0)
	require.NoError(t, err)
	assert.Len(t, history, attempts)
}

func TestActiveSubscriptionDatabaseGuard(t *testing.T) {
	ctx := context.Background()
	gormdb, planCatalog, subscriptionLedger := setupLedger(t)
	user := createUser(t, gormdb, "sarah")
	now := time.Now()

	_, err := subscriptionLedger.Subscribe(ctx, user.ID, planID(t, planCatalog, "Basic"), now)
	require.NoError(t, err)

	// Inserting a second active row for the same user is rejected by the database itself, so the invariant
	// holds even against writers that bypass the ledger.
	err = db.InsertSubscription(ctx, gormdb, &model.Subscription{
		UserID:        user.ID,
		PlanID:        planID(t, planCatalog, "Pro"),
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, 30),
		Status:        model.SubscriptionStatusActive,
		PaymentStatus: model.PaymentStatusCompleted,
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))

	// Non-active rows are not constrained; history can hold any number of them.
	err = db.InsertSubscription(ctx, gormdb, &model.Subscription{
		UserID:        user.ID,
		PlanID:        planID(t, planCatalog, "Pro"),
		StartDate:     now.AddDate(0, 0, -60),
		EndDate:       now.AddDate(0, 0, -30),
		Status:        model.SubscriptionStatusExpired,
		PaymentStatus: model.PaymentStatusCompleted,
	})
	assert.NoError(t, err)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	gormdb, planCatalog, subscriptionLedger := setupLedger(t)
	user := createUser(t, gormdb, "sarah")
	now := time.Now()

	// Cancelling without an active subscription is an error.
	assert.ErrorIs(t, subscriptionLedger.Cancel(ctx, user.ID, now), model.ErrNoActiveSubscription)

	_, err := subscriptionLedger.Subscribe(ctx, user.ID, planID(t, planCatalog, "Basic"), now)
	require.NoError(t, err)

	require.NoError(t, subscriptionLedger.Cancel(ctx, user.ID, now.Add(time.Hour)))

	// The user falls back to the free plan.
	plan, active, err := subscriptionLedger.EffectivePlan(ctx, user.ID, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.PlanNameFree, plan.Name)
	assert.Nil(t, active)

	// The denormalized user fields were cleared.
	user = createUser(t, gormdb, "sarah")
	assert.False(t, user.IsSubscribed)
	assert.Nil(t, user.SubscriptionEndDate)

	// A second cancellation finds nothing to cancel.
	assert.ErrorIs(t, subscriptionLedger.Cancel(ctx, user.ID, now.Add(3*time.Hour)), model.ErrNoActiveSubscription)
}

func TestEffectivePlanExpiresLapsedSubscriptions(t *testing.T) {
	ctx := context.Background()
	gormdb, planCatalog, subscriptionLedger := setupLedger(t)
	user := createUser(t, gormdb, "sarah")
	now := time.Now()

	subscription, err := subscriptionLedger.Subscribe(ctx, user.ID, planID(t, planCatalog, "Basic"), now)
	require.NoError(t, err)

	// One second before the end date the subscription still governs.
	plan, _, err := subscriptionLedger.EffectivePlan(ctx, user.ID, subscription.EndDate.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, "Basic", plan.Name)

	// Past the end date the user falls back to the free plan without waiting for the sweeper.
	plan, active, err := subscriptionLedger.EffectivePlan(ctx, user.ID, subscription.EndDate.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, model.PlanNameFree, plan.Name)
	assert.Nil(t, active)

	// The lazy read transitioned the subscription and cleared the user fields.
	history, err := subscriptionLedger.History(ctx, user.ID, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.SubscriptionStatusExpired, history[0].Status)

	user = createUser(t, gormdb, "sarah")
	assert.False(t, user.IsSubscribed)
	assert.Nil(t, user.SubscriptionEndDate)
}

func TestEffectivePlanFailsClosedOnInconsistentState(t *testing.T) {
	ctx := context.Background()
	gormdb, planCatalog, subscriptionLedger := setupLedger(t)
	user := createUser(t, gormdb, "sarah")
	now := time.Now()

	// Plant a second active subscription behind the ledger's back. The guard index has to be removed first,
	// simulating a database that predates it.
	_, err := subscriptionLedger.Subscribe(ctx, user.ID, planID(t, planCatalog, "Basic"), now)
	require.NoError(t, err)
	require.NoError(t, gormdb.Exec("DROP INDEX subscriptions_one_active").Error)
	require.NoError(t, db.InsertSubscription(ctx, gormdb, &model.Subscription{
		UserID:        user.ID,
		PlanID:        planID(t, planCatalog, "Pro"),
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, 30),
		Status:        model.SubscriptionStatusActive,
		PaymentStatus: model.PaymentStatusCompleted,
	}))

	_, _, err = subscriptionLedger.EffectivePlan(ctx, user.ID, now)
	assert.ErrorIs(t, err, model.ErrInconsistentState)
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	gormdb, planCatalog, subscriptionLedger := setupLedger(t)
	now := time.Now()

	sarah := createUser(t, gormdb, "sarah")
	dini := createUser(t, gormdb, "dini")
	joni := createUser(t, gormdb, "joni")

	basic := planID(t, planCatalog, "Basic")
	for _, user := range []*model.User{sarah, dini, joni} {
		_, err := subscriptionLedger.Subscribe(ctx, user.ID, basic, now)
		require.NoError(t, err)
	}

	// Two of the three subscriptions lapse.
	later := now.AddDate(0, 0, 31)
	_, err := subscriptionLedger.Subscribe(ctx, joni.ID, basic, later.Add(-time.Hour))
	require.NoError(t, err)

	count, err := subscriptionLedger.SweepExpired(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The sweep is idempotent.
	count, err = subscriptionLedger.SweepExpired(ctx, later)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The swept users fell back to the free plan; the live one is untouched.
	for _, user := range []*model.User{sarah, dini} {
		plan, _, err := subscriptionLedger.EffectivePlan(ctx, user.ID, later)
		require.NoError(t, err)
		assert.Equal(t, model.PlanNameFree, plan.Name)
	}
	plan, _, err := subscriptionLedger.EffectivePlan(ctx, joni.ID, later)
	require.NoError(t, err)
	assert.Equal(t, "Basic", plan.Name)
}
