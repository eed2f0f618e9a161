package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolbench/quotagate/internal/catalog"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/ledger"
	"github.com/toolbench/quotagate/internal/model"
	"github.com/toolbench/quotagate/internal/usagecounter"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type gateFixture struct {
	gormdb  *gorm.DB
	catalog *catalog.PlanCatalog
	ledger  *ledger.SubscriptionLedger
	gate    *QuotaGate
	user    *model.User
}

func setupGate(t *testing.T) *gateFixture {
	gormdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// An in-memory SQLite database exists per connection, so the pool has to stay at one.
	sqldb, err := gormdb.DB()
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	err = gormdb.AutoMigrate(&model.User{}, &model.Plan{}, &model.Subscription{}, &model.UsageRecord{})
	require.NoError(t, err)

	planCatalog := catalog.NewPlanCatalog(gormdb)
	require.NoError(t, planCatalog.Bootstrap(context.Background(), model.DefaultPlans()))

	subscriptionLedger := ledger.NewSubscriptionLedger(gormdb, planCatalog)
	counter := usagecounter.NewCounter(gormdb)

	user, err := db.GetUser(context.Background(), gormdb, "sarah")
	require.NoError(t, err)

	return &gateFixture{
		gormdb:  gormdb,
		catalog: planCatalog,
		ledger:  subscriptionLedger,
		gate:    NewQuotaGate(subscriptionLedger, counter),
		user:    user,
	}
}

func (f *gateFixture) subscribe(t *testing.T, planName string) *model.Subscription {
	plan, err := f.catalog.GetPlanByName(context.Background(), planName)
	require.NoError(t, err)

	subscription, err := f.ledger.Subscribe(context.Background(), f.user.ID, plan.ID, time.Now())
	require.NoError(t, err)
	return subscription
}

func TestAdmitUnderFreePlan(t *testing.T) {
	ctx := context.Background()
	f := setupGate(t)

	// Users without a subscription are governed by the free plan's caps.
	for i := 1; i <= 10; i++ {
		result, err := f.gate.Admit(ctx, f.user.ID, model.ResourceTypeChats, 1)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, model.PlanNameFree, result.Plan)
		assert.Equal(t, i, result.Current)
		assert.Equal(t, 10-i, result.Remaining)
	}

	result, err := f.gate.Admit(ctx, f.user.ID, model.ResourceTypeChats, 1)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 10, result.Current)
	assert.Equal(t, 10, result.Cap)
	assert.Zero(t, result.Remaining)
}

func TestAdmitUnderSubscription(t *testing.T) {
	ctx := context.Background()
	f := setupGate(t)
	f.subscribe(t, "Basic")

	// Basic raises the chat cap to 100 and a whole-budget request fits.
	result, err := f.gate.Admit(ctx, f.user.ID, model.ResourceTypeChats, 100)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, "Basic", result.Plan)
	assert.Equal(t, 100, result.Current)
	assert.Zero(t, result.Remaining)

	// The budget is exhausted.
	result, err = f.gate.Admit(ctx, f.user.ID, model.ResourceTypeChats, 1)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 100, result.Current)
	assert.Equal(t, 100, result.Cap)

	// Other resource kinds have independent budgets.
	result, err = f.gate.Admit(ctx, f.user.ID, model.ResourceTypeDocuments, 1)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestAdmitDeniesWholeOversizedRequests(t *testing.T) {
	ctx := context.Background()
	f := setupGate(t)

	// Free plan document cap is 2; a request for 3 is denied whole, nothing is charged.
	result, err := f.gate.Admit(ctx, f.user.ID, model.ResourceTypeDocuments, 3)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Current)
	assert.Equal(t, 2, result.Cap)
	assert.Equal(t, 2, result.Remaining)

	result, err = f.gate.Admit(ctx, f.user.ID, model.ResourceTypeDocuments, 2)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestAdmitUnknownResourceKind(t *testing.T) {
	ctx := context.Background()
	f := setupGate(t)
	f.subscribe(t, "Enterprise")

	// Unknown resource kinds are denied even under the biggest plan.
	result, err := f.gate.Admit(ctx, f.user.ID, "gpu_hours", 1)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Cap)
	assert.Zero(t, result.Remaining)
}

func TestAdmitInvalidAmount(t *testing.T) {
	ctx := context.Background()
	f := setupGate(t)

	_, err := f.gate.Admit(ctx, f.user.ID, model.ResourceTypeChats, 0)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = f.gate.Admit(ctx, f.user.ID, model.ResourceTypeChats, -1)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestAdmitAfterSubscriptionLapses(t *testing.T) {
	ctx := context.Background()
	f := setupGate(t)
	subscription := f.subscribe(t, "Basic")

	// Consume more chats than the free plan would ever allow.
	result, err := f.gate.Admit(ctx, f.user.ID, model.ResourceTypeChats, 50)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	// Backdate the subscription so that it has lapsed.
	err = f.gormdb.Model(&model.Subscription{}).
		Where("id = ?", subscription.ID).
		Update("end_date", time.Now().Add(-time.Hour)).Error
	require.NoError(t, err)

	// The free plan governs again, and the month's spent budget already exceeds its cap.
	result, err = f.gate.Admit(ctx, f.user.ID, model.ResourceTypeChats, 1)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, model.PlanNameFree, result.Plan)
	assert.Equal(t, 50, result.Current)
	assert.Equal(t, 10, result.Cap)
	assert.Zero(t, result.Remaining)
}
