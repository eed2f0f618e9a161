package usagecounter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCounter(t *testing.T) (*gorm.DB, *Counter, *model.User) {
	gormdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// An in-memory SQLite database exists per connection, so the pool has to stay at one.
	sqldb, err := gormdb.DB()
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	err = gormdb.AutoMigrate(&model.User{}, &model.Plan{}, &model.Subscription{}, &model.UsageRecord{})
	require.NoError(t, err)

	user, err := db.GetUser(context.Background(), gormdb, "sarah")
	require.NoError(t, err)

	return gormdb, NewCounter(gormdb), user
}

func TestTryReserve(t *testing.T) {
	ctx := context.Background()
	_, counter, user := setupCounter(t)
	now := time.Now()

	// Fill the budget almost to the cap in one reservation.
	reservation, err := counter.TryReserve(ctx, user.ID, model.ResourceTypeChats, 19, 20, now)
	require.NoError(t, err)
	assert.Equal(t, 19, reservation.Total)
	assert.Equal(t, 20, reservation.Cap)
	assert.Equal(t, model.MonthKey(now), reservation.MonthYear)

	// The final unit still fits.
	reservation, err = counter.TryReserve(ctx, user.ID, model.ResourceTypeChats, 1, 20, now)
	require.NoError(t, err)
	assert.Equal(t, 20, reservation.Total)

	// The next unit does not, and the denial reports the untouched counter.
	_, err = counter.TryReserve(ctx, user.ID, model.ResourceTypeChats, 1, 20, now)
	var quotaErr *model.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 20, quotaErr.Current)
	assert.Equal(t, 20, quotaErr.Cap)

	// A denied reservation mutates nothing.
	record, err := counter.CurrentUsage(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 20, record.ChatsUsed)
}

func TestTryReserveRejectsOversizedAmounts(t *testing.T) {
	ctx := context.Background()
	_, counter, user := setupCounter(t)
	now := time.Now()

	// An amount larger than the remaining budget is denied whole; there is no partial admission.
	_, err := counter.TryReserve(ctx, user.ID, model.ResourceTypeDocuments, 3, 2, now)
	var quotaErr *model.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 0, quotaErr.Current)
	assert.Equal(t, 2, quotaErr.Cap)

	// A smaller amount still fits afterwards.
	reservation, err := counter.TryReserve(ctx, user.ID, model.ResourceTypeDocuments, 2, 2, now)
	require.NoError(t, err)
	assert.Equal(t, 2, reservation.Total)
}

func TestTryReserveInvalidAmount(t *testing.T) {
	ctx := context.Background()
	_, counter, user := setupCounter(t)
	now := time.Now()

	_, err := counter.TryReserve(ctx, user.ID, model.ResourceTypeChats, 0, 20, now)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = counter.TryReserve(ctx, user.ID, model.ResourceTypeChats, -5, 20, now)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestTryReserveUnknownResourceKind(t *testing.T) {
	ctx := context.Background()
	_, counter, user := setupCounter(t)
	now := time.Now()

	_, err := counter.TryReserve(ctx, user.ID, "gpu_hours", 1, 100, now)
	var quotaErr *model.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Zero(t, quotaErr.Cap)
}

func TestTryReserveZeroCap(t *testing.T) {
	ctx := context.Background()
	_, counter, user := setupCounter(t)
	now := time.Now()

	_, err := counter.TryReserve(ctx, user.ID, model.ResourceTypeVideoUploads, 1, 0, now)
	var quotaErr *model.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Zero(t, quotaErr.Current)
	assert.Zero(t, quotaErr.Cap)
}

func TestTryReserveMonthIsolation(t *testing.T) {
	ctx := context.Background()
	_, counter, user := setupCounter(t)

	january := time.Date(2025, time.January, 20, 12, 0, 0, 0, time.UTC)
	february := time.Date(2025, time.February, 3, 12, 0, 0, 0, time.UTC)

	// Exhaust January's budget.
	_, err := counter.TryReserve(ctx, user.ID, model.ResourceTypeChats, 10, 10, january)
	require.NoError(t, err)
	_, err = counter.TryReserve(ctx, user.ID, model.ResourceTypeChats, 1, 10, january)
	assert.Error(t, err)

	// February starts from a fresh counter; January's record is retained.
	reservation, err := counter.TryReserve(ctx, user.ID, model.ResourceTypeChats, 1, 10, february)
	require.NoError(t, err)
	assert.Equal(t, 1, reservation.Total)
	assert.Equal(t, "2025-02", reservation.MonthYear)

	record, err := counter.CurrentUsage(ctx, user.ID, january)
	require.NoError(t, err)
	assert.Equal(t, 10, record.ChatsUsed)
}

func TestTryReserveConcurrent(t *testing.T) {
	ctx := context.Background()
	_, counter, user := setupCounter(t)
	now := time.Now()

	const cap = 20
	const attempts = 50

	var wg sync.WaitGroup
	admitted := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := counter.TryReserve(ctx, user.ID, model.ResourceTypeChats, 1, cap, now); err == nil {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)

	// Exactly cap reservations were admitted and the counter never exceeds the cap.
	assert.Len(t, admitted, cap)

	record, err := counter.CurrentUsage(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, cap, record.ChatsUsed)
}

func TestCurrentUsage(t *testing.T) {
	ctx := context.Background()
	_, counter, user := setupCounter(t)
	now := time.Now()

	// The first read of a new month creates the record with zero counters.
	record, err := counter.CurrentUsage(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, model.MonthKey(now), record.MonthYear)
	assert.Zero(t, record.ChatsUsed)
	assert.Zero(t, record.DocumentsUploaded)
}
