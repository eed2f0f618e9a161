package db

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/toolbench/quotagate/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureUsageRecord creates the usage record for the given user and month with all counters at zero if it
// doesn't exist already. A conflict on (user_id, month_year) is a no-op, so concurrent callers can race on the
// first consumption attempt of a new month without either of them failing.
func EnsureUsageRecord(ctx context.Context, db *gorm.DB, userID, monthYear string) error {
	wrapMsg := "unable to create the usage record"

	record := model.UsageRecord{UserID: userID, MonthYear: monthYear}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "month_year"},
			},
			DoNothing: true,
		}).
		Create(&record).Error
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	return nil
}

// GetUsageRecord loads the usage record for the given user and month, returning nil if it doesn't exist.
func GetUsageRecord(ctx context.Context, db *gorm.DB, userID, monthYear string) (*model.UsageRecord, error) {
	wrapMsg := "unable to look up the usage record"

	var record model.UsageRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND month_year = ?", userID, monthYear).
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	return &record, nil
}

// IncrementUsageWithinCap atomically adds amount to one usage counter, but only if the result stays within the
// cap. The check and the increment execute as a single conditional UPDATE, so two concurrent reservations for
// the same user, month, and resource kind can never both slip past the cap: the database serializes the row
// updates and the losing statement matches zero rows. The returned flag indicates whether the increment was
// applied. The column name is taken from the resource kind registry, never from request input.
func IncrementUsageWithinCap(ctx context.Context, db *gorm.DB, userID, monthYear, column string, amount, cap int) (bool, error) {
	wrapMsg := "unable to increment the usage counter"

	result := db.WithContext(ctx).
		Model(&model.UsageRecord{}).
		Where("user_id = ? AND month_year = ?", userID, monthYear).
		Where(fmt.Sprintf("%s + ? <= ?", column), amount, cap).
		UpdateColumns(map[string]interface{}{
			column:       gorm.Expr(fmt.Sprintf("%s + ?", column), amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, wrapMsg)
	}
	return result.RowsAffected > 0, nil
}
