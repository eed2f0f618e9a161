package db

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/toolbench/quotagate/internal/model"
	"gorm.io/gorm"
)

// GetActiveSubscriptions retrieves all of the subscriptions that are currently marked active for the user,
// newest first. The subscribe transaction keeps this to at most one row; callers treat anything more as a data
// integrity fault.
func GetActiveSubscriptions(ctx context.Context, db *gorm.DB, userID string) ([]model.Subscription, error) {
	wrapMsg := "unable to look up the active subscription"

	var subscriptions []model.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		Order("start_date desc").
		Find(&subscriptions).Error
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	return subscriptions, nil
}

// InsertSubscription inserts a new subscription record.
func InsertSubscription(ctx context.Context, db *gorm.DB, subscription *model.Subscription) error {
	wrapMsg := "unable to insert the subscription"

	err := db.WithContext(ctx).Create(subscription).Error
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	return nil
}

// SupersedeActiveSubscriptions marks all currently active subscriptions for a user as expired with the end date
// clamped to the supersede instant. This is used when a user subscribes to a new plan: the new subscription
// atomically replaces whatever was active before.
func SupersedeActiveSubscriptions(ctx context.Context, db *gorm.DB, userID string, now time.Time) error {
	wrapMsg := "unable to supersede the active subscriptions for the user"

	err := db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		UpdateColumns(map[string]interface{}{
			"status":   model.SubscriptionStatusExpired,
			"end_date": now,
		}).Error
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	return nil
}

// UpdateSubscriptionStatus sets the status of a single subscription. The update is restricted to subscriptions
// that are still active so that repeated transitions are no-ops.
func UpdateSubscriptionStatus(ctx context.Context, db *gorm.DB, subscriptionID, status string) (bool, error) {
	wrapMsg := fmt.Sprintf("unable to mark subscription '%s' as %s", subscriptionID, status)

	result := db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ? AND status = ?", subscriptionID, model.SubscriptionStatusActive).
		UpdateColumn("status", status)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, wrapMsg)
	}
	return result.RowsAffected > 0, nil
}

// ListSubscriptions lists the subscriptions for a user, newest first, with the referenced plan preloaded. An
// empty status lists subscriptions in every state.
func ListSubscriptions(ctx context.Context, db *gorm.DB, userID, status string, limit, offset int) ([]model.Subscription, error) {
	wrapMsg := "unable to list the subscriptions for the user"

	query := db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var subscriptions []model.Subscription
	err := query.
		Order("start_date desc").
		Limit(limit).
		Offset(offset).
		Find(&subscriptions).Error
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	return subscriptions, nil
}

// ListLapsedActiveSubscriptions lists the subscriptions that are still marked active even though their end date
// has passed. These are the rows the expiry sweeper transitions.
func ListLapsedActiveSubscriptions(ctx context.Context, db *gorm.DB, now time.Time) ([]model.Subscription, error) {
	wrapMsg := "unable to list the lapsed subscriptions"

	var subscriptions []model.Subscription
	err := db.WithContext(ctx).
		Where("status = ? AND end_date < ?", model.SubscriptionStatusActive, now).
		Find(&subscriptions).Error
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	return subscriptions, nil
}
