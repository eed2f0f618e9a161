package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/toolbench/quotagate/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetUser looks up the user details, adding the user to the database if necessary. The insert deliberately does
// nothing on conflict so that the denormalized subscription fields of an existing user are left untouched.
func GetUser(ctx context.Context, db *gorm.DB, username string) (*model.User, error) {
	wrapMsg := "unable to look up or add the user"

	user := model.User{Username: username}
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoNothing: true,
		}).
		Create(&user)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, wrapMsg)
	}

	// The insert was a no-op, so the user already exists.
	if result.RowsAffected == 0 {
		err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
		if err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
	}

	return &user, nil
}

// UserExists determines whether or not the user exists in the database.
func UserExists(ctx context.Context, db *gorm.DB, username string) (bool, error) {
	wrapMsg := "unable to determine whether user exists"

	var user model.User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	} else if err != nil {
		return false, errors.Wrap(err, wrapMsg)
	}
	return true, nil
}

// SetUserSubscriptionFields updates the denormalized subscription fields on the user row. These fields are a
// cache of the active subscription row and must be refreshed on every subscription transition.
func SetUserSubscriptionFields(ctx context.Context, db *gorm.DB, userID string, isSubscribed bool, endDate *time.Time) error {
	wrapMsg := "unable to update the user subscription fields"

	err := db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"is_subscribed":         isSubscribed,
			"subscription_end_date": endDate,
		}).Error
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	return nil
}
