package db

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/toolbench/quotagate/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetPlanByID looks up the plan with the given identifier, returning nil if no such plan exists.
func GetPlanByID(ctx context.Context, db *gorm.DB, planID string) (*model.Plan, error) {
	wrapMsg := fmt.Sprintf("unable to look up plan ID '%s'", planID)

	var plan model.Plan
	err := db.WithContext(ctx).Where("id = ?", planID).First(&plan).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	return &plan, nil
}

// GetPlanByName looks up the plan with the given name, returning nil if no such plan exists.
func GetPlanByName(ctx context.Context, db *gorm.DB, name string) (*model.Plan, error) {
	wrapMsg := fmt.Sprintf("unable to look up plan name '%s'", name)

	var plan model.Plan
	err := db.WithContext(ctx).Where("name = ?", name).First(&plan).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	return &plan, nil
}

// ListActivePlans lists all of the plans that can currently be subscribed to, ordered by price.
func ListActivePlans(ctx context.Context, db *gorm.DB) ([]model.Plan, error) {
	wrapMsg := "unable to list plans"

	var plans []model.Plan
	err := db.WithContext(ctx).
		Where("is_active").
		Order("price asc").
		Find(&plans).Error
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	return plans, nil
}

// InsertPlanIfMissing inserts a plan unless a plan with the same name already exists. A name conflict is a
// no-op rather than an error so that seeding can safely run at every process start. The returned flag
// indicates whether a row was actually inserted.
func InsertPlanIfMissing(ctx context.Context, db *gorm.DB, plan *model.Plan) (bool, error) {
	wrapMsg := fmt.Sprintf("unable to insert plan '%s'", plan.Name)

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(plan)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, wrapMsg)
	}
	return result.RowsAffected > 0, nil
}

// InsertPlan inserts a new plan. Unlike InsertPlanIfMissing, a name conflict is reported as an error.
func InsertPlan(ctx context.Context, db *gorm.DB, plan *model.Plan) error {
	wrapMsg := fmt.Sprintf("unable to insert plan '%s'", plan.Name)

	err := db.WithContext(ctx).Create(plan).Error
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	return nil
}

// DeactivatePlan marks the plan with the given identifier as inactive. Deactivated plans can no longer be
// subscribed to, but existing subscriptions referencing them continue to resolve.
func DeactivatePlan(ctx context.Context, db *gorm.DB, planID string) (bool, error) {
	wrapMsg := fmt.Sprintf("unable to deactivate plan ID '%s'", planID)

	result := db.WithContext(ctx).
		Model(&model.Plan{}).
		Where("id = ?", planID).
		UpdateColumn("is_active", false)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, wrapMsg)
	}
	return result.RowsAffected > 0, nil
}
