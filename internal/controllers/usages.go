package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/model"
)

// ResourceUsage summarizes the consumption of a single resource kind for one calendar month.
//
// swagger:model
type ResourceUsage struct {
	// The resource kind name
	Resource string `json:"resource"`

	// A human readable description of one unit of the resource
	Unit string `json:"unit"`

	// The number of units used this month
	Used int `json:"used"`

	// The monthly cap under the governing plan
	Cap int `json:"cap"`

	// The number of units still available this month
	Remaining int `json:"remaining"`
}

// UsageSummary summarizes a user's consumption for one calendar month against the caps of the governing plan.
//
// swagger:model
type UsageSummary struct {
	// The calendar month the summary applies to
	MonthYear string `json:"month_year"`

	// The name of the plan whose caps govern the user
	Plan string `json:"plan"`

	// The per-resource consumption details
	Resources []ResourceUsage `json:"resources"`
}

// usageSummary assembles the current month's usage summary for a user.
func (s Server) usageSummary(ctx context.Context, userID string, now time.Time) (*UsageSummary, error) {
	plan, _, err := s.Ledger.EffectivePlan(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	record, err := s.Counter.CurrentUsage(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	summary := UsageSummary{
		MonthYear: record.MonthYear,
		Plan:      plan.Name,
	}
	for _, kind := range model.ResourceKinds() {
		used := record.CounterFor(kind.Name)
		cap := plan.CapFor(kind.Name)
		remaining := cap - used
		if remaining < 0 {
			remaining = 0
		}
		summary.Resources = append(summary.Resources, ResourceUsage{
			Resource:  kind.Name,
			Unit:      kind.Unit,
			Used:      used,
			Cap:       cap,
			Remaining: remaining,
		})
	}

	return &summary, nil
}

// GetUserUsage returns the user's current month usage along with the caps of the governing plan.
//
// swagger:route GET /v1/users/{username}/usages usages getUserUsage
//
// # Get User Usage
//
// Returns the user's consumption for the current calendar month.
//
// Responses:
//
//	200: usageSummaryResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) GetUserUsage(ctx echo.Context) error {
	var err error

	log := log.WithFields(logrus.Fields{"context": "getting user usage"})

	context := ctx.Request().Context()

	username, err := extractUsername(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}
	log = log.WithFields(logrus.Fields{"user": username})

	if err = s.ValidateUser(ctx, username); err != nil {
		return nil
	}

	user, err := db.GetUser(context, s.GORMDB, username)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	summary, err := s.usageSummary(context, user.ID, time.Now())
	if err != nil {
		log.Error(err)
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	log.Debug("assembled the usage summary")

	return model.Success(ctx, summary, http.StatusOK)
}
