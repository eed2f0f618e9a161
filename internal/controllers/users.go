package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/model"
)

// SubscriptionInfo describes the subscription governing a user's profile.
//
// swagger:model
type SubscriptionInfo struct {
	// The name of the plan
	PlanName string `json:"plan_name"`

	// The monthly price of the plan
	Price float64 `json:"price"`

	// The subscription status
	Status string `json:"status,omitempty"`

	// The payment status
	PaymentStatus string `json:"payment_status,omitempty"`

	// The date the subscription lapses
	EndDate *time.Time `json:"end_date,omitempty"`
}

// UserProfile describes a user along with the subscription and usage information for the current month.
//
// swagger:model
type UserProfile struct {
	// The username
	Username string `json:"username"`

	// True if the user currently has a paid subscription
	IsSubscribed bool `json:"is_subscribed"`

	// The date the current subscription lapses, if any
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`

	// The subscription governing the user
	Subscription SubscriptionInfo `json:"subscription"`

	// The current month's usage summary
	Usage *UsageSummary `json:"usage"`
}

// GetUserProfile returns a user's profile along with subscription and usage details.
//
// swagger:route GET /v1/users/{username}/profile users getUserProfile
//
// # Get User Profile
//
// Returns the user's profile, including the governing subscription and the current month's usage.
//
// Responses:
//
//	200: userProfileResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) GetUserProfile(ctx echo.Context) error {
	var err error

	log := log.WithFields(logrus.Fields{"context": "getting user profile"})

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

	now := time.Now()

	plan, sub, err := s.Ledger.EffectivePlan(context, user.ID, now)
	if err != nil {
		log.Error(err)
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	summary, err := s.usageSummary(context, user.ID, now)
	if err != nil {
		log.Error(err)
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	// Reload the user record. EffectivePlan may have expired a lapsed subscription.
	user, err = db.GetUser(context, s.GORMDB, username)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	profile := UserProfile{
		Username:            user.Username,
		IsSubscribed:        user.IsSubscribed,
		SubscriptionEndDate: user.SubscriptionEndDate,
		Subscription: SubscriptionInfo{
			PlanName: plan.Name,
			Price:    plan.Price,
		},
		Usage: summary,
	}
	if sub != nil {
		profile.Subscription.Status = sub.Status
		profile.Subscription.PaymentStatus = sub.PaymentStatus
		profile.Subscription.EndDate = &sub.EndDate
	}

	log.Debug("assembled the user profile")

	return model.Success(ctx, profile, http.StatusOK)
}

// GetCurrentSubscription returns the subscription currently governing a user.
//
// swagger:route GET /v1/users/{username}/subscription users getCurrentSubscription
//
// # Get Current Subscription
//
// Returns the subscription currently governing the user. Users without an active paid
// subscription are governed by the free plan.
//
// Responses:
//
//	200: subscriptionInfoResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) GetCurrentSubscription(ctx echo.Context) error {
	var err error

	log := log.WithFields(logrus.Fields{"context": "getting current subscription"})

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

	plan, sub, err := s.Ledger.EffectivePlan(context, user.ID, time.Now())
	if err != nil {
		log.Error(err)
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	info := SubscriptionInfo{
		PlanName: plan.Name,
		Price:    plan.Price,
	}
	if sub != nil {
		info.Status = sub.Status
		info.PaymentStatus = sub.PaymentStatus
		info.EndDate = &sub.EndDate
	}

	return model.Success(ctx, info, http.StatusOK)
}
