package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/httpmodel"
	"github.com/toolbench/quotagate/internal/model"
	"github.com/toolbench/quotagate/internal/query"
	"github.com/toolbench/quotagate/utils"
)

// Subscribe creates a new subscription for a user, superseding any subscription that was active before.
//
// swagger:route POST /v1/subscriptions subscriptions subscribe
//
// # Subscribe
//
// Subscribes a user to a plan. Any previously active subscription for the user is superseded.
//
// Responses:
//
//	200: subscriptionResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) Subscribe(ctx echo.Context) error {
	var err error

	log := log.WithFields(logrus.Fields{"context": "subscribe"})

	context := ctx.Request().Context()

	// Parse and validate the request body.
	var body httpmodel.SubscriptionRequest
	if err = ctx.Bind(&body); err != nil {
		return model.Error(ctx, "invalid request body", http.StatusBadRequest)
	}
	if err = body.Validate(); err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	username := utils.RemoveUsernameSuffix(body.Username)
	log = log.WithFields(logrus.Fields{"user": username, "planID": body.PlanID})

	// Look up the user, adding the user to the database if necessary.
	user, err := db.GetUser(context, s.GORMDB, username)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	subscription, err := s.Ledger.Subscribe(context, user.ID, body.PlanID, time.Now())
	if err == model.ErrPlanNotFound {
		msg := fmt.Sprintf("plan ID %s not found", body.PlanID)
		return model.Error(ctx, msg, http.StatusNotFound)
	}
	if err != nil {
		log.Error(err)
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	log.Infof("subscribed to plan %s until %s", subscription.Plan.Name, subscription.EndDate)

	return model.Success(ctx, subscription, http.StatusOK)
}

// CancelSubscription cancels the user's active subscription.
//
// swagger:route DELETE /v1/users/{username}/subscription subscriptions cancelSubscription
//
// # Cancel Subscription
//
// Cancels the user's active subscription. Usage counters are left alone.
//
// Responses:
//
//	200: successMessageResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) CancelSubscription(ctx echo.Context) error {
	var err error

	log := log.WithFields(logrus.Fields{"context": "cancel subscription"})

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

	err = s.Ledger.Cancel(context, user.ID, time.Now())
	if err == model.ErrNoActiveSubscription {
		return model.Error(ctx, "no active subscription to cancel", http.StatusBadRequest)
	}
	if err != nil {
		log.Error(err)
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	log.Info("cancelled the subscription")

	return model.SuccessMessage(ctx, "subscription cancelled successfully", http.StatusOK)
}

// GetSubscriptionHistory lists a user's subscriptions, newest first, optionally filtered by status.
//
// swagger:route GET /v1/users/{username}/subscriptions subscriptions getSubscriptionHistory
//
// # Get Subscription History
//
// Lists the user's subscriptions, newest first. The listing can be restricted to a single
// subscription status.
//
// Responses:
//
//	200: subscriptionsResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) GetSubscriptionHistory(ctx echo.Context) error {
	var err error

	log := log.WithFields(logrus.Fields{"context": "subscription history"})

	context := ctx.Request().Context()

	username, err := extractUsername(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}
	log = log.WithFields(logrus.Fields{"user": username})

	if err = s.ValidateUser(ctx, username); err != nil {
		return nil
	}

	// Extract and validate the paging parameters.
	defaultLimit := int32(50)
	limit, err := query.ValidateIntQueryParam(ctx, "limit", &defaultLimit, "gte=0")
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}
	defaultOffset := int32(0)
	offset, err := query.ValidateIntQueryParam(ctx, "offset", &defaultOffset, "gte=0")
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	// An omitted status lists subscriptions in every state.
	defaultStatus := ""
	validStatuses := []string{
		model.SubscriptionStatusActive,
		model.SubscriptionStatusCancelled,
		model.SubscriptionStatusExpired,
	}
	status, err := query.ValidateEnumQueryParam(ctx, "status", validStatuses, &defaultStatus)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	user, err := db.GetUser(context, s.GORMDB, username)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	subscriptions, err := s.Ledger.History(context, user.ID, status, int(limit), int(offset))
	if err != nil {
		log.Error(err)
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	log.Debug("listed the subscription history")

	return model.Success(ctx, subscriptions, http.StatusOK)
}

// SweepExpiredSubscriptions runs the subscription expiry sweep immediately. The sweep also runs periodically
// in the background; this endpoint lets operators trigger it by hand.
//
// swagger:route POST /v1/subscriptions/sweep subscriptions sweepExpiredSubscriptions
//
// # Sweep Expired Subscriptions
//
// Marks every subscription past its end date as expired.
//
// Responses:
//
//	200: successMessageResponse
//	500: internalServerErrorResponse
func (s Server) SweepExpiredSubscriptions(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "manual expiry sweep"})

	context := ctx.Request().Context()

	count, err := s.Ledger.SweepExpired(context, time.Now())
	if err != nil {
		log.Error(err)
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	log.Infof("manual sweep transitioned %d subscriptions", count)

	successMsg := fmt.Sprintf("%d subscriptions transitioned to expired", count)
	return model.SuccessMessage(ctx, successMsg, http.StatusOK)
}
