package controllers

import (
	"fmt"
	"net/http"

	"github.com/cyverse-de/echo-middleware/v2/params"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/internal/httpmodel"
	"github.com/toolbench/quotagate/internal/model"
)

// extractPlanID extracts and validates the plan ID path parameter.
func extractPlanID(ctx echo.Context) (string, error) {
	planID, err := params.ValidatedPathParam(ctx, "plan_id", "uuid_rfc4122")
	if err != nil {
		return "", fmt.Errorf("the plan ID must be a valid UUID")
	}
	return planID, nil
}

// GetAllPlans is the handler for the GET /v1/plans endpoint.
//
// swagger:route GET /v1/plans plans listPlans
//
// # List Plans
//
// Lists all of the plans that can currently be subscribed to.
//
// responses:
//
//	200: plansResponse
//	500: internalServerErrorResponse
func (s Server) GetAllPlans(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "getting all plans"})

	context := ctx.Request().Context()

	plans, err := s.Catalog.GetActivePlans(context)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	log.Debug("listed the active plans from the database")

	return model.Success(ctx, plans, http.StatusOK)
}

// GetPlanByID returns the plan with the given identifier.
//
// swagger:route GET /v1/plans/{plan_id} plans getPlanByID
//
// # Get Plan Information
//
// Returns the plan with the given identifier.
//
// responses:
//
//	200: planResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) GetPlanByID(ctx echo.Context) error {
	var err error

	log := log.WithFields(logrus.Fields{"context": "getting plan by id"})

	context := ctx.Request().Context()

	// Extract and validate the plan ID.
	planID, err := extractPlanID(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{"planID": planID})

	// Look up the plan.
	plan, err := s.Catalog.GetPlan(context, planID)
	if err == model.ErrPlanNotFound {
		msg := fmt.Sprintf("plan ID %s not found", planID)
		return model.Error(ctx, msg, http.StatusNotFound)
	}
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	log.Debug("successfully looked up the plan")

	return model.Success(ctx, plan, http.StatusOK)
}

// AddPlan adds a new plan to the database.
//
// swagger:route POST /v1/plans plans addPlan
//
// # Add Plan
//
// Adds a new subscription plan.
//
// Responses:
//
//	200: planResponse
//	400: badRequestResponse
//	409: conflictResponse
//	500: internalServerErrorResponse
func (s Server) AddPlan(ctx echo.Context) error {
	var err error

	log := log.WithFields(logrus.Fields{"context": "adding plan"})

	context := ctx.Request().Context()

	// Parse and validate the request body.
	var newPlan httpmodel.NewPlan
	if err = ctx.Bind(&newPlan); err != nil {
		return model.Error(ctx, "invalid request body", http.StatusBadRequest)
	}
	if err = newPlan.Validate(); err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{"planName": newPlan.Name})

	// Reject duplicate plan names explicitly so the caller gets a conflict rather than a bare database error.
	existing, err := s.Catalog.GetPlanByName(context, newPlan.Name)
	if err != nil && err != model.ErrPlanNotFound {
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}
	if existing != nil {
		msg := fmt.Sprintf("a plan named %s already exists", newPlan.Name)
		return model.Error(ctx, msg, http.StatusConflict)
	}

	plan := newPlan.ToDBModel()
	if err = s.Catalog.AddPlan(context, &plan); err != nil {
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	log.Info("added the plan to the database")

	return model.Success(ctx, plan, http.StatusOK)
}

// DeactivatePlan marks a plan as inactive. Plans are never deleted so that historical subscriptions
// referencing them remain resolvable.
//
// swagger:route POST /v1/plans/{plan_id}/deactivate plans deactivatePlan
//
// # Deactivate Plan
//
// Marks the plan with the given identifier as inactive.
//
// Responses:
//
//	200: successMessageResponse
//	400: badRequestResponse
//	404: notFoundResponse
//	500: internalServerErrorResponse
func (s Server) DeactivatePlan(ctx echo.Context) error {
	var err error

	log := log.WithFields(logrus.Fields{"context": "deactivating plan"})

	context := ctx.Request().Context()

	// Extract and validate the plan ID.
	planID, err := extractPlanID(ctx)
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{"planID": planID})

	err = s.Catalog.DeactivatePlan(context, planID)
	if err == model.ErrPlanNotFound {
		msg := fmt.Sprintf("plan ID %s not found", planID)
		return model.Error(ctx, msg, http.StatusNotFound)
	}
	if err != nil {
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	log.Info("deactivated the plan")

	successMsg := fmt.Sprintf("plan %s has been deactivated", planID)
	return model.SuccessMessage(ctx, successMsg, http.StatusOK)
}
