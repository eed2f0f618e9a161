package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/toolbench/quotagate/internal/db"
	"github.com/toolbench/quotagate/internal/httpmodel"
	"github.com/toolbench/quotagate/internal/model"
)

// Admit atomically checks a user's quota and records the consumption if the request fits.
//
// swagger:route POST /v1/admissions admissions admitUsage
//
// # Admit Resource Consumption
//
// Checks whether the requested consumption fits within the user's remaining monthly quota
// and records it if so. The check and the increment happen atomically, so concurrent
// requests can never admit more than the cap allows. Admitted consumption is charged
// immediately and is not refunded if the caller's subsequent work fails.
//
// Responses:
//
//	200: admitResultResponse
//	400: badRequestResponse
//	403: admitDeniedResponse
//	500: internalServerErrorResponse
func (s Server) Admit(ctx echo.Context) error {
	var err error

	log := log.WithFields(logrus.Fields{"context": "admitting resource consumption"})

	context := ctx.Request().Context()

	admissionRequest := new(httpmodel.AdmissionRequest)
	if err = ctx.Bind(admissionRequest); err != nil {
		return model.Error(ctx, "invalid request body", http.StatusBadRequest)
	}
	if err = admissionRequest.Validate(); err != nil {
		return model.Error(ctx, err.Error(), http.StatusBadRequest)
	}

	log = log.WithFields(logrus.Fields{
		"user":     admissionRequest.Username,
		"resource": admissionRequest.Resource,
		"amount":   admissionRequest.Amount,
	})

	user, err := db.GetUser(context, s.GORMDB, admissionRequest.Username)
	if err != nil {
		log.Error(err)
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	result, err := s.Gate.Admit(context, user.ID, admissionRequest.Resource, admissionRequest.Amount)
	if err != nil {
		if errors.Is(err, model.ErrInvalidAmount) {
			return model.Error(ctx, err.Error(), http.StatusBadRequest)
		}
		log.Error(err)
		return model.Error(ctx, err.Error(), http.StatusInternalServerError)
	}

	if !result.Allowed {
		log.Infof("denied: %d of %d %s used", result.Current, result.Cap, result.ResourceKind)
		return model.Failure(ctx, result, "monthly quota exceeded", http.StatusForbidden)
	}

	log.Debugf("admitted: %d of %d %s used", result.Current, result.Cap, result.ResourceKind)

	return model.Success(ctx, result, http.StatusOK)
}
