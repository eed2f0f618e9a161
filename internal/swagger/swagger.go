// Package api QuotaGate
//
// Documentation of the QuotaGate Api
//
//	Schemes: http
//	BasePath: /
//	Version: V1
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package swagger

import (
	"github.com/toolbench/quotagate/internal/controllers"
	"github.com/toolbench/quotagate/internal/httpmodel"
	"github.com/toolbench/quotagate/internal/model"
)

// Note: the comments in this package don't conform to the convention of including the name of the entity that the
// comment describes. The reason for this is because the comments appear as-is in the API documentation. Confusing
// documentation is produced when the structure names appear in the API documentation.

// Error
//
// Having the same object definition for multiple HTTP response status codes seems to confuse ReDoc, so we're using
// aliases as a workaround.
//
// swagger:response errorResponse
type ErrorResponse struct {

	// in: body
	Body struct {

		// A brief description of the error
		Error string `json:"error"`

		// The status of the request
		Status string `json:"status"`
	}
}

// Bad Request
//
// swagger:response badRequestResponse
type BadRequestResponse struct {
	ErrorResponse
}

// Not Found
//
// swagger:response notFoundResponse
type NotFoundResponse struct {
	ErrorResponse
}

// Conflict
//
// swagger:response conflictResponse
type ConflictResponse struct {
	ErrorResponse
}

// Internal Server Error
//
// swagger:response internalServerErrorResponse
type InternalServerErrorResponse struct {
	ErrorResponse
}

// Success Message
//
// swagger:response successMessageResponse
type SuccessMessageResponse struct {

	// in: body
	Body struct {

		// A brief description of the outcome
		Result string `json:"result"`

		// The status of the request
		Status string `json:"status"`
	}
}

// General information about the service
//
// swagger:response rootResponse
type RootResponse struct {

	// in: body
	Body controllers.ServiceInfo
}

// Plan Listing
//
// swagger:response plansResponse
type PlansResponse struct {

	// in: body
	Body struct {

		// The list of plans
		Result []model.Plan `json:"result"`

		// The status of the request
		Status string `json:"status"`
	}
}

// Plan Details
//
// swagger:response planResponse
type PlanResponse struct {

	// in: body
	Body struct {

		// The plan details
		Result model.Plan `json:"result"`

		// The status of the request
		Status string `json:"status"`
	}
}

// Subscription Details
//
// swagger:response subscriptionResponse
type SubscriptionResponse struct {

	// in: body
	Body struct {

		// The subscription details
		Result model.Subscription `json:"result"`

		// The status of the request
		Status string `json:"status"`
	}
}

// Subscription Listing
//
// swagger:response subscriptionsResponse
type SubscriptionsResponse struct {

	// in: body
	Body struct {

		// The list of subscriptions, newest first
		Result []model.Subscription `json:"result"`

		// The status of the request
		Status string `json:"status"`
	}
}

// Governing Subscription
//
// swagger:response subscriptionInfoResponse
type SubscriptionInfoResponse struct {

	// in: body
	Body struct {

		// The subscription governing the user
		Result controllers.SubscriptionInfo `json:"result"`

		// The status of the request
		Status string `json:"status"`
	}
}

// Usage Summary
//
// swagger:response usageSummaryResponse
type UsageSummaryResponse struct {

	// in: body
	Body struct {

		// The current month's usage summary
		Result controllers.UsageSummary `json:"result"`

		// The status of the request
		Status string `json:"status"`
	}
}

// User Profile
//
// swagger:response userProfileResponse
type UserProfileResponse struct {

	// in: body
	Body struct {

		// The user profile
		Result controllers.UserProfile `json:"result"`

		// The status of the request
		Status string `json:"status"`
	}
}

// Admission Result
//
// swagger:response admitResultResponse
type AdmitResultResponse struct {

	// in: body
	Body struct {

		// The admission details
		Result interface{} `json:"result"`

		// The status of the request
		Status string `json:"status"`
	}
}

// Admission Denied
//
// swagger:response admitDeniedResponse
type AdmitDeniedResponse struct {

	// in: body
	Body struct {

		// The admission details, including the current usage and the cap
		Result interface{} `json:"result"`

		// A brief description of the denial
		Error string `json:"error"`

		// The status of the request
		Status string `json:"status"`
	}
}

// Parameters for the endpoint used to add plans.
//
// swagger:parameters addPlan
type AddPlanParameters struct {

	// The plan information
	//
	// in: body
	Body httpmodel.NewPlan
}

// Parameters for the endpoints that accept a plan ID.
//
// swagger:parameters getPlanByID deactivatePlan
type PlanIDParameter struct {

	// The plan ID
	//
	// in: path
	// required: true
	PlanID string `json:"plan_id"`
}

// Parameters for the endpoint used to create subscriptions.
//
// swagger:parameters subscribe
type SubscribeParameters struct {

	// The subscription information
	//
	// in: body
	Body httpmodel.SubscriptionRequest
}

// Parameters for the endpoint used to admit resource consumption.
//
// swagger:parameters admitUsage
type AdmitParameters struct {

	// The admission information
	//
	// in: body
	Body httpmodel.AdmissionRequest
}

// Parameters for the endpoints that accept a username.
//
// swagger:parameters getUserProfile getCurrentSubscription cancelSubscription getUserUsage
type UsernameParameter struct {

	// The username
	//
	// in: path
	// required: true
	Username string `json:"username"`
}

// Parameters for the endpoint used to list a user's subscriptions.
//
// swagger:parameters getSubscriptionHistory
type SubscriptionHistoryParameters struct {

	// The username
	//
	// in: path
	// required: true
	Username string `json:"username"`

	// The maximum number of subscriptions to return
	//
	// in: query
	Limit int `json:"limit"`

	// The number of subscriptions to skip
	//
	// in: query
	Offset int `json:"offset"`

	// Restricts the listing to subscriptions with this status
	//
	// in: query
	// enum: active,cancelled,expired
	Status string `json:"status"`
}
