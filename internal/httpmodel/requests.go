package httpmodel

import "fmt"

// SubscriptionRequest represents a request to subscribe a user to a plan.
//
// swagger:model
type SubscriptionRequest struct {
	// The username to associate with the subscription
	//
	// required: true
	Username string `json:"username"`

	// The identifier of the plan to subscribe to
	//
	// required: true
	PlanID string `json:"plan_id"`
}

// Validate verifies that the required subscription fields are present.
func (r SubscriptionRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("no username provided in request")
	}
	if r.PlanID == "" {
		return fmt.Errorf("no plan ID provided in request")
	}
	return nil
}

// AdmissionRequest represents a request to reserve resource consumption before performing a unit of work.
//
// swagger:model
type AdmissionRequest struct {
	// The username of the acting user
	//
	// required: true
	Username string `json:"username"`

	// The resource kind being consumed
	//
	// required: true
	Resource string `json:"resource"`

	// The number of units to reserve; defaults to one
	Amount int `json:"amount"`
}

// Validate verifies that the required admission fields are present and applies the default amount.
func (r *AdmissionRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("no username provided in request")
	}
	if r.Resource == "" {
		return fmt.Errorf("no resource kind provided in request")
	}
	if r.Amount == 0 {
		r.Amount = 1
	}
	if r.Amount < 0 {
		return fmt.Errorf("the amount must be greater than zero")
	}
	return nil
}
