package httpmodel

import (
	"fmt"

	"github.com/toolbench/quotagate/internal/model"
)

// NewPlan
//
// swagger:model
type NewPlan struct {

	// The plan name
	//
	// required: true
	Name string `json:"name"`

	// The monthly price of the plan
	//
	// required: true
	Price float64 `json:"price"`

	// The number of days a subscription to the plan remains active
	//
	// required: true
	DurationDays int `json:"duration_days"`

	// The monthly cap for each resource kind
	//
	// required: true
	Caps map[string]int `json:"caps"`

	// The ordered list of human readable feature descriptions
	Features []string `json:"features"`
}

// Validate verifies that all of the required fields in a new plan are present and sensible.
func (p NewPlan) Validate() error {

	// The plan name is required.
	if p.Name == "" {
		return fmt.Errorf("a plan name is required")
	}

	// The price can't be negative.
	if p.Price < 0 {
		return fmt.Errorf("the plan price must not be less than zero")
	}

	// The duration has to be specified for a plan people can subscribe to.
	if p.DurationDays <= 0 {
		return fmt.Errorf("the plan duration must be greater than zero")
	}

	// Every cap has to reference a known resource kind and be non-negative.
	for name, cap := range p.Caps {
		if _, ok := model.LookupResourceKind(name); !ok {
			return fmt.Errorf("unknown resource kind: %s", name)
		}
		if cap < 0 {
			return fmt.Errorf("the cap for %s must not be less than zero", name)
		}
	}

	return nil
}

// ToDBModel converts a new plan to its equivalent database model.
func (p NewPlan) ToDBModel() model.Plan {
	plan := model.Plan{
		Name:         p.Name,
		Price:        p.Price,
		DurationDays: p.DurationDays,
		IsActive:     true,
	}

	for name, cap := range p.Caps {
		switch name {
		case model.ResourceTypeChats:
			plan.MaxChatsPerMonth = cap
		case model.ResourceTypeDocuments:
			plan.MaxDocuments = cap
		case model.ResourceTypeHRDocuments:
			plan.MaxHRDocuments = cap
		case model.ResourceTypeVideoUploads:
			plan.MaxVideoUploads = cap
		case model.ResourceTypeDynamicPromptDocuments:
			plan.MaxDynamicPromptDocuments = cap
		}
	}

	if len(p.Features) > 0 {
		plan.Features = model.FeatureList(p.Features...)
	}

	return plan
}
