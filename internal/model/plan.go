package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlanNameFree is the name of the reserved default plan. Users without an active subscription are governed by
// this plan, so it must always exist.
const PlanNameFree = "Free"

// Plan
//
// swagger:model
type Plan struct {
	// The plan identifier
	//
	// readOnly: true
	ID string `gorm:"type:uuid;primaryKey" json:"id,omitempty"`

	// The plan name
	//
	// required: true
	Name string `gorm:"not null;unique" json:"name"`

	// The monthly price of the plan
	Price float64 `gorm:"not null" json:"price"`

	// The number of days a subscription to the plan remains active
	DurationDays int `gorm:"not null" json:"duration_days"`

	// The maximum number of chat turns per calendar month
	MaxChatsPerMonth int `gorm:"not null;default:0" json:"max_chats_per_month"`

	// The maximum number of document uploads per calendar month
	MaxDocuments int `gorm:"not null;default:0" json:"max_documents"`

	// The maximum number of HR document uploads per calendar month
	MaxHRDocuments int `gorm:"column:max_hr_documents;not null;default:0" json:"max_hr_documents"`

	// The maximum number of video uploads per calendar month
	MaxVideoUploads int `gorm:"not null;default:0" json:"max_video_uploads"`

	// The maximum number of dynamic prompt document uploads per calendar month
	MaxDynamicPromptDocuments int `gorm:"not null;default:0" json:"max_dynamic_prompt_documents"`

	// The ordered list of human readable feature descriptions for the plan
	Features datatypes.JSON `json:"features,omitempty"`

	// True if the plan can currently be subscribed to. Plans are never deleted, only deactivated, so that
	// historical subscriptions remain resolvable.
	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	// The date and time the plan was created
	//
	// readOnly: true
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// BeforeCreate generates an identifier for a new plan.
func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// CapFor returns the monthly cap for the given resource kind. Unrecognized resource kinds get a cap of zero so
// that requests for them are always denied rather than admitted unmetered.
func (p *Plan) CapFor(resourceKind string) int {
	switch resourceKind {
	case ResourceTypeChats:
		return p.MaxChatsPerMonth
	case ResourceTypeDocuments:
		return p.MaxDocuments
	case ResourceTypeHRDocuments:
		return p.MaxHRDocuments
	case ResourceTypeVideoUploads:
		return p.MaxVideoUploads
	case ResourceTypeDynamicPromptDocuments:
		return p.MaxDynamicPromptDocuments
	default:
		return 0
	}
}

// FeatureList encodes a list of feature descriptions as a JSON column value.
func FeatureList(features ...string) datatypes.JSON {
	encoded, _ := json.Marshal(features)
	return datatypes.JSON(encoded)
}

// DefaultPlans returns the plans that are seeded into the database at startup. Seeding is idempotent: a plan is
// only inserted if no plan with the same name exists.
func DefaultPlans() []Plan {
	return []Plan{
		{
			Name:                      PlanNameFree,
			Price:                     0.00,
			DurationDays:              0,
			MaxChatsPerMonth:          10,
			MaxDocuments:              2,
			MaxHRDocuments:            2,
			MaxVideoUploads:           1,
			MaxDynamicPromptDocuments: 5,
			Features: FeatureList(
				"10 AI chats per month",
				"2 document uploads",
				"2 HR document uploads",
				"1 video upload",
				"5 dynamic prompt document uploads",
			),
			IsActive: true,
		},
		{
			Name:                      "Basic",
			Price:                     9.99,
			DurationDays:              30,
			MaxChatsPerMonth:          100,
			MaxDocuments:              20,
			MaxHRDocuments:            20,
			MaxVideoUploads:           10,
			MaxDynamicPromptDocuments: 10,
			Features: FeatureList(
				"100 AI chats per month",
				"20 document uploads",
				"20 HR document uploads",
				"10 video uploads",
				"10 dynamic prompt document uploads",
				"Priority support",
			),
			IsActive: true,
		},
		{
			Name:                      "Pro",
			Price:                     19.99,
			DurationDays:              30,
			MaxChatsPerMonth:          500,
			MaxDocuments:              100,
			MaxHRDocuments:            100,
			MaxVideoUploads:           50,
			MaxDynamicPromptDocuments: 50,
			Features: FeatureList(
				"500 AI chats per month",
				"100 document uploads",
				"100 HR document uploads",
				"50 video uploads",
				"50 dynamic prompt document uploads",
				"Advanced analytics",
				"Priority support",
				"Custom integrations",
			),
			IsActive: true,
		},
		{
			Name:                      "Enterprise",
			Price:                     49.99,
			DurationDays:              30,
			MaxChatsPerMonth:          2000,
			MaxDocuments:              500,
			MaxHRDocuments:            500,
			MaxVideoUploads:           200,
			MaxDynamicPromptDocuments: 200,
			Features: FeatureList(
				"2000 AI chats per month",
				"500 document uploads",
				"500 HR document uploads",
				"200 video uploads",
				"200 dynamic prompt document uploads",
				"Advanced analytics",
				"Priority support",
				"Custom integrations",
				"Dedicated account manager",
				"API access",
			),
			IsActive: true,
		},
	}
}
