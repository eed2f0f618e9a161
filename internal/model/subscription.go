package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription status constants. A subscription leaves the active status exactly once: either because the user
// cancelled it, or because its end date passed.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Payment status constants. The payment status is opaque to quota enforcement; it is stored for the billing
// system that surrounds this service.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Subscription
//
// swagger:model
type Subscription struct {
	// The subscription identifier
	//
	// readOnly: true
	ID string `gorm:"type:uuid;primaryKey" json:"id,omitempty"`

	// The user identifier. The partial unique index backs the single-active-subscription invariant at the
	// database level; the subscribe transaction alone can't guarantee it under concurrent calls.
	UserID string `gorm:"type:uuid;not null;index;uniqueIndex:subscriptions_one_active,where:status = 'active'" json:"-"`

	// The user associated with the subscription
	User *User `json:"user,omitempty"`

	// The identifier of the plan associated with the subscription
	PlanID string `gorm:"type:uuid;not null" json:"-"`

	// The plan associated with the subscription
	Plan *Plan `json:"plan,omitempty"`

	// The date and time the subscription becomes active
	StartDate time.Time `gorm:"not null" json:"start_date"`

	// The date and time the subscription expires
	EndDate time.Time `gorm:"not null" json:"end_date"`

	// The subscription status
	Status string `gorm:"not null;default:active" json:"status"`

	// The payment status for the subscription
	PaymentStatus string `gorm:"not null;default:pending" json:"payment_status"`

	// The date and time the subscription was created
	//
	// readOnly: true
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// BeforeCreate generates an identifier for a new subscription.
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Lapsed reports whether the subscription's end date has passed. Both the read path and the expiry sweeper use
// this single predicate so that the two can never disagree about when a subscription expires.
func (s *Subscription) Lapsed(now time.Time) bool {
	return now.After(s.EndDate)
}
