package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User holds the account fields this service cares about. The is_subscribed and subscription_end_date fields
// are a denormalized cache of the user's active subscription row, maintained by the subscription ledger on
// every transition so that profile reads don't need a join. The subscription row remains the source of truth.
//
// swagger:model
type User struct {
	// The user identifier
	//
	// readOnly: true
	ID string `gorm:"type:uuid;primaryKey" json:"id,omitempty"`

	// The username
	//
	// required: true
	Username string `gorm:"not null;unique" json:"username"`

	// True if the user currently has an active subscription
	IsSubscribed bool `gorm:"not null;default:false" json:"is_subscribed"`

	// The end date of the user's active subscription, if any
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`
}

// BeforeCreate generates an identifier for a new user.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
