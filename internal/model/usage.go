package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MonthKeyFormat is the layout used to bucket usage counters by calendar month.
const MonthKeyFormat = "2006-01"

// MonthKey returns the calendar month identifier (for example, "2025-01") for the given point in time.
// Counters reset implicitly by keying on this value, so there is no explicit reset job.
func MonthKey(now time.Time) string {
	return now.UTC().Format(MonthKeyFormat)
}

// UsageRecord holds the per-user resource counters for a single calendar month. There is exactly one record per
// (user, month) pair; the record is created lazily on the first consumption attempt in a new month and is
// retained afterwards for usage history.
//
// swagger:model
type UsageRecord struct {
	// The usage record identifier
	//
	// readOnly: true
	ID string `gorm:"type:uuid;primaryKey" json:"id,omitempty"`

	// The user identifier
	UserID string `gorm:"type:uuid;not null;uniqueIndex:usage_records_user_month" json:"-"`

	// The calendar month the counters apply to, e.g. "2025-01"
	MonthYear string `gorm:"not null;uniqueIndex:usage_records_user_month" json:"month_year"`

	// The number of chat turns used this month
	ChatsUsed int `gorm:"not null;default:0" json:"chats_used"`

	// The number of documents uploaded this month
	DocumentsUploaded int `gorm:"not null;default:0" json:"documents_uploaded"`

	// The number of HR documents uploaded this month
	HRDocumentsUploaded int `gorm:"column:hr_documents_uploaded;not null;default:0" json:"hr_documents_uploaded"`

	// The number of videos uploaded this month
	VideoUploads int `gorm:"not null;default:0" json:"video_uploads"`

	// The number of dynamic prompt documents uploaded this month
	DynamicPromptDocumentsUploaded int `gorm:"not null;default:0" json:"dynamic_prompt_documents_uploaded"`

	// The date and time the record was created
	//
	// readOnly: true
	CreatedAt time.Time `json:"created_at,omitempty"`

	// The date and time a counter was last modified
	//
	// readOnly: true
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// TableName specifies the table name to use in the database.
func (u *UsageRecord) TableName() string {
	return "usage_records"
}

// BeforeCreate generates an identifier for a new usage record.
func (u *UsageRecord) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// CounterFor returns the current counter value for the given resource kind, or zero for an unrecognized kind.
func (u *UsageRecord) CounterFor(resourceKind string) int {
	switch resourceKind {
	case ResourceTypeChats:
		return u.ChatsUsed
	case ResourceTypeDocuments:
		return u.DocumentsUploaded
	case ResourceTypeHRDocuments:
		return u.HRDocumentsUploaded
	case ResourceTypeVideoUploads:
		return u.VideoUploads
	case ResourceTypeDynamicPromptDocuments:
		return u.DynamicPromptDocumentsUploaded
	default:
		return 0
	}
}
