package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead status values — where the operator is in the follow-up pipeline.
// Every transition is allowed in both directions (closed leads can reopen).
const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadScheduled = "scheduled"
	LeadClosed    = "closed"
)

// ValidLeadStatus reports whether s is one of the four allowed status literals.
func ValidLeadStatus(s string) bool {
	switch s {
	case LeadNew, LeadContacted, LeadScheduled, LeadClosed:
		return true
	}
	return false
}

// Lead is one contact-form submission. ListingID is a plain uuid column,
// not a foreign key: the referenced listing may be deleted later and the
// lead must survive with its ListingTitle snapshot intact.
type Lead struct {
	LeadID        uuid.UUID  `gorm:"column:lead_id;type:uuid;primaryKey" json:"lead_id"`
	Name          string     `gorm:"column:name;not null" json:"name"`
	Email         string     `gorm:"column:email;not null" json:"email"`
	Phone         *string    `gorm:"column:phone" json:"phone"`
	PreferredDate *string    `gorm:"column:preferred_date" json:"preferred_date"`
	PreferredTime *string    `gorm:"column:preferred_time" json:"preferred_time"`
	Message       *string    `gorm:"column:message" json:"message"`
	ListingID     *uuid.UUID `gorm:"column:listing_id;type:uuid" json:"listing_id"`
	ListingTitle  *string    `gorm:"column:listing_title" json:"listing_title"`
	Status        string     `gorm:"column:status;type:varchar(20);not null;index:idx_leads_status" json:"status"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.LeadID == uuid.Nil {
		l.LeadID = uuid.New()
	}
	return nil
}
