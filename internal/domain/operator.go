package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Operator is the admin account. The site is run by a single operator, but
// nothing prevents seeding more than one row.
type Operator struct {
	OperatorID   uuid.UUID `gorm:"column:operator_id;type:uuid;primaryKey" json:"operator_id"`
	Fullname     string    `gorm:"column:fullname;not null" json:"fullname"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Operator) TableName() string {
	return "operators"
}

func (o *Operator) BeforeCreate(tx *gorm.DB) error {
	if o.OperatorID == uuid.Nil {
		o.OperatorID = uuid.New()
	}
	return nil
}
