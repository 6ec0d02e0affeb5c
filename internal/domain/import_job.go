package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImportJob records one CSV listing import: how many rows landed, how many
// were rejected, and the per-row error messages (json column).
type ImportJob struct {
	ImportID  uuid.UUID      `gorm:"column:import_id;type:uuid;primaryKey" json:"import_id"`
	Filename  string         `gorm:"column:filename;not null" json:"filename"`
	Inserted  int            `gorm:"column:inserted;not null" json:"inserted"`
	Rejected  int            `gorm:"column:rejected;not null" json:"rejected"`
	RowErrors datatypes.JSON `gorm:"column:row_errors;type:json" json:"row_errors"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}

func (j *ImportJob) BeforeCreate(tx *gorm.DB) error {
	if j.ImportID == uuid.Nil {
		j.ImportID = uuid.New()
	}
	return nil
}
