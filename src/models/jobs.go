package models

import (
	"loketkita/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobTask records one run of a scheduled sweep.
type JobTask struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`

	Name       string          `gorm:"index" json:"name"`
	JobType    string          `json:"job_type"`
	RunsAt     time.Time       `json:"runs_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Status     types.JobStatus `gorm:"default:'running'" json:"status"`
	Payload    types.JSONB     `gorm:"type:jsonb" json:"payload,omitempty"`
	Error      string          `json:"error,omitempty"`

	types.Timestamps
}

func (j *JobTask) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// All returns every model handled by migrations.
func All() []any {
	return []any{
		&User{},
		&PointHistory{},
		&Event{},
		&Voucher{},
		&Coupon{},
		&Transaction{},
		&Review{},
		&JobTask{},
	}
}
