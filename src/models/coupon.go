package models

import (
	"loketkita/src/types"
	"time"
)

// Coupon is a platform-wide discount code.
type Coupon struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Discount  string    `gorm:"size:16;not null" json:"discount"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	types.Timestamps
}

func (c Coupon) ActiveAt(t time.Time) bool {
	return !t.Before(c.StartDate) && !t.After(c.EndDate)
}
