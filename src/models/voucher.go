package models

import (
	"loketkita/src/types"
	"time"
)

// Voucher is a discount code scoped to a single event.
type Voucher struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	EventID   uint      `gorm:"uniqueIndex:idx_voucher_event_code;not null" json:"event_id"`
	Code      string    `gorm:"uniqueIndex:idx_voucher_event_code;size:64;not null" json:"code"`
	Discount  string    `gorm:"size:16;not null" json:"discount"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Event Event `gorm:"foreignKey:event_id" json:"-"`

	types.Timestamps
}

func (v Voucher) ActiveAt(t time.Time) bool {
	return !t.Before(v.StartDate) && !t.After(v.EndDate)
}
