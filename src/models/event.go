package models

import (
	"loketkita/src/types"
	"time"
)

type Event struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Location    string            `json:"location,omitempty"`
	StartDate   time.Time         `json:"start_date,omitempty"`
	EndDate     time.Time         `json:"end_date,omitempty"`
	Quota       int64             `gorm:"not null;check:quota >= 0" json:"quota"`
	Price       int64             `gorm:"not null;default:0" json:"price"`
	Status      types.EventStatus `gorm:"default:'draft'" json:"status,omitempty"`
	OrganizerID uint              `gorm:"index" json:"organizer_id,omitempty"`

	Organizer User      `gorm:"foreignKey:organizer_id" json:"-"`
	Vouchers  []Voucher `gorm:"foreignKey:event_id" json:"vouchers,omitempty"`
	Reviews   []Review  `gorm:"foreignKey:event_id" json:"reviews,omitempty"`

	types.Timestamps
}
