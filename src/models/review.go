package models

import "loketkita/src/types"

type Review struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	UserID  uint   `gorm:"uniqueIndex:idx_review_user_event;not null" json:"user_id"`
	EventID uint   `gorm:"uniqueIndex:idx_review_user_event;not null" json:"event_id"`
	Rating  int    `gorm:"not null" json:"rating"`
	Comment string `json:"comment,omitempty"`

	User User `gorm:"foreignKey:user_id" json:"-"`

	types.Timestamps
}
