package models

import (
	"loketkita/src/types"
	"time"

	"github.com/google/uuid"
)

// PointHistory is one movement of a user's point balance. Grants carry an
// ExpiresAt and are flagged Expired once the expiry sweep has taken them back.
type PointHistory struct {
	ID            uint                 `gorm:"primarykey" json:"id"`
	UserID        uint                 `gorm:"index;not null" json:"user_id"`
	Type          types.PointEntryType `gorm:"size:16;index" json:"type"`
	Points        int64                `json:"points"`
	Description   string               `json:"description,omitempty"`
	ExpiresAt     *time.Time           `gorm:"index" json:"expires_at,omitempty"`
	Expired       bool                 `gorm:"default:false" json:"expired"`
	TransactionID *uuid.UUID           `gorm:"type:uuid;index" json:"transaction_id,omitempty"`

	User User `gorm:"foreignKey:user_id" json:"-"`

	types.Timestamps
}
