package models

import (
	"loketkita/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Transaction struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`

	UserID    uint  `gorm:"index;not null" json:"user_id"`
	EventID   uint  `gorm:"index;not null" json:"event_id"`
	VoucherID *uint `json:"voucher_id,omitempty"`
	CouponID  *uint `json:"coupon_id,omitempty"`

	Quantity    int64 `gorm:"not null" json:"quantity"`
	Point       int64 `gorm:"not null;default:0" json:"point"`
	PointReward int64 `gorm:"not null;default:0" json:"point_reward"`

	OriginalAmount   int64 `gorm:"not null" json:"original_amount"`
	DiscountedAmount int64 `gorm:"not null;default:0" json:"discounted_amount"`
	TotalPrice       int64 `gorm:"not null" json:"total_price"`

	Status            types.TransactionStatus `gorm:"size:32;index;default:'WAITING_PAYMENT'" json:"status"`
	ExpiredAt         time.Time               `gorm:"index" json:"expired_at"`
	PaymentProof      *string                 `json:"payment_proof,omitempty"`
	PaymentUploadedAt *time.Time              `gorm:"index" json:"payment_uploaded_at,omitempty"`
	ConfirmedAt       *time.Time              `json:"confirmed_at,omitempty"`

	types.Timestamps

	User    User     `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Event   Event    `gorm:"foreignKey:event_id" json:"event,omitempty"`
	Voucher *Voucher `gorm:"foreignKey:voucher_id" json:"-"`
	Coupon  *Coupon  `gorm:"foreignKey:coupon_id" json:"-"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
