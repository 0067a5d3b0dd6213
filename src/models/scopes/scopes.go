package scopes

import (
	"loketkita/src/types"
	"time"

	"gorm.io/gorm"
)

func WithID(id uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithIDs(ids ...uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN (?)", ids)
	}
}

func WithStatus(status types.TransactionStatus) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", status)
	}
}

// PaymentOverdue matches unpaid transactions past their payment deadline.
func PaymentOverdue(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("status = ?", types.TRANSACTION_WAITING_PAYMENT).
			Where("expired_at < ?", now)
	}
}

// ConfirmationOverdue matches uploaded proofs nobody acted on since cutoff.
func ConfirmationOverdue(cutoff time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("status = ?", types.TRANSACTION_WAITING_CONFIRMATION).
			Where("payment_uploaded_at < ?", cutoff)
	}
}

func ExpiredGrants(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("points > 0").
			Where("expired = ?", false).
			Where("expires_at IS NOT NULL").
			Where("expires_at < ?", now)
	}
}

func Paginate(offset, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(offset).Limit(limit)
	}
}
