package services

import (
	"loketkita/src/models"

	"gorm.io/gorm"
)

// Inventory guards Event.quota. Both operations are single relative UPDATEs
// so concurrent buyers never overwrite each other's decrement.
type Inventory struct{}

func (Inventory) Reserve(tx *gorm.DB, eventID uint, qty int64) error {
	if qty <= 0 {
		return newError(ErrInvalidState, "quantity must be positive")
	}
	res := tx.Model(&models.Event{}).
		Where("id = ? AND quota >= ?", eventID, qty).
		Update("quota", gorm.Expr("quota - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Event{}).Where("id = ?", eventID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("Event")
	}
	return newError(ErrInsufficientQuota, "not enough tickets left for this event")
}

func (Inventory) Release(tx *gorm.DB, eventID uint, qty int64) error {
	if qty <= 0 {
		return nil
	}
	res := tx.Model(&models.Event{}).
		Where("id = ?", eventID).
		Update("quota", gorm.Expr("quota + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Event")
	}
	return nil
}

// Adjust adds delta tickets to the remaining quota. A negative delta can only
// remove tickets that are still unsold.
func (inv Inventory) Adjust(tx *gorm.DB, eventID uint, delta int64) error {
	if delta == 0 {
		return nil
	}
	if delta > 0 {
		return inv.Release(tx, eventID, delta)
	}
	if err := inv.Reserve(tx, eventID, -delta); err != nil {
		if IsKind(err, ErrInsufficientQuota) {
			return newError(ErrInsufficientQuota, "cannot remove %d tickets, fewer remain unsold", -delta)
		}
		return err
	}
	return nil
}
