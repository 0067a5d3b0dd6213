package services

import (
	"context"
	"errors"
	"loketkita/src/models"
	"strings"
	"time"

	"gorm.io/gorm"
)

type DiscountCodeParams struct {
	Code      string
	Discount  string
	StartDate time.Time
	EndDate   time.Time
}

func (p DiscountCodeParams) validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return newError(ErrInvalidState, "code is required")
	}
	if !IsDiscountCode(p.Discount) {
		return newError(ErrInvalidState, "discount must be digits optionally followed by %%")
	}
	if !p.EndDate.After(p.StartDate) {
		return newError(ErrInvalidState, "end date must be after start date")
	}
	return nil
}

type PromotionService struct {
	db     *gorm.DB
	events *EventService
}

func NewPromotionService(db *gorm.DB) *PromotionService {
	return &PromotionService{db: db, events: NewEventService(db)}
}

func (s *PromotionService) CreateVoucher(ctx context.Context, organizerID, eventID uint, p DiscountCodeParams) (*models.Voucher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if _, err := s.events.owned(db, organizerID, eventID); err != nil {
		return nil, err
	}
	code := normalizeCode(p.Code)

	var voucher models.Voucher
	err := db.Unscoped().Where("event_id = ? AND code = ?", eventID, code).First(&voucher).Error
	switch {
	case err == nil && !voucher.DeletedAt.Valid:
		return nil, newError(ErrAlreadyExists, "voucher %s already exists for this event", code)
	case err == nil:
		// A deleted voucher still holds the unique (event, code) slot; reuse it.
		err = db.Unscoped().Model(&voucher).Updates(map[string]any{
			"discount":   p.Discount,
			"start_date": p.StartDate,
			"end_date":   p.EndDate,
			"deleted_at": nil,
		}).Error
		if err != nil {
			return nil, err
		}
		voucher.Discount = p.Discount
		voucher.StartDate = p.StartDate
		voucher.EndDate = p.EndDate
		voucher.DeletedAt = gorm.DeletedAt{}
		return &voucher, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	voucher = models.Voucher{
		EventID:   eventID,
		Code:      code,
		Discount:  p.Discount,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
	}
	if err := db.Create(&voucher).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

func (s *PromotionService) DeleteVoucher(ctx context.Context, organizerID, eventID uint, code string) error {
	db := s.db.WithContext(ctx)
	if _, err := s.events.owned(db, organizerID, eventID); err != nil {
		return err
	}
	res := db.Where("event_id = ? AND code = ?", eventID, normalizeCode(code)).Delete(&models.Voucher{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Voucher")
	}
	return nil
}

func (s *PromotionService) ListVouchers(ctx context.Context, eventID uint) ([]models.Voucher, error) {
	var vouchers []models.Voucher
	err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Order("start_date").Find(&vouchers).Error
	return vouchers, err
}

func (s *PromotionService) CreateCoupon(ctx context.Context, p DiscountCodeParams) (*models.Coupon, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	code := normalizeCode(p.Code)

	var coupon models.Coupon
	err := db.Unscoped().Where("code = ?", code).First(&coupon).Error
	switch {
	case err == nil && !coupon.DeletedAt.Valid:
		return nil, newError(ErrAlreadyExists, "coupon %s already exists", code)
	case err == nil:
		err = db.Unscoped().Model(&coupon).Updates(map[string]any{
			"discount":   p.Discount,
			"start_date": p.StartDate,
			"end_date":   p.EndDate,
			"deleted_at": nil,
		}).Error
		if err != nil {
			return nil, err
		}
		coupon.Discount = p.Discount
		coupon.StartDate = p.StartDate
		coupon.EndDate = p.EndDate
		coupon.DeletedAt = gorm.DeletedAt{}
		return &coupon, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	coupon = models.Coupon{
		Code:      code,
		Discount:  p.Discount,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
	}
	if err := db.Create(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (s *PromotionService) DeleteCoupon(ctx context.Context, code string) error {
	res := s.db.WithContext(ctx).Where("code = ?", normalizeCode(code)).Delete(&models.Coupon{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Coupon")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
