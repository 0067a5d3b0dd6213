package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"loketkita/src/lib/metrics"
	"loketkita/src/models"
	"loketkita/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SourceCustomer  = "customer"
	SourceOrganizer = "organizer"
	SourceSweeper   = "sweeper"
)

var errTransitionLost = errors.New("transaction status changed concurrently")

type CreateTransactionParams struct {
	EventID     uint
	Quantity    int64
	Point       int64
	VoucherCode string
	CouponCode  string
}

// TransactionService owns the transaction state machine:
//
//	WAITING_PAYMENT -> WAITING_CONFIRMATION | EXPIRED
//	WAITING_CONFIRMATION -> DONE | REJECTED | CANCELED
//
// Every transition is a conditional UPDATE on the expected current status,
// so of two concurrent writers exactly one applies its side effects.
type TransactionService struct {
	db        *gorm.DB
	ledger    *Ledger
	inventory Inventory
	notifier  Notifier
	publisher StatusPublisher
	settings  Settings
	now       func() time.Time
}

type Option func(*TransactionService)

func WithNotifier(n Notifier) Option {
	return func(s *TransactionService) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithPublisher(p StatusPublisher) Option {
	return func(s *TransactionService) {
		s.publisher = p
	}
}

func WithSettings(settings Settings) Option {
	return func(s *TransactionService) {
		s.settings = settings
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTransactionService(db *gorm.DB, opts ...Option) *TransactionService {
	s := &TransactionService{
		db:       db,
		notifier: logNotifier{},
		settings: DefaultSettings(),
		now:      utcNow,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ledger = NewLedger(db, s.settings, s.now)
	return s
}

func (s *TransactionService) Ledger() *Ledger {
	return s.ledger
}

func (s *TransactionService) Notifier() Notifier {
	return s.notifier
}

func (s *TransactionService) Create(ctx context.Context, userID uint, p CreateTransactionParams) (*models.Transaction, error) {
	if p.Quantity <= 0 {
		return nil, newError(ErrInvalidState, "quantity must be positive")
	}
	if p.Point < 0 {
		return nil, newError(ErrInvalidState, "points must not be negative")
	}
	db := s.db.WithContext(ctx)
	now := s.now()

	var event models.Event
	if err := db.Where("id = ?", p.EventID).First(&event).Error; err != nil {
		return nil, lookupError(err, "Event")
	}
	if event.Status != types.EVENT_PUBLISHED {
		return nil, newError(ErrInvalidState, "event %d is not on sale", event.ID)
	}
	if event.Quota < p.Quantity {
		return nil, newError(ErrInsufficientQuota, "not enough tickets left for this event")
	}

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, lookupError(err, "User")
	}
	if user.Point < p.Point {
		return nil, newError(ErrInsufficientPoints, "not enough points")
	}

	original := event.Price * p.Quantity
	txn := models.Transaction{
		UserID:         userID,
		EventID:        event.ID,
		Quantity:       p.Quantity,
		Point:          p.Point,
		OriginalAmount: original,
		Status:         types.TRANSACTION_WAITING_PAYMENT,
		ExpiredAt:      now.Add(s.settings.PaymentWindow),
	}

	var voucherDiscount, couponDiscount int64
	if p.VoucherCode != "" {
		voucher, err := s.findVoucher(db, p.VoucherCode, event.ID, now)
		if err != nil {
			return nil, err
		}
		voucherDiscount = CalculateDiscount(voucher.Discount, original)
		txn.VoucherID = &voucher.ID
	}
	if p.CouponCode != "" {
		coupon, err := s.findCoupon(db, p.CouponCode, now)
		if err != nil {
			return nil, err
		}
		couponDiscount = CalculateDiscount(coupon.Discount, original)
		txn.CouponID = &coupon.ID
	}

	discount := voucherDiscount + couponDiscount + p.Point
	txn.DiscountedAmount = discount
	txn.TotalPrice = TotalPrice(original, discount)
	txn.PointReward = PointReward(txn.TotalPrice)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&txn).Error; err != nil {
			return err
		}
		if err := s.inventory.Reserve(tx, event.ID, p.Quantity); err != nil {
			return err
		}
		return s.ledger.Spend(tx, userID, p.Point, &txn.ID)
	})
	if err != nil {
		return nil, err
	}
	metrics.TrackTransactionCreated()
	log.Printf("[Transactions] Created %s for user %d on event %d (total %d)\n", txn.ID, userID, event.ID, txn.TotalPrice)
	return &txn, nil
}

func (s *TransactionService) findVoucher(db *gorm.DB, code string, eventID uint, now time.Time) (*models.Voucher, error) {
	code = normalizeCode(code)
	var voucher models.Voucher
	err := db.Where("code = ? AND event_id = ?", code, eventID).First(&voucher).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var elsewhere int64
		if err := db.Model(&models.Voucher{}).Where("code = ?", code).Count(&elsewhere).Error; err != nil {
			return nil, err
		}
		if elsewhere > 0 {
			return nil, newError(ErrVoucherWrongEvent, "voucher %s is not valid for this event", code)
		}
		return nil, newError(ErrInvalidVoucher, "voucher %s does not exist", code)
	}
	if err != nil {
		return nil, err
	}
	if !voucher.ActiveAt(now) {
		return nil, newError(ErrVoucherNotActive, "voucher %s is not active", code)
	}
	return &voucher, nil
}

func (s *TransactionService) findCoupon(db *gorm.DB, code string, now time.Time) (*models.Coupon, error) {
	code = normalizeCode(code)
	var coupon models.Coupon
	err := db.Where("code = ?", code).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrInvalidCoupon, "coupon %s does not exist", code)
	}
	if err != nil {
		return nil, err
	}
	if !coupon.ActiveAt(now) {
		return nil, newError(ErrCouponNotActive, "coupon %s is not active", code)
	}
	return &coupon, nil
}

func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Event").
		Where("id = ?", id).
		First(&txn).
		Error
	if err != nil {
		return nil, lookupError(err, "Transaction")
	}
	return &txn, nil
}

func (s *TransactionService) ListForUser(ctx context.Context, userID uint, status types.TransactionStatus, page types.PageQuery) ([]models.Transaction, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	return s.list(q, status, page)
}

func (s *TransactionService) ListForOrganizer(ctx context.Context, organizerID uint, status types.TransactionStatus, page types.PageQuery) ([]models.Transaction, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("event_id IN (?)", s.db.Model(&models.Event{}).Select("id").Where("organizer_id = ?", organizerID))
	return s.list(q, status, page)
}

func (s *TransactionService) list(q *gorm.DB, status types.TransactionStatus, page types.PageQuery) ([]models.Transaction, int64, error) {
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txns []models.Transaction
	err := q.Preload("Event").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&txns).
		Error
	return txns, total, err
}

// UploadPaymentProof attaches the stored proof reference and moves the
// transaction to WAITING_CONFIRMATION.
func (s *TransactionService) UploadPaymentProof(ctx context.Context, id uuid.UUID, fileRef string) (*models.Transaction, error) {
	db := s.db.WithContext(ctx)
	var txn models.Transaction
	if err := db.Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, lookupError(err, "Transaction")
	}
	if txn.Status != types.TRANSACTION_WAITING_PAYMENT {
		return nil, newError(ErrInvalidState, "cannot upload a payment proof for a %s transaction", txn.Status)
	}
	now := s.now()
	ok, err := transition(db, txn.ID, types.TRANSACTION_WAITING_PAYMENT, map[string]any{
		"status":              types.TRANSACTION_WAITING_CONFIRMATION,
		"payment_proof":       fileRef,
		"payment_uploaded_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(ErrInvalidState, "transaction is no longer waiting for payment")
	}
	txn.Status = types.TRANSACTION_WAITING_CONFIRMATION
	txn.PaymentProof = &fileRef
	txn.PaymentUploadedAt = &now
	s.announce(ctx, &txn, types.TRANSACTION_WAITING_PAYMENT, SourceCustomer)
	return &txn, nil
}

// UpdateStatus applies an organizer's decision on an uploaded payment proof.
// Repeating a decision already in effect is a no-op.
func (s *TransactionService) UpdateStatus(ctx context.Context, organizerID uint, id uuid.UUID, status types.TransactionStatus) (*models.Transaction, error) {
	if status != types.TRANSACTION_DONE && status != types.TRANSACTION_REJECTED {
		return nil, newError(ErrInvalidState, "status must be DONE or REJECTED")
	}
	db := s.db.WithContext(ctx)

	var txn models.Transaction
	if err := db.Preload("User").Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, lookupError(err, "Transaction")
	}
	if txn.Status == status {
		return &txn, nil
	}

	var event models.Event
	if err := db.Where("id = ?", txn.EventID).First(&event).Error; err != nil {
		return nil, lookupError(err, "Event")
	}
	txn.Event = event
	if event.OrganizerID != organizerID {
		return nil, newError(ErrUnauthorized, "only the event organizer can update this transaction")
	}
	if !txn.User.IsVerified {
		return nil, newError(ErrUserNotVerified, "the buyer has not verified their email")
	}
	if txn.Status != types.TRANSACTION_WAITING_CONFIRMATION {
		return nil, newError(ErrInvalidState, "cannot move a %s transaction to %s", txn.Status, status)
	}

	now := s.now()
	err := db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": status}
		if status == types.TRANSACTION_DONE {
			updates["confirmed_at"] = now
		}
		ok, err := transition(tx, txn.ID, types.TRANSACTION_WAITING_CONFIRMATION, updates)
		if err != nil {
			return err
		}
		if !ok {
			return errTransitionLost
		}
		if status == types.TRANSACTION_DONE {
			if txn.PointReward <= 0 {
				return nil
			}
			_, err := s.ledger.Grant(tx, Grant{
				UserID:        txn.UserID,
				Amount:        txn.PointReward,
				Type:          types.POINT_REWARD,
				Description:   fmt.Sprintf("Reward for %s", event.Name),
				ExpiresAt:     s.ledger.ExpiryFrom(now),
				TransactionID: &txn.ID,
			})
			return err
		}
		return s.reverse(tx, &txn, now, "Refund for rejected transaction")
	})
	if errors.Is(err, errTransitionLost) {
		current, getErr := s.Get(ctx, txn.ID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == status {
			return current, nil
		}
		return nil, newError(ErrInvalidState, "transaction is already %s", current.Status)
	}
	if err != nil {
		return nil, err
	}

	from := txn.Status
	txn.Status = status
	if status == types.TRANSACTION_DONE {
		txn.ConfirmedAt = &now
	}
	s.announce(ctx, &txn, from, SourceOrganizer)
	s.sendPaymentStatusMail(ctx, &txn)
	return &txn, nil
}

// Expire moves an unpaid transaction past its deadline to EXPIRED. It
// reports false when another writer got there first.
func (s *TransactionService) Expire(ctx context.Context, txn *models.Transaction) (bool, error) {
	return s.settle(ctx, txn, types.TRANSACTION_WAITING_PAYMENT, types.TRANSACTION_EXPIRED, "Refund for expired transaction")
}

// Cancel moves a transaction whose proof was never reviewed to CANCELED.
func (s *TransactionService) Cancel(ctx context.Context, txn *models.Transaction) (bool, error) {
	return s.settle(ctx, txn, types.TRANSACTION_WAITING_CONFIRMATION, types.TRANSACTION_CANCELED, "Refund for canceled transaction")
}

func (s *TransactionService) settle(ctx context.Context, txn *models.Transaction, from, to types.TransactionStatus, reason string) (bool, error) {
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := transition(tx, txn.ID, from, map[string]any{"status": to})
		if err != nil {
			return err
		}
		if !ok {
			return errTransitionLost
		}
		return s.reverse(tx, txn, now, reason)
	})
	if errors.Is(err, errTransitionLost) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	txn.Status = to
	s.announce(ctx, txn, from, SourceSweeper)
	return true, nil
}

// reverse undoes the reservation and the point spend of txn. It must only
// run inside the database transaction that won the status transition.
func (s *TransactionService) reverse(tx *gorm.DB, txn *models.Transaction, now time.Time, reason string) error {
	if err := s.inventory.Release(tx, txn.EventID, txn.Quantity); err != nil {
		return err
	}
	if txn.Point <= 0 {
		return nil
	}
	_, err := s.ledger.Grant(tx, Grant{
		UserID:        txn.UserID,
		Amount:        txn.Point,
		Type:          types.POINT_REFUND,
		Description:   reason,
		ExpiresAt:     s.ledger.ExpiryFrom(now),
		TransactionID: &txn.ID,
	})
	return err
}

func transition(tx *gorm.DB, id uuid.UUID, from types.TransactionStatus, updates map[string]any) (bool, error) {
	res := tx.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *TransactionService) announce(ctx context.Context, txn *models.Transaction, from types.TransactionStatus, source string) {
	metrics.TrackTransition(string(txn.Status), source)
	if s.publisher == nil {
		return
	}
	change := StatusChange{
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		EventID:       txn.EventID,
		From:          from,
		To:            txn.Status,
		Source:        source,
		At:            s.now(),
	}
	if err := s.publisher.PublishStatusChange(ctx, change); err != nil {
		log.Printf("[Transactions] Error publishing status change for %s: %s\n", txn.ID, err.Error())
	}
}

func (s *TransactionService) sendPaymentStatusMail(ctx context.Context, txn *models.Transaction) {
	msg, err := paymentStatusMail(txn)
	if err != nil {
		log.Printf("[Transactions] Error rendering payment status mail: %s\n", err.Error())
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		log.Printf("[Transactions] Error sending payment status mail for %s: %s\n", txn.ID, err.Error())
	}
}
