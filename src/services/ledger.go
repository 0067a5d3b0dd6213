package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"loketkita/src/lib/metrics"
	"loketkita/src/models"
	"loketkita/src/models/scopes"
	"loketkita/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger owns User.point. Every change to the counter is paired with a
// PointHistory entry written in the same database transaction.
type Ledger struct {
	db       *gorm.DB
	settings Settings
	now      func() time.Time
}

func NewLedger(db *gorm.DB, settings Settings, now func() time.Time) *Ledger {
	if now == nil {
		now = utcNow
	}
	return &Ledger{db: db, settings: settings, now: now}
}

type Grant struct {
	UserID        uint
	Amount        int64
	Type          types.PointEntryType
	Description   string
	ExpiresAt     *time.Time
	TransactionID *uuid.UUID
}

// ExpiryFrom returns the expiry applied to refunds, rewards and referral
// grants issued at t.
func (l *Ledger) ExpiryFrom(t time.Time) *time.Time {
	exp := t.Add(l.settings.GrantExpiry)
	return &exp
}

func (l *Ledger) Grant(tx *gorm.DB, g Grant) (*models.PointHistory, error) {
	if g.Amount <= 0 {
		return nil, newError(ErrInvalidState, "grant amount must be positive")
	}
	res := tx.Model(&models.User{}).
		Where("id = ?", g.UserID).
		Update("point", gorm.Expr("point + ?", g.Amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, notFound("User")
	}
	entry := models.PointHistory{
		UserID:        g.UserID,
		Type:          g.Type,
		Points:        g.Amount,
		Description:   g.Description,
		ExpiresAt:     g.ExpiresAt,
		TransactionID: g.TransactionID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	metrics.TrackLedgerEntry(string(g.Type))
	return &entry, nil
}

// Spend debits amount only if the balance covers it.
func (l *Ledger) Spend(tx *gorm.DB, userID uint, amount int64, txnID *uuid.UUID) error {
	if amount <= 0 {
		return nil
	}
	res := tx.Model(&models.User{}).
		Where("id = ? AND point >= ?", userID, amount).
		Update("point", gorm.Expr("point - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return newError(ErrInsufficientPoints, "not enough points")
	}
	entry := models.PointHistory{
		UserID:        userID,
		Type:          types.POINT_SPEND,
		Points:        -amount,
		Description:   "Points used for ticket purchase",
		TransactionID: txnID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}
	metrics.TrackLedgerEntry(string(types.POINT_SPEND))
	return nil
}

// SweepExpired takes back every grant whose expiry has passed, in one
// database transaction. The amount taken back is clamped to the current
// balance so points already spent are never charged twice.
func (l *Ledger) SweepExpired(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result = SweepResult{}
		var grants []models.PointHistory
		if err := tx.Scopes(scopes.ExpiredGrants(now)).Order("id").Find(&grants).Error; err != nil {
			return err
		}
		for _, g := range grants {
			taken, err := l.expireGrant(tx, g)
			if err != nil {
				return fmt.Errorf("expire grant %d: %w", g.ID, err)
			}
			if taken > 0 {
				result.Processed++
			} else {
				result.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[Ledger] Error expiring points: %s\n", err.Error())
		return SweepResult{}, err
	}
	return result, nil
}

func (l *Ledger) expireGrant(tx *gorm.DB, g models.PointHistory) (int64, error) {
	var user models.User
	err := tx.Select("id", "point").Where("id = ?", g.UserID).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	taken := min(g.Points, max(user.Point, 0))
	if taken > 0 {
		res := tx.Model(&models.User{}).
			Where("id = ? AND point >= ?", g.UserID, taken).
			Update("point", gorm.Expr("point - ?", taken))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, errors.New("balance changed during sweep")
		}
		entry := models.PointHistory{
			UserID:        g.UserID,
			Type:          types.POINT_EXPIRY,
			Points:        -taken,
			Description:   fmt.Sprintf("Expired points from entry #%d", g.ID),
			TransactionID: g.TransactionID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return 0, err
		}
		metrics.TrackLedgerEntry(string(types.POINT_EXPIRY))
	}
	err = tx.Model(&models.PointHistory{}).
		Where("id = ?", g.ID).
		Update("expired", true).
		Error
	return taken, err
}

func (l *Ledger) Balance(ctx context.Context, userID uint) (int64, error) {
	var user models.User
	err := l.db.WithContext(ctx).Select("id", "point").Where("id = ?", userID).First(&user).Error
	if err != nil {
		return 0, lookupError(err, "User")
	}
	return user.Point, nil
}

func (l *Ledger) History(ctx context.Context, userID uint, page types.PageQuery) ([]models.PointHistory, int64, error) {
	var (
		entries []models.PointHistory
		total   int64
	)
	q := l.db.WithContext(ctx).
		Model(&models.PointHistory{}).
		Where("user_id = ?", userID).
		Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id DESC").
		Scopes(scopes.Paginate(page.Offset(), page.Limit)).
		Find(&entries).
		Error
	return entries, total, err
}

func lookupError(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity)
	}
	return err
}
