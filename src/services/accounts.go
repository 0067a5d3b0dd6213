package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"loketkita/src/models"
	"loketkita/src/types"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	referralCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralLength  = 8
)

type RegisterParams struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Role         types.Role
	ReferralCode string
}

type AccountService struct {
	db       *gorm.DB
	ledger   *Ledger
	settings Settings
	hashCost int
}

func NewAccountService(txs *TransactionService) *AccountService {
	return &AccountService{
		db:       txs.db,
		ledger:   txs.ledger,
		settings: txs.settings,
		hashCost: bcrypt.DefaultCost,
	}
}

// WithHashCost lowers the bcrypt cost, for tests.
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.hashCost = cost
	return s
}

// Register creates the user and, when a referral code is given, credits both
// the referrer and the new user in the same database transaction.
func (s *AccountService) Register(ctx context.Context, p RegisterParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, newError(ErrAlreadyExists, "email %s is already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	role := p.Role
	if role == "" {
		role = types.ROLE_CUSTOMER
	}

	var user models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		var referrer *models.User
		if p.ReferralCode != "" {
			var r models.User
			err := tx.Where("referral_code = ?", strings.ToUpper(p.ReferralCode)).First(&r).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrInvalidState, "referral code %s is not valid", p.ReferralCode)
			}
			if err != nil {
				return err
			}
			referrer = &r
		}

		code, err := uniqueReferralCode(tx)
		if err != nil {
			return err
		}
		user = models.User{
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			Email:        email,
			Password:     string(hash),
			Role:         role,
			ReferralCode: code,
		}
		if referrer != nil {
			user.ReferredBy = &referrer.ID
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if referrer == nil {
			return nil
		}

		now := s.ledger.now()
		// The referrer's bonus is recorded without an expiry.
		if _, err := s.ledger.Grant(tx, Grant{
			UserID:      referrer.ID,
			Amount:      s.settings.ReferralBonus,
			Type:        types.POINT_REFERRAL,
			Description: fmt.Sprintf("Referral bonus (%s used your code)", email),
		}); err != nil {
			return err
		}
		_, err = s.ledger.Grant(tx, Grant{
			UserID:      user.ID,
			Amount:      s.settings.ReferralBonus,
			Type:        types.POINT_REFERRAL,
			Description: "Referral bonus (used someone's referral code)",
			ExpiresAt:   s.ledger.ExpiryFrom(now),
		})
		if err != nil {
			return err
		}
		user.Point += s.settings.ReferralBonus
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Accounts] Registered user %d (%s)\n", user.ID, user.Email)
	return &user, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords give
// the same error.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, newError(ErrUnauthorized, "invalid email or password")
	}
	return &user, nil
}

func (s *AccountService) VerifyEmail(ctx context.Context, userID uint) (*models.User, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, lookupError(err, "User")
	}
	if user.IsVerified {
		return &user, nil
	}
	if err := db.Model(&user).Update("is_verified", true).Error; err != nil {
		return nil, err
	}
	user.IsVerified = true
	return &user, nil
}

func (s *AccountService) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, lookupError(err, "User")
	}
	return &user, nil
}

type UpdateProfileParams struct {
	FirstName   *string
	LastName    *string
	OldPassword string
	NewPassword string
}

// UpdateProfile changes the user's name and, when the current password is
// given, the password.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, p UpdateProfileParams) (*models.User, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, lookupError(err, "User")
	}
	updates := map[string]any{}
	if p.FirstName != nil {
		name := strings.TrimSpace(*p.FirstName)
		if name == "" {
			return nil, newError(ErrInvalidState, "first name must not be empty")
		}
		updates["first_name"] = name
	}
	if p.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*p.LastName)
	}
	if p.NewPassword != "" {
		if p.OldPassword == "" {
			return nil, newError(ErrInvalidState, "the current password is required to set a new one")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(p.OldPassword)); err != nil {
			return nil, newError(ErrUnauthorized, "the current password is incorrect")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(p.NewPassword), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password"] = string(hash)
	}
	if len(updates) == 0 {
		return &user, nil
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func uniqueReferralCode(tx *gorm.DB) (string, error) {
	for range 10 {
		code, err := randomCode(referralLength)
		if err != nil {
			return "", err
		}
		var count int64
		if err := tx.Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique referral code")
}

func randomCode(n int) (string, error) {
	limit := big.NewInt(int64(len(referralCharset)))
	var b strings.Builder
	for range n {
		i, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(referralCharset[i.Int64()])
	}
	return b.String(), nil
}
