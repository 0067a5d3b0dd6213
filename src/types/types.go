package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Role string

const (
	ROLE_CUSTOMER  Role = "customer"
	ROLE_ORGANISER Role = "organiser"
	ROLE_ADMIN     Role = "admin"
)

type TransactionStatus string

const (
	TRANSACTION_WAITING_PAYMENT      TransactionStatus = "WAITING_PAYMENT"
	TRANSACTION_WAITING_CONFIRMATION TransactionStatus = "WAITING_CONFIRMATION"
	TRANSACTION_DONE                 TransactionStatus = "DONE"
	TRANSACTION_REJECTED             TransactionStatus = "REJECTED"
	TRANSACTION_EXPIRED              TransactionStatus = "EXPIRED"
	TRANSACTION_CANCELED             TransactionStatus = "CANCELED"
)

// IsTerminal reports whether no further transition is possible from s.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TRANSACTION_DONE, TRANSACTION_REJECTED, TRANSACTION_EXPIRED, TRANSACTION_CANCELED:
		return true
	}
	return false
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case TRANSACTION_WAITING_PAYMENT, TRANSACTION_WAITING_CONFIRMATION:
		return true
	}
	return s.IsTerminal()
}

type PointEntryType string

const (
	POINT_SPEND    PointEntryType = "SPEND"
	POINT_REFUND   PointEntryType = "REFUND"
	POINT_REWARD   PointEntryType = "REWARD"
	POINT_REFERRAL PointEntryType = "REFERRAL"
	POINT_EXPIRY   PointEntryType = "EXPIRY"
)

type EventStatus string

const (
	EVENT_DRAFT     EventStatus = "draft"
	EVENT_PUBLISHED EventStatus = "published"
	EVENT_CLOSED    EventStatus = "closed"
)

type JobStatus string

const (
	JOB_RUNNING JobStatus = "running"
	JOB_DONE    JobStatus = "done"
	JOB_FAILED  JobStatus = "failed"
)

type AppEnv string

const (
	Local      AppEnv = "local"
	Test       AppEnv = "test"
	Production AppEnv = "production"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type TransactionRequestParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type CreateTransactionRequestBody struct {
	EventID     uint   `json:"event_id" binding:"required"`
	Quantity    int64  `json:"quantity" binding:"required,min=1"`
	Point       int64  `json:"point" binding:"min=0"`
	VoucherCode string `json:"voucher_code,omitempty"`
	CouponCode  string `json:"coupon_code,omitempty"`
}

type UpdateTransactionStatusRequestBody struct {
	Status TransactionStatus `json:"status" binding:"required,oneof=DONE REJECTED"`
}

type CreateEventRequestBody struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Location    string    `json:"location" binding:"required"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required,gtfield=StartDate"`
	Quota       int64     `json:"quota" binding:"required,min=1"`
	Price       int64     `json:"price" binding:"min=0"`
	Publish     bool      `json:"publish,omitempty"`
}

type UpdateEventRequestBody struct {
	Name        *string     `json:"name,omitempty" binding:"omitempty,min=1"`
	Description *string     `json:"description,omitempty"`
	Location    *string     `json:"location,omitempty" binding:"omitempty,min=1"`
	StartDate   *time.Time  `json:"start_date,omitempty"`
	EndDate     *time.Time  `json:"end_date,omitempty"`
	Price       *int64      `json:"price,omitempty" binding:"omitempty,min=0"`
	AddQuota    int64       `json:"add_quota,omitempty"`
	Status      EventStatus `json:"status,omitempty" binding:"omitempty,oneof=published closed"`
}

type CreateDiscountCodeRequestBody struct {
	Code      string    `json:"code" binding:"required,min=3"`
	Discount  string    `json:"discount" binding:"required,discountcode"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required,gtfield=StartDate"`
}

type CreateReviewRequestBody struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty"`
}

type RegisterRequestBody struct {
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Role         Role   `json:"role" binding:"required,oneof=customer organiser"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type UpdateProfileRequestBody struct {
	FirstName   *string `json:"first_name,omitempty" binding:"omitempty,min=1"`
	LastName    *string `json:"last_name,omitempty"`
	OldPassword string  `json:"old_password,omitempty"`
	NewPassword string  `json:"new_password,omitempty" binding:"omitempty,min=6"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type PageQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

func (p PageQuery) Offset() int {
	return (p.Page - 1) * p.Limit
}

type StatsQuery struct {
	Range string `form:"range,default=month" binding:"oneof=day month year"`
}
