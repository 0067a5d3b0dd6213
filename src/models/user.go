package models

import (
	"loketkita/src/types"
)

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email,omitempty"`
	Password     string     `json:"-"`
	Role         types.Role `gorm:"default:'customer'" json:"role,omitempty"`
	Point        int64      `gorm:"not null;default:0" json:"point"`
	ReferralCode string     `gorm:"uniqueIndex;size:16" json:"referral_code,omitempty"`
	ReferredBy   *uint      `json:"referred_by,omitempty"`
	IsVerified   bool       `gorm:"default:false" json:"is_verified"`

	PointHistories []PointHistory `gorm:"foreignKey:user_id" json:"-"`

	types.Timestamps
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
