package services

import (
	"loketkita/src/config"
	"time"
)

type Settings struct {
	PaymentWindow      time.Duration
	ConfirmationWindow time.Duration
	GrantExpiry        time.Duration
	ReferralBonus      int64
}

func DefaultSettings() Settings {
	return Settings{
		PaymentWindow:      2 * time.Hour,
		ConfirmationWindow: 3 * 24 * time.Hour,
		GrantExpiry:        90 * 24 * time.Hour,
		ReferralBonus:      10000,
	}
}

func SettingsFrom(c *config.Config) Settings {
	s := DefaultSettings()
	if c.PaymentWindow > 0 {
		s.PaymentWindow = c.PaymentWindow
	}
	if c.ConfirmationWindow > 0 {
		s.ConfirmationWindow = c.ConfirmationWindow
	}
	if c.GrantExpiry > 0 {
		s.GrantExpiry = c.GrantExpiry
	}
	if c.ReferralBonus > 0 {
		s.ReferralBonus = c.ReferralBonus
	}
	return s
}

func utcNow() time.Time {
	return time.Now().UTC()
}
