package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := build(newViper())

	assert.Equal(t, 2*time.Hour, c.PaymentWindow)
	assert.Equal(t, 72*time.Hour, c.ConfirmationWindow)
	assert.Equal(t, 90*24*time.Hour, c.GrantExpiry)
	assert.Equal(t, int64(10000), c.ReferralBonus)
	assert.Equal(t, 10*time.Minute, c.ExpireInterval)
	assert.Equal(t, time.Hour, c.CancelInterval)
	assert.Equal(t, "smtp", c.MailTransport)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TRANSACTIONS_PAYMENT_WINDOW", "30m")
	t.Setenv("MAIL_TRANSPORT", "ses")

	c := build(newViper())

	assert.Equal(t, 30*time.Minute, c.PaymentWindow)
	assert.Equal(t, "ses", c.MailTransport)
}

func TestMergeSecrets(t *testing.T) {
	err := MergeSecrets(strings.NewReader(`{"jwt": {"secret": "s3cr3t"}}`))
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", conf.JWTSecret)
}

func TestDatabaseSettings(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("DATABASE_NAME", "tickets")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "25")

	c := build(newViper())

	assert.Equal(t, 25, c.Database.MaxOpenConns)
	assert.Equal(t, 10, c.Database.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, c.Database.ConnMaxLifetime)
	assert.Equal(t, "warn", c.Database.LogLevel)
	dsn := c.Database.DSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "dbname=tickets")
	assert.Contains(t, dsn, "port=5432")
}
