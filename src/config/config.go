package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

type Config struct {
	Env string

	PaymentWindow      time.Duration
	ConfirmationWindow time.Duration
	GrantExpiry        time.Duration
	ReferralBonus      int64

	ExpireInterval      time.Duration
	CancelInterval      time.Duration
	PointExpiryInterval time.Duration
	SweepLeaseTTL       time.Duration

	JWTSecret       string
	AppURL          string
	MaintenanceMode bool

	MailFrom   string
	MailSender string
	// smtp, ses or sqs
	MailTransport string
	EmailQueue    string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string

	RedisURL string

	Database Database

	// An empty topic ARN disables status publishing.
	StatusTopicArn string
	// Proofs go to S3 when a bucket is set, to UploadsDir otherwise.
	ProofsBucket string
	UploadsDir   string
	SecretsID    string
}

// Database holds the postgres connection and pool settings.
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	// silent, error, warn or info
	LogLevel string
}

// DSN renders the settings as a libpq keyword/value string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone)
}

var (
	once sync.Once
	conf *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.env", "local")
	v.SetDefault("transactions.payment_window", "2h")
	v.SetDefault("transactions.confirmation_window", "72h")
	v.SetDefault("points.grant_expiry", "2160h")
	v.SetDefault("points.referral_bonus", 10000)
	v.SetDefault("sweepers.expire_interval", "10m")
	v.SetDefault("sweepers.cancel_interval", "1h")
	v.SetDefault("sweepers.point_expiry_interval", "24h")
	v.SetDefault("sweepers.lease_ttl", "5m")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("app.host", "http://localhost:3000")
	v.SetDefault("maintenance.mode", false)
	v.SetDefault("mail.from", "noreply@loketkita.id")
	v.SetDefault("mail.sender", "LoketKita")
	v.SetDefault("mail.transport", "smtp")
	v.SetDefault("email.queue", "Emails")
	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("redis.host", "redis://localhost:6379/0")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "loketkita")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "Asia/Jakarta")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("transactions.status_topic_arn", "")
	v.SetDefault("s3.proofs_bucket", "")
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("aws.secrets_id", "")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

var vp = newViper()

// Load reads config.yaml when present and resolves every setting against the
// environment. The result is cached for the life of the process.
func Load() *Config {
	once.Do(func() {
		if err := vp.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				log.Printf("[config] Error reading config file: %s\n", err.Error())
			}
		}
		conf = build(vp)
	})
	return conf
}

// MergeSecrets overlays a JSON document (e.g. from Secrets Manager) on top of
// the current settings and rebuilds the cached Config.
func MergeSecrets(r io.Reader) error {
	vp.SetConfigType("json")
	if err := vp.MergeConfig(r); err != nil {
		return fmt.Errorf("merge secrets: %w", err)
	}
	conf = build(vp)
	return nil
}

func build(v *viper.Viper) *Config {
	return &Config{
		Env:                 v.GetString("api.env"),
		PaymentWindow:       v.GetDuration("transactions.payment_window"),
		ConfirmationWindow:  v.GetDuration("transactions.confirmation_window"),
		GrantExpiry:         v.GetDuration("points.grant_expiry"),
		ReferralBonus:       v.GetInt64("points.referral_bonus"),
		ExpireInterval:      v.GetDuration("sweepers.expire_interval"),
		CancelInterval:      v.GetDuration("sweepers.cancel_interval"),
		PointExpiryInterval: v.GetDuration("sweepers.point_expiry_interval"),
		SweepLeaseTTL:       v.GetDuration("sweepers.lease_ttl"),
		JWTSecret:           v.GetString("jwt.secret"),
		AppURL:              v.GetString("app.host"),
		MaintenanceMode:     v.GetBool("maintenance.mode"),
		MailFrom:            v.GetString("mail.from"),
		MailSender:          v.GetString("mail.sender"),
		MailTransport:       v.GetString("mail.transport"),
		EmailQueue:          v.GetString("email.queue"),
		SMTPHost:            v.GetString("smtp.host"),
		SMTPPort:            v.GetInt("smtp.port"),
		SMTPUsername:        v.GetString("smtp.username"),
		SMTPPassword:        v.GetString("smtp.password"),
		RedisURL:            v.GetString("redis.host"),
		Database: Database{
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.sslmode"),
			TimeZone:        v.GetString("database.timezone"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			LogLevel:        v.GetString("database.log_level"),
		},
		StatusTopicArn:      v.GetString("transactions.status_topic_arn"),
		ProofsBucket:        v.GetString("s3.proofs_bucket"),
		UploadsDir:          v.GetString("uploads.dir"),
		SecretsID:           v.GetString("aws.secrets_id"),
	}
}

func IsLocal() bool {
	return Load().Env == "local"
}
