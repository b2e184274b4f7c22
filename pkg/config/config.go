package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Redis   RedisConfig
	Blob    BlobConfig
	GCP     GCPConfig
	Square  SquareConfig
	Webhook WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Webhook.validate(cfg.App); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FUNDRAISER_APP_ENV" required:"true"`
	Port         string `envconfig:"FUNDRAISER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FUNDRAISER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FUNDRAISER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"FUNDRAISER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FUNDRAISER_REDIS_ADDR"`
	Password     string        `envconfig:"FUNDRAISER_REDIS_PASSWORD"`
	DB           int           `envconfig:"FUNDRAISER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FUNDRAISER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FUNDRAISER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FUNDRAISER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FUNDRAISER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FUNDRAISER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// BlobConfig points at the bucket that stores donation records, the totals
// snapshot, and the team directory.
type BlobConfig struct {
	BucketName     string `envconfig:"FUNDRAISER_BLOB_BUCKET_NAME" required:"true"`
	PaymentsPrefix string `envconfig:"FUNDRAISER_BLOB_PAYMENTS_PREFIX" default:"donations/payments/"`
	TotalsPath     string `envconfig:"FUNDRAISER_BLOB_TOTALS_PATH" default:"donations/totals.json"`
	TeamsPrefix    string `envconfig:"FUNDRAISER_BLOB_TEAMS_PREFIX" default:"teams/"`
}

type GCPConfig struct {
	CredentialsJSON        string `envconfig:"FUNDRAISER_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FUNDRAISER_GOOGLE_APPLICATION_CREDENTIALS"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"FUNDRAISER_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"FUNDRAISER_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"FUNDRAISER_SQUARE_LOCATION_ID"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// WebhookConfig governs signature verification and donation counting policy.
//
// SignatureKey and NotificationURL are both required for verification: Square
// signs base64(hmac-sha256(key, url+body)) over the exact URL registered in
// the dashboard. AllowUnsigned relaxes verification for local development and
// is refused outright in production.
type WebhookConfig struct {
	SignatureKey    string        `envconfig:"FUNDRAISER_WEBHOOK_SIGNATURE_KEY"`
	NotificationURL string        `envconfig:"FUNDRAISER_WEBHOOK_NOTIFICATION_URL"`
	AllowUnsigned   bool          `envconfig:"FUNDRAISER_WEBHOOK_ALLOW_UNSIGNED" default:"false"`
	CountApproved   bool          `envconfig:"FUNDRAISER_WEBHOOK_COUNT_APPROVED" default:"false"`
	CountedTTL      time.Duration `envconfig:"FUNDRAISER_WEBHOOK_COUNTED_TTL" default:"720h"`
}

func (w WebhookConfig) validate(app AppConfig) error {
	if app.IsProd() && w.AllowUnsigned {
		return fmt.Errorf("%s must not be enabled when %s is %q", EnvWebhookAllowUnsigned, EnvAppEnv, AppEnvProd)
	}
	return nil
}
