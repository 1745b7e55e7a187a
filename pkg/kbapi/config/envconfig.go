package config

import (
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/coolshop/kbbridge/pkg/ada"
	"github.com/coolshop/kbbridge/pkg/db"
	"github.com/coolshop/kbbridge/pkg/kbapi/utils"
	"github.com/coolshop/kbbridge/pkg/kbhub"
	"github.com/coolshop/kbbridge/pkg/kv"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type EnvConfig struct {
	Port        string `envconfig:"PORT" default:"3000"`
	BaseURL     string `envconfig:"BASE_URL"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	AdaIntegrationID     string `envconfig:"ADA_INTEGRATION_ID" required:"true"`
	AdaIntegrationSecret string `envconfig:"ADA_INTEGRATION_SECRET" required:"true"`
	AdaCreatorBotHandle  string `envconfig:"ADA_CREATOR_BOT_HANDLE" required:"true"`
	AdaBaseURLTemplate   string `envconfig:"ADA_BASE_URL_TEMPLATE" default:"https://{handle}.ada.support"`
	HTTPTimeout          int    `envconfig:"HTTP_TIMEOUT" default:"10"` // seconds

	DBDriver   string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN      string `envconfig:"DB_DSN"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"kbbridge"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"password"`
	DBName     string `envconfig:"DB_NAME" default:"kbbridge"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	WebhookMaxSkew   int `envconfig:"WEBHOOK_MAX_SKEW" default:"0"`     // seconds, 0 disables
	WebhookReplayTTL int `envconfig:"WEBHOOK_REPLAY_TTL" default:"600"` // seconds

	ArticlesFile        string `envconfig:"ARTICLES_FILE"`
	ArticlesS3Endpoint  string `envconfig:"ARTICLES_S3_ENDPOINT"`
	ArticlesS3AccessKey string `envconfig:"ARTICLES_S3_ACCESS_KEY"`
	ArticlesS3SecretKey string `envconfig:"ARTICLES_S3_SECRET_KEY"`
	ArticlesS3Bucket    string `envconfig:"ARTICLES_S3_BUCKET"`
	ArticlesS3Key       string `envconfig:"ARTICLES_S3_KEY" default:"articles.json"`
	ArticlesS3Region    string `envconfig:"ARTICLES_S3_REGION"`
	ArticlesS3UseSSL    bool   `envconfig:"ARTICLES_S3_USE_SSL" default:"true"`
}

func ValidateEnv() (*EnvConfig, error) {
	if utils.IsDev() {
		if err := godotenv.Load(); err != nil {
			log.Println("ℹ No .env file found")
		} else {
			log.Println("✓ Loaded .env file")
		}
	}

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once rather than the first one.
func (c *EnvConfig) Validate() error {
	var errors []string

	for key, val := range map[string]string{
		"ADA_INTEGRATION_ID":     c.AdaIntegrationID,
		"ADA_INTEGRATION_SECRET": c.AdaIntegrationSecret,
		"ADA_CREATOR_BOT_HANDLE": c.AdaCreatorBotHandle,
	} {
		if strings.TrimSpace(val) == "" {
			errors = append(errors, fmt.Sprintf("  ❌ %s must not be empty", key))
		}
	}
	sort.Strings(errors)

	if c.BaseURL != "" {
		if u, err := url.ParseRequestURI(c.BaseURL); err != nil || u.Host == "" {
			errors = append(errors, "  ❌ BASE_URL must be a valid URL")
		}
	}

	if !strings.Contains(c.AdaBaseURLTemplate, "{handle}") {
		if _, err := url.ParseRequestURI(c.AdaBaseURLTemplate); err != nil {
			errors = append(errors, "  ❌ ADA_BASE_URL_TEMPLATE must be a URL, usually containing {handle}")
		}
	}

	if c.HTTPTimeout <= 0 {
		errors = append(errors, "  ❌ HTTP_TIMEOUT must be a positive number of seconds")
	}

	switch strings.ToLower(c.DBDriver) {
	case db.DriverSQLite, "sqlite3", db.DriverPostgres:
	default:
		errors = append(errors, fmt.Sprintf("  ❌ DB_DRIVER must be %q or %q", db.DriverSQLite, db.DriverPostgres))
	}

	if c.WebhookMaxSkew < 0 {
		errors = append(errors, "  ❌ WEBHOOK_MAX_SKEW must not be negative")
	}
	if c.WebhookReplayTTL < 0 {
		errors = append(errors, "  ❌ WEBHOOK_REPLAY_TTL must not be negative")
	}

	if c.ArticlesFile != "" && c.ArticlesS3Endpoint != "" {
		errors = append(errors, "  ❌ Set only one of ARTICLES_FILE and ARTICLES_S3_ENDPOINT")
	}
	if c.ArticlesS3Endpoint != "" && c.ArticlesS3Bucket == "" {
		errors = append(errors, "  ❌ ARTICLES_S3_BUCKET is required when ARTICLES_S3_ENDPOINT is set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("environment validation failed:\n%s", strings.Join(errors, "\n"))
	}
	return nil
}

func (c *EnvConfig) DBConfig() db.Config {
	return db.Config{
		Driver:   c.DBDriver,
		DSN:      c.DBDSN,
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Database: c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}

func (c *EnvConfig) AdaConfig() ada.Config {
	return ada.Config{
		IntegrationID:     c.AdaIntegrationID,
		IntegrationSecret: c.AdaIntegrationSecret,
		CreatorBotHandle:  c.AdaCreatorBotHandle,
		BaseURLTemplate:   c.AdaBaseURLTemplate,
		Timeout:           time.Duration(c.HTTPTimeout) * time.Second,
	}
}

func (c *EnvConfig) RedisConfig() kv.RedisConfig {
	return kv.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		Prefix:   "kbbridge:",
	}
}

func (c *EnvConfig) S3Config() kbhub.S3Config {
	return kbhub.S3Config{
		Endpoint:  c.ArticlesS3Endpoint,
		AccessKey: c.ArticlesS3AccessKey,
		SecretKey: c.ArticlesS3SecretKey,
		Bucket:    c.ArticlesS3Bucket,
		Key:       c.ArticlesS3Key,
		Region:    c.ArticlesS3Region,
		UseSSL:    c.ArticlesS3UseSSL,
	}
}

func (c *EnvConfig) WebhookMaxSkewDuration() time.Duration {
	return time.Duration(c.WebhookMaxSkew) * time.Second
}

func (c *EnvConfig) WebhookReplayTTLDuration() time.Duration {
	return time.Duration(c.WebhookReplayTTL) * time.Second
}

func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func (c *EnvConfig) Print(fmtr func(string, ...interface{})) {
	fmtr("📋 Configuration:\n")
	fmtr("  Environment: %s\n", c.Environment)
	fmtr("  Port: %s\n", c.Port)
	if c.BaseURL != "" {
		fmtr("  Base URL: %s\n", c.BaseURL)
	} else {
		fmtr("  Base URL: <derived from request>\n")
	}
	fmtr("  Log level: %s\n", c.LogLevel)

	fmtr("  Ada integration: %s\n", c.AdaIntegrationID)
	fmtr("    Secret: %s\n", MaskSecret(c.AdaIntegrationSecret))
	fmtr("    Creator bot: %s\n", ada.BaseURL(c.AdaBaseURLTemplate, c.AdaCreatorBotHandle))
	fmtr("    HTTP timeout: %ds\n", c.HTTPTimeout)

	switch strings.ToLower(c.DBDriver) {
	case db.DriverPostgres:
		if c.DBDSN != "" {
			fmtr("  Database: postgres %s\n", MaskSecret(c.DBDSN))
		} else {
			fmtr("  Database: postgres %s@%s:%d/%s (sslmode=%s)\n", c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
		}
	default:
		dsn := c.DBDSN
		if dsn == "" {
			dsn = db.DefaultSQLiteDSN
		}
		fmtr("  Database: sqlite %s\n", dsn)
	}

	if c.RedisAddr != "" {
		fmtr("  Replay ledger: ✓ Redis (%s, db %d)\n", c.RedisAddr, c.RedisDB)
	} else {
		fmtr("  Replay ledger: ✓ In-memory\n")
	}
	if c.WebhookMaxSkew > 0 {
		fmtr("  Webhook freshness: ±%ds\n", c.WebhookMaxSkew)
	} else {
		fmtr("  Webhook freshness: ✗ Disabled\n")
	}

	switch {
	case c.ArticlesS3Endpoint != "":
		fmtr("  Articles: s3://%s/%s at %s\n", c.ArticlesS3Bucket, c.ArticlesS3Key, c.ArticlesS3Endpoint)
		fmtr("    Access key: %s\n", MaskSecret(c.ArticlesS3AccessKey))
	case c.ArticlesFile != "":
		fmtr("  Articles: %s\n", c.ArticlesFile)
	default:
		fmtr("  Articles: built-in demo\n")
	}
}
