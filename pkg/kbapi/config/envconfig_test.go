package config

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("ADA_INTEGRATION_ID", "integ-1")
	t.Setenv("ADA_INTEGRATION_SECRET", "integration-secret-value")
	t.Setenv("ADA_CREATOR_BOT_HANDLE", "creator")
}

func TestValidateEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := ValidateEnv()
	if err != nil {
		t.Fatalf("ValidateEnv: %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.AdaBaseURLTemplate != "https://{handle}.ada.support" {
		t.Errorf("AdaBaseURLTemplate = %q", cfg.AdaBaseURLTemplate)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if got := cfg.AdaConfig().Timeout; got != 10*time.Second {
		t.Errorf("timeout = %s, want 10s", got)
	}
	if got := cfg.WebhookMaxSkewDuration(); got != 0 {
		t.Errorf("max skew = %s, want disabled", got)
	}
	if got := cfg.WebhookReplayTTLDuration(); got != 10*time.Minute {
		t.Errorf("replay ttl = %s, want 10m", got)
	}
}

func TestValidateEnvMissingRequired(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("ADA_INTEGRATION_ID", "")
	t.Setenv("ADA_INTEGRATION_SECRET", "")
	t.Setenv("ADA_CREATOR_BOT_HANDLE", "")

	if _, err := ValidateEnv(); err == nil {
		t.Fatal("expected error when Ada credentials are missing")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := EnvConfig{
		BaseURL:            "not a url",
		AdaBaseURLTemplate: "https://{handle}.ada.support",
		HTTPTimeout:        0,
		DBDriver:           "mysql",
		WebhookMaxSkew:     -1,
		ArticlesFile:       "articles.yaml",
		ArticlesS3Endpoint: "localhost:9000",
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"BASE_URL", "HTTP_TIMEOUT", "DB_DRIVER", "WEBHOOK_MAX_SKEW", "ARTICLES_FILE", "ARTICLES_S3_BUCKET"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s:\n%v", want, err)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "<not set>"},
		{"short", "***"},
		{"integration-secret-value", "inte...alue"},
	}
	for _, tt := range tests {
		if got := MaskSecret(tt.in); got != tt.want {
			t.Errorf("MaskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintNeverLeaksSecrets(t *testing.T) {
	cfg := EnvConfig{
		Port:                 "3000",
		AdaIntegrationID:     "integ-1",
		AdaIntegrationSecret: "integration-secret-value",
		AdaCreatorBotHandle:  "creator",
		AdaBaseURLTemplate:   "https://{handle}.ada.support",
		HTTPTimeout:          10,
		DBDriver:             "sqlite",
		ArticlesS3Endpoint:   "localhost:9000",
		ArticlesS3Bucket:     "kb",
		ArticlesS3Key:        "articles.json",
		ArticlesS3AccessKey:  "AKIAEXAMPLEKEY123",
	}

	var out strings.Builder
	cfg.Print(func(format string, args ...interface{}) {
		fmt.Fprintf(&out, format, args...)
	})

	printed := out.String()
	for _, secret := range []string{"integration-secret-value", "AKIAEXAMPLEKEY123"} {
		if strings.Contains(printed, secret) {
			t.Errorf("Print leaked %q:\n%s", secret, printed)
		}
	}
	if !strings.Contains(printed, "https://creator.ada.support") {
		t.Errorf("Print should show the creator bot URL:\n%s", printed)
	}
}
