package models

import (
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

// Installation is one authorized connection between the integration and an
// Ada installer account. Token and secret fields are never serialized.
type Installation struct {
	bun.BaseModel `bun:"table:installations,alias:i"`

	InstallationID     string    `bun:"installation_id,pk" json:"installation_id"`
	AccessToken        string    `bun:"access_token,notnull" json:"-"`
	RefreshToken       string    `bun:"refresh_token,notnull" json:"-"`
	ExpiryTS           time.Time `bun:"expiry_ts,notnull" json:"expiry_ts"`
	InstallationSecret string    `bun:"installation_secret,notnull" json:"-"`
	InstallerBotHandle string    `bun:"installer_bot_handle,notnull" json:"installer_bot_handle"`
}

// Expired reports whether the access token is no longer valid at now.
func (i *Installation) Expired(now time.Time) bool {
	return !i.ExpiryTS.After(now)
}

// LogValue keeps tokens and the shared secret out of log lines.
func (i *Installation) LogValue() slog.Value {
	if i == nil {
		return slog.StringValue("<nil>")
	}
	return slog.GroupValue(
		slog.String("installation_id", i.InstallationID),
		slog.String("installer_bot_handle", i.InstallerBotHandle),
		slog.Time("expiry_ts", i.ExpiryTS),
	)
}
