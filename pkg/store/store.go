// Package store keeps one row per OAuth installation. Implementations must
// make each operation atomic on its own; nothing spans rows.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/coolshop/kbbridge/pkg/db/models"
)

var (
	// ErrNotFound is returned when no installation has the requested id.
	ErrNotFound = errors.New("store: installation not found")
	// ErrConflict is returned by Insert when the id is already taken.
	ErrConflict = errors.New("store: installation already exists")
)

// TokenUpdate holds the only fields a refresh is allowed to change.
type TokenUpdate struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Store defines persistence for installations.
type Store interface {
	// Get returns the installation or ErrNotFound.
	Get(ctx context.Context, installationID string) (*models.Installation, error)

	// Insert creates a new installation. Returns ErrConflict on a duplicate id.
	Insert(ctx context.Context, inst *models.Installation) error

	// UpdateTokens replaces tokens and expiry, leaving the secret and
	// installer handle untouched. Returns the stored row or ErrNotFound.
	UpdateTokens(ctx context.Context, installationID string, update TokenUpdate) (*models.Installation, error)

	// Delete removes the installation. Returns ErrNotFound if absent.
	Delete(ctx context.Context, installationID string) error
}
