package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coolshop/kbbridge/pkg/db/models"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunStore implements Store on top of a bun database (SQLite or Postgres).
type BunStore struct {
	db *bun.DB
}

// NewBunStore wraps an open database. The caller owns its lifetime.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

func (s *BunStore) Get(ctx context.Context, installationID string) (*models.Installation, error) {
	return getInstallation(ctx, s.db, installationID)
}

func (s *BunStore) Insert(ctx context.Context, inst *models.Installation) error {
	if inst == nil || inst.InstallationID == "" {
		return fmt.Errorf("store: installation id is required")
	}
	row := *inst
	row.ExpiryTS = row.ExpiryTS.UTC()

	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrConflict, inst.InstallationID)
		}
		return fmt.Errorf("store: insert installation: %w", err)
	}
	return nil
}

func (s *BunStore) UpdateTokens(ctx context.Context, installationID string, update TokenUpdate) (*models.Installation, error) {
	var out *models.Installation
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Installation)(nil)).
			Set("access_token = ?", update.AccessToken).
			Set("refresh_token = ?", update.RefreshToken).
			Set("expiry_ts = ?", update.ExpiresAt.UTC()).
			Where("installation_id = ?", installationID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("store: update installation: %w", err)
		}
		if err := expectOneRow(res); err != nil {
			return err
		}

		out, err = getInstallation(ctx, tx, installationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BunStore) Delete(ctx context.Context, installationID string) error {
	res, err := s.db.NewDelete().
		Model((*models.Installation)(nil)).
		Where("installation_id = ?", installationID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: delete installation: %w", err)
	}
	return expectOneRow(res)
}

func getInstallation(ctx context.Context, db bun.IDB, installationID string) (*models.Installation, error) {
	var inst models.Installation
	err := db.NewSelect().
		Model(&inst).
		Where("installation_id = ?", installationID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get installation: %w", err)
	}
	inst.ExpiryTS = inst.ExpiryTS.UTC()
	return &inst, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}

// Ensure BunStore implements Store.
var _ Store = (*BunStore)(nil)
