// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/coolshop/kbbridge/pkg/db"
	"github.com/coolshop/kbbridge/pkg/kblog"
	"github.com/uptrace/bun"
)

var seq atomic.Int64

// New returns an isolated in-memory SQLite database with all migrations
// applied. It is closed when the test finishes.
func New(t testing.TB) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	ctx := context.Background()
	database, err := db.New(ctx, db.Config{Driver: db.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := db.Migrate(ctx, database, kblog.Discard()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return database
}
