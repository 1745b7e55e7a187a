package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/coolshop/kbbridge/pkg/db/dbtest"
	"github.com/coolshop/kbbridge/pkg/db/models"
)

func newInstallation(id string) *models.Installation {
	return &models.Installation{
		InstallationID:     id,
		AccessToken:        "access-" + id,
		RefreshToken:       "refresh-" + id,
		ExpiryTS:           time.Date(2026, 10, 19, 12, 30, 15, 123456000, time.UTC),
		InstallationSecret: "secret-" + id,
		InstallerBotHandle: "shop-" + id,
	}
}

func assertSameInstallation(t *testing.T, got, want *models.Installation) {
	t.Helper()
	if got.InstallationID != want.InstallationID ||
		got.AccessToken != want.AccessToken ||
		got.RefreshToken != want.RefreshToken ||
		got.InstallationSecret != want.InstallationSecret ||
		got.InstallerBotHandle != want.InstallerBotHandle {
		t.Errorf("installation mismatch:\n got  %+v\n want %+v", got, want)
	}
	if !got.ExpiryTS.Equal(want.ExpiryTS) {
		t.Errorf("expiry mismatch: got %s, want %s", got.ExpiryTS, want.ExpiryTS)
	}
	if got.ExpiryTS.Location() != time.UTC {
		t.Errorf("expiry should come back in UTC, got %s", got.ExpiryTS.Location())
	}
}

func TestBunStore_InsertGet(t *testing.T) {
	s := NewBunStore(dbtest.New(t))
	ctx := context.Background()

	for _, id := range []string{"inst-1", "inst-2", "a b/c?d"} {
		want := newInstallation(id)
		if err := s.Insert(ctx, want); err != nil {
			t.Fatalf("Insert(%q) failed: %v", id, err)
		}
		got, err := s.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", id, err)
		}
		assertSameInstallation(t, got, want)
	}
}

func TestBunStore_InsertNonUTCExpiry(t *testing.T) {
	s := NewBunStore(dbtest.New(t))
	ctx := context.Background()

	want := newInstallation("inst-tz")
	want.ExpiryTS = time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CEST", 2*60*60))
	if err := s.Insert(ctx, want); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := s.Get(ctx, "inst-tz")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.ExpiryTS.Equal(want.ExpiryTS) {
		t.Errorf("expected the same instant, got %s want %s", got.ExpiryTS, want.ExpiryTS)
	}
}

func TestBunStore_InsertConflict(t *testing.T) {
	s := NewBunStore(dbtest.New(t))
	ctx := context.Background()

	if err := s.Insert(ctx, newInstallation("inst-1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	dup := newInstallation("inst-1")
	dup.AccessToken = "other"
	err := s.Insert(ctx, dup)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := s.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.AccessToken != "access-inst-1" {
		t.Errorf("conflicting insert must not overwrite, got access token %q", got.AccessToken)
	}
}

func TestBunStore_InsertRequiresID(t *testing.T) {
	s := NewBunStore(dbtest.New(t))
	if err := s.Insert(context.Background(), newInstallation("")); err == nil {
		t.Fatal("expected error for empty installation id")
	}
}

func TestBunStore_GetMissing(t *testing.T) {
	s := NewBunStore(dbtest.New(t))
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBunStore_UpdateTokensPreservesIdentity(t *testing.T) {
	s := NewBunStore(dbtest.New(t))
	ctx := context.Background()

	orig := newInstallation("inst-1")
	if err := s.Insert(ctx, orig); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	newExpiry := orig.ExpiryTS.Add(time.Hour)
	got, err := s.UpdateTokens(ctx, "inst-1", TokenUpdate{
		AccessToken:  "t2",
		RefreshToken: "r2",
		ExpiresAt:    newExpiry,
	})
	if err != nil {
		t.Fatalf("UpdateTokens failed: %v", err)
	}

	want := *orig
	want.AccessToken = "t2"
	want.RefreshToken = "r2"
	want.ExpiryTS = newExpiry
	assertSameInstallation(t, got, &want)

	stored, err := s.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	assertSameInstallation(t, stored, &want)
}

func TestBunStore_UpdateTokensMissing(t *testing.T) {
	s := NewBunStore(dbtest.New(t))
	_, err := s.UpdateTokens(context.Background(), "nope", TokenUpdate{AccessToken: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBunStore_Delete(t *testing.T) {
	s := NewBunStore(dbtest.New(t))
	ctx := context.Background()

	if err := s.Insert(ctx, newInstallation("inst-1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.Insert(ctx, newInstallation("inst-2")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := s.Delete(ctx, "inst-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "inst-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := s.Get(ctx, "inst-2"); err != nil {
		t.Errorf("other installation should survive, got %v", err)
	}
	if err := s.Delete(ctx, "inst-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestBunStore_ConcurrentDistinctIDs(t *testing.T) {
	s := NewBunStore(dbtest.New(t))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("inst-%d", i)
			if err := s.Insert(ctx, newInstallation(id)); err != nil {
				errs <- err
				return
			}
			if _, err := s.UpdateTokens(ctx, id, TokenUpdate{AccessToken: "t", RefreshToken: "r", ExpiresAt: time.Now()}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent operation failed: %v", err)
	}

	for i := 0; i < 20; i++ {
		got, err := s.Get(ctx, fmt.Sprintf("inst-%d", i))
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.AccessToken != "t" {
			t.Errorf("expected updated token for %s", got.InstallationID)
		}
	}
}
