package repositories

import (
	"bytes"
	"database/sql"
	"testing"
	"time"

	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestResponseCache(t *testing.T) {
	t.Run("miss on empty cache", func(t *testing.T) {
		cache := NewResponseCache(setupTestDB(t))

		if _, ok := cache.Get("https://api-v2.soundcloud.com/tracks/1"); ok {
			t.Error("expected a miss")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		cache := NewResponseCache(setupTestDB(t))
		url := "https://api-v2.soundcloud.com/tracks/1"
		body := []byte(`{"id": 1}`)

		if err := cache.Put(url, body); err != nil {
			t.Fatalf("failed to store: %v", err)
		}

		got, ok := cache.Get(url)
		if !ok {
			t.Fatal("expected a hit")
		}
		if !bytes.Equal(got, body) {
			t.Errorf("unexpected body %s", got)
		}
	})

	t.Run("put replaces previous entry", func(t *testing.T) {
		cache := NewResponseCache(setupTestDB(t))
		url := "https://api-v2.soundcloud.com/tracks/1"

		if err := cache.Put(url, []byte("old")); err != nil {
			t.Fatalf("failed to store: %v", err)
		}
		if err := cache.Put(url, []byte("new")); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}

		got, _ := cache.Get(url)
		if string(got) != "new" {
			t.Errorf("expected replacement, got %s", got)
		}

		count, err := cache.Count()
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("expected a single row, got %d", count)
		}
	})

	t.Run("clear empties the table", func(t *testing.T) {
		cache := NewResponseCache(setupTestDB(t))

		if err := cache.Put("a", []byte("1")); err != nil {
			t.Fatal(err)
		}
		if err := cache.Put("b", []byte("2")); err != nil {
			t.Fatal(err)
		}
		if err := cache.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		count, err := cache.Count()
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 0 {
			t.Errorf("expected empty cache, got %d rows", count)
		}
	})

	t.Run("purge removes only stale entries", func(t *testing.T) {
		db := setupTestDB(t)
		cache := NewResponseCache(db)

		if err := cache.Put("fresh", []byte("1")); err != nil {
			t.Fatal(err)
		}
		stale := time.Now().UTC().Add(-48 * time.Hour)
		if _, err := db.Exec(
			"INSERT INTO response_cache (url, body, fetched_at) VALUES (?, ?, ?)",
			"stale", []byte("2"), stale,
		); err != nil {
			t.Fatalf("failed to seed stale row: %v", err)
		}

		removed, err := cache.Purge(24 * time.Hour)
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected one removed row, got %d", removed)
		}
		if _, ok := cache.Get("fresh"); !ok {
			t.Error("fresh entry should survive the purge")
		}
		if _, ok := cache.Get("stale"); ok {
			t.Error("stale entry should be gone")
		}
	})
}
