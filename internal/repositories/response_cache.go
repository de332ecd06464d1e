// package repositories provides the persistence layer: a SQLite-backed
// response cache for api-v2 GET requests.
//
// Cached bodies keep repeated resolve/track lookups off the network, which
// matters because api-v2 rate-limits aggressively and the same track record
// is fetched several times across a set export.
package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// ResponseCache implements services.Cache on a SQLite table keyed by the
// full request URL.
//
// Read misses and read errors are indistinguishable to callers on purpose:
// a broken cache must degrade to plain network fetches, never fail them.
type ResponseCache struct {
	db *sql.DB
}

// NewResponseCache creates a cache backed by the given database.
func NewResponseCache(db *sql.DB) *ResponseCache {
	return &ResponseCache{db: db}
}

// Get returns the cached body for url, if any.
func (c *ResponseCache) Get(url string) ([]byte, bool) {
	var body []byte
	err := c.db.QueryRow("SELECT body FROM response_cache WHERE url = ?", url).Scan(&body)
	if err != nil {
		return nil, false
	}
	return body, true
}

// Put stores the body for url, replacing any previous entry.
func (c *ResponseCache) Put(url string, body []byte) error {
	_, err := c.db.Exec(`
		INSERT INTO response_cache (url, body, fetched_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (url) DO UPDATE SET
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`, url, body)
	if err != nil {
		return fmt.Errorf("failed to store cached response: %w", err)
	}
	return nil
}

// Purge deletes entries fetched before the cutoff and returns how many
// rows were removed.
func (c *ResponseCache) Purge(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := c.db.Exec("DELETE FROM response_cache WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return result.RowsAffected()
}

// Clear removes every cached entry.
func (c *ResponseCache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM response_cache"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Count reports the number of cached entries.
func (c *ResponseCache) Count() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM response_cache").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}
