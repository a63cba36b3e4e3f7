// Package cache is a SQLite-backed response cache for the directory
// collaborator. The directory tolerates staleness up to an hour, so repeat
// runs within the window skip the network entirely.
package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Cache stores response bodies keyed by URL with a per-entry expiry.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

const migration = `
CREATE TABLE IF NOT EXISTS http_cache (
	url        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_http_cache_expires_at ON http_cache(expires_at);
`

// Open opens (or creates) the cache database at path and applies the
// schema. WAL mode keeps concurrent workers from serializing on reads.
func Open(path string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "cache: migrate")
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached body for url, or ok=false when absent or expired.
func (c *Cache) Get(ctx context.Context, url string) (body []byte, ok bool, err error) {
	var expires time.Time
	row := c.db.QueryRowContext(ctx,
		`SELECT body, expires_at FROM http_cache WHERE url = ?`, url)
	if err := row.Scan(&body, &expires); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, eris.Wrap(err, "cache: get")
	}
	if c.now().After(expires) {
		return nil, false, nil
	}
	return body, true, nil
}

// Put stores body for url with the cache's TTL, overwriting any prior
// entry.
func (c *Cache) Put(ctx context.Context, url string, body []byte) error {
	now := c.now()
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO http_cache (url, body, fetched_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		url, body, now, now.Add(c.ttl))
	return eris.Wrap(err, "cache: put")
}

// Purge removes expired entries and returns how many were deleted.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM http_cache WHERE expires_at < ?`, c.now())
	if err != nil {
		return 0, eris.Wrap(err, "cache: purge")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
