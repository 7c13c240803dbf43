package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eyesofazrael/azrael/pkg/models"
)

// DatabaseName is the logical name of the persistent search cache.
const DatabaseName = "CorpusSearchCache"

// Cache is the persistent search cache tier backed by SQLite. It stores
// entries as written and leaves freshness decisions to the caller.
type Cache struct {
	db *sql.DB
}

const createSearchesTable = `
CREATE TABLE IF NOT EXISTS searches (
	key TEXT PRIMARY KEY,
	results BLOB NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_searches_timestamp ON searches(timestamp);
`

// New opens the cache database at dbPath.
func New(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", DatabaseName, err)
	}

	if _, err := db.Exec(createSearchesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", DatabaseName, err)
	}

	return &Cache{db: db}, nil
}

// Get returns the entry stored under key, fresh or not.
func (c *Cache) Get(ctx context.Context, key string) (models.CacheEntry, bool, error) {
	var data []byte
	entry := models.CacheEntry{Key: key}

	err := c.db.QueryRowContext(ctx,
		`SELECT results, timestamp FROM searches WHERE key = ?`, key,
	).Scan(&data, &entry.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CacheEntry{}, false, nil
	}
	if err != nil {
		return models.CacheEntry{}, false, fmt.Errorf("cache get: %w", err)
	}

	if err := json.Unmarshal(data, &entry.Results); err != nil {
		return models.CacheEntry{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return entry, true, nil
}

// Put stores an entry, replacing any previous entry for the key.
func (c *Cache) Put(ctx context.Context, entry models.CacheEntry) error {
	data, err := json.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO searches (key, results, timestamp) VALUES (?, ?, ?)`,
		entry.Key, data, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Stats reports the number of entries and how many are older than the
// given cutoff.
func (c *Cache) Stats(ctx context.Context, staleBefore time.Time) (models.CacheStats, error) {
	var stats models.CacheStats
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN timestamp < ? THEN 1 ELSE 0 END), 0) FROM searches`,
		models.Millis(staleBefore),
	).Scan(&stats.Entries, &stats.Stale)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}

// Clear removes entries. With a zero cutoff every entry is removed;
// otherwise only entries written before the cutoff.
func (c *Cache) Clear(ctx context.Context, before time.Time) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if before.IsZero() {
		res, err = c.db.ExecContext(ctx, `DELETE FROM searches`)
	} else {
		res, err = c.db.ExecContext(ctx, `DELETE FROM searches WHERE timestamp < ?`, models.Millis(before))
	}
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
