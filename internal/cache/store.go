package cache

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/AIwolfie/waybackwolf/internal/model"
)

// lockStripes is the number of per-key mutex stripes. Keys hash onto
// stripes, so two writers for the same URL always serialize while
// unrelated keys rarely contend.
const lockStripes = 64

// Entry is one cached fetch. Owned exclusively by the Store; callers
// get copies and must not assume later mutations are visible.
type Entry struct {
	// URL is the normalized cache key.
	URL string

	// Body is the fetched response body.
	Body []byte

	// ContentType is the response's Content-Type header value.
	ContentType string

	// FetchedAt is when the body was retrieved.
	FetchedAt time.Time
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance.
	EnableWAL bool

	// TTL expires entries older than this on read. Zero disables
	// expiry; entries then live until Clear or Delete.
	TTL time.Duration

	// Logger records degraded reads. Nil falls back to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Store is the SQLite-backed content cache.
type Store struct {
	db     *sql.DB
	dbPath string
	ttl    time.Duration
	logger *slog.Logger

	// locks are the per-key mutex stripes.
	locks [lockStripes]sync.Mutex
}

// Open opens or creates a Store in the given directory.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, "waybackwolf.db")

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	} else {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("cache not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check cache path: %w", err)
		}
	}

	dsn := dbPath + "?mode=rwc"
	if !opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// SQLite supports one writer; a single connection avoids
	// SQLITE_BUSY churn under concurrent worker writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
		ttl:    opts.TTL,
		logger: logger,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return s, nil
}

// Close closes the backing store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path of the backing database file.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the cache schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		url TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		content_type TEXT,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_fetched ON entries(fetched_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// lockFor returns the mutex stripe for a normalized key.
func (s *Store) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key)) //nolint:errcheck // fnv never fails
	return &s.locks[h.Sum32()%lockStripes]
}

// Get returns the cached entry for a URL, or (nil, false) on a miss.
// Read errors and malformed rows degrade to a miss: the caller refetches
// live, and the bad row is overwritten by the next Put.
func (s *Store) Get(ctx context.Context, rawURL string) (*Entry, bool) {
	key := model.NormalizeURL(rawURL)
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	var entry Entry
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT url, body, content_type, fetched_at FROM entries WHERE url = ?", key,
	).Scan(&entry.URL, &entry.Body, &entry.ContentType, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("cache read degraded to miss", "cache_key", key, "error", err)
		return nil, false
	}

	entry.FetchedAt = parseTimestamp(fetchedAt)
	if entry.FetchedAt.IsZero() {
		// The write never completed. An empty body with a valid
		// timestamp is a legitimate entry: servers do return empty
		// documents, and a hit avoids refetching them every run.
		s.logger.Warn("corrupt cache row treated as miss", "cache_key", key)
		return nil, false
	}

	if s.ttl > 0 && time.Since(entry.FetchedAt) > s.ttl {
		return nil, false
	}

	return &entry, true
}

// Put stores an entry, overwriting any previous body for the same key
// atomically. Concurrent Puts for one key serialize on the key's lock;
// last writer wins.
func (s *Store) Put(ctx context.Context, rawURL string, body []byte, contentType string) error {
	key := model.NormalizeURL(rawURL)
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	query := `
	INSERT INTO entries (url, body, content_type, fetched_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		body = excluded.body,
		content_type = excluded.content_type,
		fetched_at = excluded.fetched_at
	`
	_, err := s.db.ExecContext(ctx, query, key, body, contentType, time.Now().UTC().Format(sqliteTimeFormat))
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes a single entry. Missing keys are a no-op.
func (s *Store) Delete(ctx context.Context, rawURL string) error {
	key := model.NormalizeURL(rawURL)
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE url = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Clear empties the entire store. It is invoked before any workers
// start, so it takes no per-key locks.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Stats describes the backing store contents.
type Stats struct {
	// Entries is the number of cached bodies.
	Entries int

	// TotalBytes is the sum of cached body sizes.
	TotalBytes int64

	// Oldest is the fetch time of the oldest entry, zero when empty.
	Oldest time.Time
}

// ReadStats returns entry count and size of the backing store.
func (s *Store) ReadStats(ctx context.Context) (Stats, error) {
	var stats Stats
	var oldest sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(body)), 0), MIN(fetched_at) FROM entries",
	).Scan(&stats.Entries, &stats.TotalBytes, &oldest)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}
	if oldest.Valid {
		stats.Oldest = parseTimestamp(oldest.String)
	}
	return stats, nil
}

// sqliteTimeFormat is the canonical datetime format written by Put.
const sqliteTimeFormat = "2006-01-02 15:04:05"

// timestampFormats contains the timestamp formats SQLite may return,
// most specific first.
var timestampFormats = []string{
	sqliteTimeFormat,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a SQLite timestamp, returning zero time when no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
