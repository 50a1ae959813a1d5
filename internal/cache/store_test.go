package cache

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// setupTestStore creates a Store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close test store: %v", err)
		}
	})
	return s
}

// TestStoreRoundTrip tests basic put/get behavior.
func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	body := []byte("<html>archived page</html>")
	if err := s.Put(ctx, "https://example.com/page.html", body, "text/html"); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}

	entry, ok := s.Get(ctx, "https://example.com/page.html")
	if !ok {
		t.Fatal("expected cache hit, got miss")
	}
	if !bytes.Equal(entry.Body, body) {
		t.Errorf("expected body %q, got %q", body, entry.Body)
	}
	if entry.ContentType != "text/html" {
		t.Errorf("expected content type text/html, got %q", entry.ContentType)
	}
	if entry.FetchedAt.IsZero() {
		t.Error("expected non-zero fetch time")
	}
}

// TestStoreGetMiss tests that unknown keys miss cleanly.
func TestStoreGetMiss(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)

	if _, ok := s.Get(context.Background(), "https://example.com/absent"); ok {
		t.Error("expected miss for unknown key")
	}
}

// TestStoreKeyNormalization tests that URL variants share one entry.
func TestStoreKeyNormalization(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "HTTPS://Example.COM:443/doc.pdf", []byte("pdf bytes"), "application/pdf"); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}

	entry, ok := s.Get(ctx, "https://example.com/doc.pdf")
	if !ok {
		t.Fatal("expected hit for normalized variant of the same URL")
	}
	if entry.URL != "https://example.com/doc.pdf" {
		t.Errorf("expected normalized key, got %q", entry.URL)
	}
}

// TestStoreOverwrite tests that a second put replaces the first body.
func TestStoreOverwrite(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "https://example.com/a", []byte("old"), "text/plain"); err != nil {
		t.Fatalf("failed to put first entry: %v", err)
	}
	if err := s.Put(ctx, "https://example.com/a", []byte("new"), "text/html"); err != nil {
		t.Fatalf("failed to put second entry: %v", err)
	}

	entry, ok := s.Get(ctx, "https://example.com/a")
	if !ok {
		t.Fatal("expected hit after overwrite")
	}
	if string(entry.Body) != "new" {
		t.Errorf("expected replacement body, got %q", entry.Body)
	}
	if entry.ContentType != "text/html" {
		t.Errorf("expected replacement content type, got %q", entry.ContentType)
	}

	stats, err := s.ReadStats(ctx)
	if err != nil {
		t.Fatalf("failed to read stats: %v", err)
	}
	if stats.Entries != 1 {
		t.Errorf("expected 1 entry after overwrite, got %d", stats.Entries)
	}
}

// TestStoreTTL tests that stale entries read as misses.
func TestStoreTTL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	opts := DefaultOptions()
	opts.TTL = time.Hour
	s, err := Open(dir, opts)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	defer s.Close() //nolint:errcheck

	ctx := context.Background()
	if err := s.Put(ctx, "https://example.com/fresh", []byte("fresh"), "text/plain"); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}
	if _, ok := s.Get(ctx, "https://example.com/fresh"); !ok {
		t.Error("expected fresh entry to hit")
	}

	// Backdate the row beyond the TTL.
	stale := time.Now().UTC().Add(-2 * time.Hour).Format(sqliteTimeFormat)
	if _, err := s.db.ExecContext(ctx, "UPDATE entries SET fetched_at = ?", stale); err != nil {
		t.Fatalf("failed to backdate entry: %v", err)
	}
	if _, ok := s.Get(ctx, "https://example.com/fresh"); ok {
		t.Error("expected stale entry to miss")
	}
}

// TestStoreCorruptRow tests that an unusable row degrades to a miss.
func TestStoreCorruptRow(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "https://example.com/x", []byte("payload"), "text/plain"); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE entries SET fetched_at = 'not a timestamp'"); err != nil {
		t.Fatalf("failed to corrupt entry: %v", err)
	}

	if _, ok := s.Get(ctx, "https://example.com/x"); ok {
		t.Error("expected corrupt row to read as miss")
	}

	// A fresh put repairs the row.
	if err := s.Put(ctx, "https://example.com/x", []byte("repaired"), "text/plain"); err != nil {
		t.Fatalf("failed to overwrite corrupt row: %v", err)
	}
	entry, ok := s.Get(ctx, "https://example.com/x")
	if !ok || string(entry.Body) != "repaired" {
		t.Errorf("expected repaired entry, got ok=%v entry=%+v", ok, entry)
	}
}

// TestStoreEmptyBody tests that an empty document stays a cache hit
// instead of being refetched on every run.
func TestStoreEmptyBody(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "https://example.com/empty.txt", []byte{}, "text/plain"); err != nil {
		t.Fatalf("failed to put empty entry: %v", err)
	}

	entry, ok := s.Get(ctx, "https://example.com/empty.txt")
	if !ok {
		t.Fatal("expected empty body to hit")
	}
	if len(entry.Body) != 0 {
		t.Errorf("expected empty body, got %d bytes", len(entry.Body))
	}
	if entry.FetchedAt.IsZero() {
		t.Error("expected a valid fetch timestamp")
	}
}

// TestStoreDelete tests single-entry removal.
func TestStoreDelete(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "https://example.com/a", []byte("a"), "text/plain"); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}
	if err := s.Delete(ctx, "https://example.com/a"); err != nil {
		t.Fatalf("failed to delete entry: %v", err)
	}
	if _, ok := s.Get(ctx, "https://example.com/a"); ok {
		t.Error("expected miss after delete")
	}

	// Deleting again is a no-op.
	if err := s.Delete(ctx, "https://example.com/a"); err != nil {
		t.Errorf("expected no error deleting absent key, got %v", err)
	}
}

// TestStoreClear tests that clear empties the store.
func TestStoreClear(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		url := fmt.Sprintf("https://example.com/page-%d", i)
		if err := s.Put(ctx, url, []byte("body"), "text/plain"); err != nil {
			t.Fatalf("failed to put entry %d: %v", i, err)
		}
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("failed to clear store: %v", err)
	}

	stats, err := s.ReadStats(ctx)
	if err != nil {
		t.Fatalf("failed to read stats: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("expected empty store after clear, got %d entries", stats.Entries)
	}
}

// TestStoreReadStats tests entry and byte accounting.
func TestStoreReadStats(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "https://example.com/a", []byte("12345"), "text/plain"); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}
	if err := s.Put(ctx, "https://example.com/b", []byte("123"), "text/plain"); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}

	stats, err := s.ReadStats(ctx)
	if err != nil {
		t.Fatalf("failed to read stats: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", stats.Entries)
	}
	if stats.TotalBytes != 8 {
		t.Errorf("expected 8 total bytes, got %d", stats.TotalBytes)
	}
	if stats.Oldest.IsZero() {
		t.Error("expected non-zero oldest timestamp")
	}
}

// TestStoreConcurrentSameKey tests that concurrent writers to one key
// never produce a torn read: every observed entry is one of the full
// bodies some writer stored.
func TestStoreConcurrentSameKey(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()
	const url = "https://example.com/contended"
	const writers = 16

	valid := make(map[string]bool, writers)
	bodies := make([][]byte, writers)
	for i := range bodies {
		bodies[i] = bytes.Repeat([]byte{byte('a' + i)}, 256)
		valid[string(bodies[i])] = true
	}

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(body []byte) {
			defer wg.Done()
			if err := s.Put(ctx, url, body, "text/plain"); err != nil {
				t.Errorf("concurrent put failed: %v", err)
			}
		}(bodies[i])

		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, ok := s.Get(ctx, url)
			if !ok {
				return // miss before the first writer landed
			}
			if !valid[string(entry.Body)] {
				t.Errorf("torn read: body is not any writer's full payload (len=%d)", len(entry.Body))
			}
		}()
	}
	wg.Wait()

	entry, ok := s.Get(ctx, url)
	if !ok {
		t.Fatal("expected final read to hit")
	}
	if !valid[string(entry.Body)] {
		t.Error("final body is not any writer's full payload")
	}
}

// TestStorePersistsAcrossOpens tests that entries survive reopening.
func TestStorePersistsAcrossOpens(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := s.Put(ctx, "https://example.com/kept", []byte("survives"), "text/plain"); err != nil {
		t.Fatalf("failed to put entry: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	opts := DefaultOptions()
	opts.CreateIfNotExists = false
	reopened, err := Open(dir, opts)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close() //nolint:errcheck

	entry, ok := reopened.Get(ctx, "https://example.com/kept")
	if !ok || string(entry.Body) != "survives" {
		t.Errorf("expected entry to survive reopen, got ok=%v", ok)
	}
}

// TestOpenMissingWithoutCreate tests that open fails when the database
// is absent and creation is disabled.
func TestOpenMissingWithoutCreate(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.CreateIfNotExists = false
	if _, err := Open(t.TempDir(), opts); err == nil {
		t.Error("expected error opening absent database without create")
	}
}
