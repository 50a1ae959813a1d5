package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/AIwolfie/waybackwolf/internal/cache"
)

// seedCache creates a cache directory with one entry and returns it.
func seedCache(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	store, err := cache.Open(dir, cache.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer store.Close() //nolint:errcheck

	if err := store.Put(context.Background(), "https://example.com/dump.sql",
		[]byte("select 1;"), "application/sql"); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}
	return dir
}

// TestNewCacheCmd tests the cache command creation.
func TestNewCacheCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCacheCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "cache" {
			t.Errorf("expected use 'cache', got %q", cmd.Use)
		}
	})

	t.Run("has cache-dir flag", func(t *testing.T) {
		t.Parallel()
		if cmd.PersistentFlags().Lookup("cache-dir") == nil {
			t.Error("expected cache-dir flag")
		}
	})

	t.Run("has stats and clear subcommands", func(t *testing.T) {
		t.Parallel()
		hasStats := false
		hasClear := false
		for _, sub := range cmd.Commands() {
			switch sub.Use {
			case "stats":
				hasStats = true
			case "clear":
				hasClear = true
			}
		}
		if !hasStats {
			t.Error("expected stats subcommand")
		}
		if !hasClear {
			t.Error("expected clear subcommand")
		}
	})
}

// TestCacheStatsCmd tests cache stats output.
func TestCacheStatsCmd(t *testing.T) {
	t.Run("prints entry count and size", func(t *testing.T) {
		dir := seedCache(t)

		cmd := NewCacheCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"stats", "--cache-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "entries: 1") {
			t.Errorf("expected entry count, got %q", out)
		}
		if !strings.Contains(out, "size:") {
			t.Errorf("expected size line, got %q", out)
		}
	})

	t.Run("fails when no cache exists", func(t *testing.T) {
		cmd := NewCacheCmd()
		cmd.SetArgs([]string{"stats", "--cache-dir", t.TempDir()})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing cache")
		}
	})
}

// TestCacheClearCmd tests cache clearing.
func TestCacheClearCmd(t *testing.T) {
	t.Run("empties the cache", func(t *testing.T) {
		dir := seedCache(t)

		cmd := NewCacheCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"clear", "--cache-dir", dir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "cache cleared") {
			t.Errorf("expected confirmation, got %q", buf.String())
		}

		store, err := cache.Open(dir, cache.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to reopen cache: %v", err)
		}
		defer store.Close() //nolint:errcheck

		if _, ok := store.Get(context.Background(), "https://example.com/dump.sql"); ok {
			t.Error("expected entry to be gone after clear")
		}
	})
}
