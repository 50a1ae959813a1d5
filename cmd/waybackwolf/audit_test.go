package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AIwolfie/waybackwolf/internal/config"
)

// TestNewAuditCmd tests the audit command creation.
func TestNewAuditCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "audit [url...]" {
			t.Errorf("expected use 'audit [url...]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has input flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("input")
		if flag == nil {
			t.Fatal("expected input flag")
		}
		if flag.Shorthand != "i" {
			t.Errorf("expected shorthand 'i', got %q", flag.Shorthand)
		}
	})

	t.Run("has domain flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("domain")
		if flag == nil {
			t.Fatal("expected domain flag")
		}
		if flag.Shorthand != "d" {
			t.Errorf("expected shorthand 'd', got %q", flag.Shorthand)
		}
	})

	t.Run("has report flags", func(t *testing.T) {
		t.Parallel()
		for name, shorthand := range map[string]string{
			"output":   "o",
			"json":     "j",
			"markdown": "m",
		} {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				t.Fatalf("expected %s flag", name)
			}
			if flag.Shorthand != shorthand {
				t.Errorf("expected %s shorthand %q, got %q", name, shorthand, flag.Shorthand)
			}
		}
	})

	t.Run("has worker flags", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("workers")
		if flag == nil {
			t.Fatal("expected workers flag")
		}
		if flag.Shorthand != "w" {
			t.Errorf("expected shorthand 'w', got %q", flag.Shorthand)
		}
		if cmd.Flags().Lookup("wayback-workers") == nil {
			t.Error("expected wayback-workers flag")
		}
	})

	t.Run("has analysis flags", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("ai") == nil {
			t.Error("expected ai flag")
		}
		flag := cmd.Flags().Lookup("extensions")
		if flag == nil {
			t.Fatal("expected extensions flag")
		}
		if flag.Shorthand != "e" {
			t.Errorf("expected shorthand 'e', got %q", flag.Shorthand)
		}
		if cmd.Flags().Lookup("credentials") == nil {
			t.Error("expected credentials flag")
		}
	})

	t.Run("has network flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"connect-timeout", "read-timeout", "retries", "retry-delay"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("has cache flags", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("clear-cache") == nil {
			t.Error("expected clear-cache flag")
		}
		if cmd.Flags().Lookup("cache-ttl") == nil {
			t.Error("expected cache-ttl flag")
		}
	})

	t.Run("has interactive flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("interactive") == nil {
			t.Error("expected interactive flag")
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewAuditCmd()
		if getVerboseFlag(cmd) {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		auditCmd, _, err := root.Find([]string{"audit"})
		if err != nil {
			t.Fatalf("failed to find audit command: %v", err)
		}

		if !getVerboseFlag(auditCmd) {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewAuditCmd()
		cfg, err := buildConfig(cmd, []string{"https://example.com/a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "https://example.com/a" {
			t.Errorf("expected targets [https://example.com/a], got %v", cfg.Targets)
		}
		if cfg.URLWorkers != config.DefaultURLWorkers {
			t.Errorf("expected %d URL workers, got %d", config.DefaultURLWorkers, cfg.URLWorkers)
		}
		if cfg.ArchiveWorkers != config.DefaultArchiveWorkers {
			t.Errorf("expected %d archive workers, got %d", config.DefaultArchiveWorkers, cfg.ArchiveWorkers)
		}
		if cfg.AnalysisEnabled() {
			t.Error("expected analysis disabled by default")
		}
	})

	t.Run("builds config with custom workers", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("workers", "4")
		_ = cmd.Flags().Set("wayback-workers", "2")
		cfg, err := buildConfig(cmd, []string{"https://example.com/a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.URLWorkers != 4 {
			t.Errorf("expected 4 URL workers, got %d", cfg.URLWorkers)
		}
		if cfg.ArchiveWorkers != 2 {
			t.Errorf("expected 2 archive workers, got %d", cfg.ArchiveWorkers)
		}
	})

	t.Run("builds config with network overrides", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("connect-timeout", "3s")
		_ = cmd.Flags().Set("retries", "5")
		cfg, err := buildConfig(cmd, []string{"https://example.com/a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ConnectTimeout != 3*time.Second {
			t.Errorf("expected 3s connect timeout, got %v", cfg.ConnectTimeout)
		}
		if cfg.MaxAttempts != 5 {
			t.Errorf("expected 5 attempts, got %d", cfg.MaxAttempts)
		}
	})

	t.Run("defaults analysis extensions when ai is set", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("ai", "chatgpt")
		cfg, err := buildConfig(cmd, []string{"https://example.com/a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.AnalysisExtensions) == 0 {
			t.Error("expected default analysis extensions")
		}
	})

	t.Run("normalizes explicit extensions", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("ai", "chatgpt")
		_ = cmd.Flags().Set("extensions", "SQL,.env")
		cfg, err := buildConfig(cmd, []string{"https://example.com/a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{".sql", ".env"}
		if len(cfg.AnalysisExtensions) != len(want) {
			t.Fatalf("expected %v, got %v", want, cfg.AnalysisExtensions)
		}
		for i, ext := range want {
			if cfg.AnalysisExtensions[i] != ext {
				t.Errorf("expected extension %q at %d, got %q", ext, i, cfg.AnalysisExtensions[i])
			}
		}
	})

	t.Run("rejects extensions without ai", func(t *testing.T) {
		cmd := NewAuditCmd()
		_ = cmd.Flags().Set("extensions", ".sql")
		cfg, err := buildConfig(cmd, []string{"https://example.com/a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error for extensions without ai")
		}
	})
}

// TestLoadTasks tests URL loading, filtering, and deduplication.
func TestLoadTasks(t *testing.T) {
	t.Parallel()

	writeInput := func(t *testing.T, lines string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "urls.txt")
		if err := os.WriteFile(path, []byte(lines), 0600); err != nil {
			t.Fatalf("failed to write input file: %v", err)
		}
		return path
	}

	t.Run("loads from file skipping blanks and comments", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.InputPath = writeInput(t, `
https://example.com/a

# comment line
https://example.com/b
`)

		tasks, err := loadTasks(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tasks) != 2 {
			t.Fatalf("expected 2 tasks, got %d", len(tasks))
		}
	})

	t.Run("merges positional targets and deduplicates", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.InputPath = writeInput(t, "https://example.com/a\n")
		cfg.Targets = []string{
			"HTTPS://Example.COM/a", // same URL after normalization
			"https://example.com/b",
		}

		tasks, err := loadTasks(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tasks) != 2 {
			t.Fatalf("expected 2 deduplicated tasks, got %d", len(tasks))
		}
	})

	t.Run("filters by domain", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Domain = "example.com"
		cfg.Targets = []string{
			"https://example.com/a",
			"https://sub.example.com/b",
			"https://other.org/c",
		}

		tasks, err := loadTasks(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tasks) != 2 {
			t.Fatalf("expected 2 tasks on example.com, got %d", len(tasks))
		}
		for _, task := range tasks {
			if task.URL == "https://other.org/c" {
				t.Error("expected other.org to be filtered out")
			}
		}
	})

	t.Run("fails on missing input file", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.InputPath = filepath.Join(t.TempDir(), "missing.txt")

		if _, err := loadTasks(cfg); err == nil {
			t.Error("expected error for missing input file")
		}
	})
}
