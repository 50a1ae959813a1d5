package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AIwolfie/waybackwolf/internal/cache"
	"github.com/AIwolfie/waybackwolf/internal/config"
)

// NewCacheCmd creates the cache command with its subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the content cache",
		Long: `WaybackWolf caches fetched page and snapshot bodies in a local
SQLite database so repeated audits skip redundant downloads. This
command inspects or empties that cache.`,
	}

	cmd.PersistentFlags().String("cache-dir", config.XDGCacheDir(), "Cache directory")

	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

// openCacheFromFlags opens the store named by --cache-dir. It does not
// create a missing database; an empty cache is reported, not built.
func openCacheFromFlags(cmd *cobra.Command) (*cache.Store, error) {
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}

	opts := cache.DefaultOptions()
	opts.CreateIfNotExists = false
	return cache.Open(dir, opts)
}

// newCacheStatsCmd creates the cache stats subcommand.
func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print cache entry counts and size",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCacheFromFlags(cmd)
			if err != nil {
				return fmt.Errorf("no cache found: %w", err)
			}
			defer store.Close() //nolint:errcheck

			stats, err := store.ReadStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cache:   %s\n", store.Path())
			fmt.Fprintf(out, "entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "size:    %d bytes\n", stats.TotalBytes)
			if !stats.Oldest.IsZero() {
				fmt.Fprintf(out, "oldest:  %s\n", stats.Oldest.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

// newCacheClearCmd creates the cache clear subcommand.
func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached content",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCacheFromFlags(cmd)
			if err != nil {
				return fmt.Errorf("no cache found: %w", err)
			}
			defer store.Close() //nolint:errcheck

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cache cleared: %s\n", store.Path())
			return nil
		},
	}
}
