package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for WaybackWolf.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waybackwolf",
		Short: "Audit URL lists for liveness, archives, and sensitive data",
		Long: `WaybackWolf is a fast auditing tool for URL lists.

It checks which URLs still answer on the live web, looks dead ones up
in the Wayback Machine, and can run recovered content through an AI
backend to flag exposed credentials, PII, and other sensitive data.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
