package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AIwolfie/waybackwolf/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter AI credentials file",
		Long: `Init writes a credentials template for the AI analysis backends.
Fill in the API key for whichever backend you pass to --ai; the other
entries can stay empty.`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Credentials file path (default: XDG config dir)")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if path == "" {
		path = filepath.Join(config.XDGConfigDir(), config.DefaultCredentialsFile)
	}

	if err := config.WriteTemplate(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "credentials template written to %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "edit it and add the API key for your --ai backend")
	return nil
}
