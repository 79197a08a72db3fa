// Package commands implements the whiskyd command line.
package commands

import (
	"fmt"

	"whisky-collection/internal/config"

	"github.com/spf13/cobra"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCmd builds the whiskyd command tree. Running it without a
// subcommand starts the server.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "whiskyd",
		Short: "whiskyd - whisky collection service",
		Long: `whiskyd serves a small whisky collection over a JSON HTTP API,
backed by an embedded SQLite file or a PostgreSQL database.

Use "whiskyd [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.PersistentFlags().String("config", "", "config file (YAML, optional)")
	root.PersistentFlags().Int("port", 8080, "HTTP port (overrides http.port)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newVersionCmd())

	root.CompletionOptions.DisableDefaultCmd = true

	return root
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads configuration honouring the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path, config.WithFlag("http.port", cmd.Flags().Lookup("port")))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
