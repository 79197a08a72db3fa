package commands

import (
	"fmt"

	"whisky-collection/internal/app"
	"whisky-collection/internal/config"

	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create and seed the Whisky table, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg.Logger)

			store, err := app.OpenStore(cmd.Context(), cfg.Database, nil, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer store.Close()

			seeded, err := store.Repository.EnsureSchema(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to prepare schema: %w", err)
			}

			count, err := store.Repository.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to count whiskies: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema ready: %d whiskies (%d seeded)\n", count, seeded)
			return nil
		},
	}
}
