package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medinsights/backend/internal/migrations"
	"github.com/medinsights/backend/pkg/config"
	"github.com/medinsights/backend/pkg/database"
	"github.com/medinsights/backend/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Create the database schema.

All statements are idempotent (CREATE TABLE IF NOT EXISTS), so the
command is safe to re-run.

Example:
  go run ./cmd/medinsights migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	fmt.Println("=== MedInsights Migrate ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(cmd.Context(), db.Pool); err != nil {
		return err
	}

	log.Info("Schema applied")
	fmt.Println("\nSchema applied successfully")
	return nil
}
