package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/medinsights/backend/pkg/config"
	"github.com/medinsights/backend/pkg/database"
	"github.com/medinsights/backend/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check configuration and connectivity",
	Long: `Check configuration, database and Redis connectivity.

Example:
  go run ./cmd/medinsights status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== MedInsights Status ===")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config:   FAIL (%v)\n", err)
		return err
	}
	fmt.Println("Config:   OK")
	fmt.Printf("  env: %s, port: %s\n", cfg.Env, cfg.Port)
	fmt.Printf("  prophet: %s (timeout %s)\n", cfg.Prophet.BaseURL, cfg.Prophet.Timeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	db, err := database.New(cfg)
	if err != nil {
		fmt.Printf("Database: FAIL (%v)\n", err)
		return err
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		fmt.Printf("Database: FAIL (%v)\n", err)
		return err
	}
	fmt.Println("Database: OK")

	if !cfg.Redis.Enabled {
		fmt.Println("Redis:    disabled")
		return nil
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		fmt.Printf("Redis:    FAIL (%v)\n", err)
		return err
	}
	defer redisClient.Close()
	fmt.Println("Redis:    OK")

	return nil
}
