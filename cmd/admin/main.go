// Command admin runs operator tasks against the ImpactUsAll database:
// migrations, demo data, analytics rollups, role changes and reports.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/config"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/database"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "ImpactUsAll operator tasks",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		return logger.Initialize(cfg.LogLevel, cfg.LogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = database.Close()
		_ = logger.Close()
	},
}

// connect opens the configured database and runs migrations
func connect() (*gorm.DB, error) {
	if err := database.Initialize(cfg.DatabaseURL, false); err != nil {
		return nil, err
	}
	if err := database.Migrate(database.DB); err != nil {
		return nil, err
	}
	return database.DB, nil
}

func main() {
	rootCmd.AddCommand(migrateCmd, seedCmd, rollupCmd, promoteCmd, reportCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
