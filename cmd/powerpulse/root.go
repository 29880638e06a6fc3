package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"powerpulse/internal/cli"
	"powerpulse/internal/config"
	"powerpulse/internal/log"
	"powerpulse/internal/storage"
)

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "powerpulse",
	Short: "Household energy dashboard and consumption predictor",
	Long: `PowerPulse serves an interactive dashboard over household power readings
and predicts Global Active Power from a trained regression model.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (overrides POWERPULSE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides POWERPULSE_DB_PATH)")
}

// bootstrap loads configuration, applying the persistent flags on top.
func bootstrap() (*config.Config, *log.Logger, error) {
	if cfgFile != "" {
		if err := os.Setenv("POWERPULSE_CONFIG", cfgFile); err != nil {
			return nil, nil, err
		}
	}
	if dbPath != "" {
		if err := os.Setenv("POWERPULSE_DB_PATH", dbPath); err != nil {
			return nil, nil, err
		}
	}
	return cli.Bootstrap()
}

// openRepository opens the energy store for the write commands.
func openRepository(cmd *cobra.Command, cfg *config.Config, logger *log.Logger) (*storage.Repository, error) {
	repo, err := storage.NewRepository(cmd.Context(), cfg.Storage(), logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return repo, nil
}
