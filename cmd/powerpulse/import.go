package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"powerpulse/internal/log"
	"powerpulse/internal/storage"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load readings from a CSV file into the energy store",
	Long: `Applies the schema, then inserts every row of the CSV file in one
transaction. Empty cells and "?" are stored as missing readings.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file with an energy_data header row")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", importFile, err)
	}
	defer f.Close()

	records, err := storage.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", importFile, err)
	}

	repo, err := openRepository(cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	n, err := repo.InsertRecords(ctx, records)
	if err != nil {
		return err
	}
	total, err := repo.CountRecords(ctx)
	if err != nil {
		return err
	}

	logger.Info("Import complete", log.FieldOperation, log.OpImport, log.FieldRows, n)
	fmt.Printf("Imported %s readings (%s in store)\n", humanize.Comma(int64(n)), humanize.Comma(int64(total)))
	return nil
}
