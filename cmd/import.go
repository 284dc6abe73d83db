package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joeharson/mushroom-classification/db"
	"github.com/joeharson/mushroom-classification/pipeline"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Copy a CSV reference dataset into a SQLite database",
		Example: "  mushroom-classification import --csv mushrooms.csv --db mushrooms.db",
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			dbPath, _ := cmd.Flags().GetString("db")
			if csvPath == "" || dbPath == "" {
				return errors.New("both --csv and --db are required")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			store, err := db.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := pipeline.ImportCSV(csvPath, store)
			if err != nil {
				a.logger.Error("Import failed", zap.String("csv", csvPath), zap.Error(err))
				return err
			}
			a.logger.Info("Reference dataset imported",
				zap.String("csv", csvPath),
				zap.String("db", store.Path()),
				zap.Int("rows", result.Imported),
				zap.Int("skipped", result.Skipped))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s", result.Imported, store.Path())
			if result.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (%d malformed rows skipped)", result.Skipped)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().String("csv", "", "Source CSV file")
	cmd.Flags().String("db", "", "Target SQLite database file")
	return cmd
}
