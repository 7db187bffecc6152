package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/viant/featurex/cdm"
	"github.com/viant/featurex/engine"
)

// NewSeedCmd creates the seed command
func NewSeedCmd() *cobra.Command {
	var cdmVersion string
	var schema string
	var cohortTable string
	var rowIDField string

	cmd := &cobra.Command{
		Use:   "seed [database-file]",
		Short: "Create a small synthetic CDM with a cohort",
		Long: `Create the person, observation_period, condition_occurrence and concept tables
plus a cohort table in a SQLite file and load three synthetic persons. Persons 1 and 2
form cohort 1, person 3 forms cohort 2.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := cdm.ParseVersion(cdmVersion)
			if err != nil {
				return err
			}
			db, err := engine.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if err := cdm.Seed(cmd.Context(), db, schema, cohortTable, version, rowIDField); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Seeded CDM v%s into %s (cohort table %s)\n", version, args[0], cohortTable)
			return nil
		},
	}

	cmd.Flags().StringVar(&cdmVersion, "cdm-version", string(cdm.V5), "CDM version (4 or 5)")
	cmd.Flags().StringVar(&schema, "schema", "main", "Schema receiving the CDM tables")
	cmd.Flags().StringVar(&cohortTable, "cohort-table", "main.cohort", "Cohort table name")
	cmd.Flags().StringVar(&rowIDField, "row-id-field", "", "Dedicated row id column of the cohort table")

	return cmd
}
