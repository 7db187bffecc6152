package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root featurex command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "featurex",
		Short: "Covariate extraction over an OMOP CDM",
		Long: `featurex extracts sparse covariate matrices for a cohort from an OMOP
Common Data Model database using pluggable covariate builders.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewExtractCmd())
	rootCmd.AddCommand(NewBuildersCmd())
	rootCmd.AddCommand(NewSeedCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
