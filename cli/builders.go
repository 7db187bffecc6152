package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viant/featurex/builders"
)

// NewBuildersCmd creates the builders command
func NewBuildersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "builders",
		Short: "List the registered covariate builders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := builders.NewRegistry()
			if err != nil {
				return err
			}
			for _, id := range registry.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
