package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/viant/featurex/builders"
	"github.com/viant/featurex/config"
	"github.com/viant/featurex/covariate"
	"github.com/viant/featurex/engine"
	"github.com/viant/featurex/internal/ctxlog"
	"github.com/viant/featurex/store"
)

// NewExtractCmd creates the extract command
func NewExtractCmd() *cobra.Command {
	var outputFormat string
	var outPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "extract [run-spec-file]",
		Short: "Extract covariates for a cohort",
		Long:  `Extract covariates for the cohort and builders named in a run spec file.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := config.FromFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to load run spec: %w", err)
			}
			if outPath != "" {
				spec.Output.Path = outPath
			}

			registry, err := builders.NewRegistry()
			if err != nil {
				return err
			}
			settings, err := spec.Settings(registry)
			if err != nil {
				return err
			}
			opts, err := spec.Options()
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			ctx := ctxlog.WithLogger(cmd.Context(), logger.With("run", spec.Metadata.Name))

			db, err := engine.Open(spec.Database.DSN)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			req, err := spec.Request(db)
			if err != nil {
				return err
			}
			combined, err := covariate.NewExtractor(registry, opts...).Extract(ctx, req, settings...)
			if err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}
			cohortSize, err := covariate.CohortSize(ctx, req)
			if err != nil {
				return err
			}

			if spec.Output.Path != "" {
				if err := saveResult(cmd, spec.Output.Path, combined); err != nil {
					return fmt.Errorf("failed to save result: %w", err)
				}
				ctxlog.FromContext(ctx).Info("result saved", "path", spec.Output.Path)
			}

			return displayResult(cmd.OutOrStdout(), outputFormat, &extraction{
				Name:       spec.Metadata.Name,
				CohortSize: cohortSize,
				Combined:   combined,
				Summary:    covariate.Summarize(combined, cohortSize),
			})
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, json)")
	cmd.Flags().StringVar(&outPath, "out", "", "SQLite file receiving the result (overrides output.path)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	return cmd
}

func saveResult(cmd *cobra.Command, path string, combined *covariate.Combined) error {
	db, err := engine.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := store.NewSQLiteStore(cmd.Context(), db)
	if err != nil {
		return err
	}
	return s.Save(cmd.Context(), combined)
}
