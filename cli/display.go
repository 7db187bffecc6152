package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/viant/featurex/covariate"
)

// extraction is what the extract command reports.
type extraction struct {
	Name       string `json:"name"`
	CohortSize int    `json:"cohortSize"`
	*covariate.Combined
	Summary []covariate.Stat `json:"summary"`
}

func displayResult(w io.Writer, format string, result *extraction) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)

	case "text":
		displayTextResult(w, result)
		return nil

	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func displayTextResult(w io.Writer, result *extraction) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	bold := color.New(color.Bold)

	fmt.Fprintln(w)
	bold.Fprintf(w, "=== Extraction: %s ===\n", result.Name)
	fmt.Fprintf(w, "Cohort rows: %d\n", result.CohortSize)
	fmt.Fprintln(w)

	perAnalysis := map[int]int{}
	for _, ref := range result.Refs {
		perAnalysis[ref.AnalysisID]++
	}
	for _, p := range result.MetaData {
		if p.MetaData == nil {
			yellow.Fprintf(w, "  - %s: no covariates\n", p.Builder)
			continue
		}
		green.Fprintf(w, "  ✓ %s\n", p.Builder)
	}

	fmt.Fprintln(w)
	bold.Fprintln(w, "Analyses:")
	analyses := append([]covariate.AnalysisRef(nil), result.Analyses...)
	sort.Slice(analyses, func(i, j int) bool { return analyses[i].AnalysisID < analyses[j].AnalysisID })
	for _, a := range analyses {
		cyan.Fprintf(w, "  %4d %s", a.AnalysisID, a.Name)
		fmt.Fprintf(w, " (%d covariates)\n", perAnalysis[a.AnalysisID])
	}

	fmt.Fprintln(w)
	bold.Fprintln(w, "Covariates:")
	for _, s := range result.Summary {
		name := ""
		if ref, ok := result.RefFor(s.CovariateID); ok {
			name = ref.Name
		}
		fmt.Fprintf(w, "  %12d  n=%-5d mean=%-10.3f sd=%-10.3f %s\n", s.CovariateID, s.Count, s.Mean, s.SD, name)
	}

	fmt.Fprintln(w)
	bold.Fprintf(w, "Total: %d covariate values, %d covariates, %d analyses\n", len(result.Covariates), len(result.Refs), len(result.Analyses))
}
