package covariate

import (
	"context"
	"fmt"
	"slices"
)

// Settings configures one builder invocation. Implementations should be
// comparable value types so that identity is structural.
type Settings interface {
	// BuilderID names the registered builder that consumes these settings.
	BuilderID() string
}

// Builder computes one family of covariates for the cohort in req. A nil
// result means the settings produced no covariates.
type Builder interface {
	Build(ctx context.Context, req Request, settings Settings) (*Data, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, req Request, settings Settings) (*Data, error)

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, req Request, settings Settings) (*Data, error) {
	return f(ctx, req, settings)
}

// Covariate is one non-zero cell of the sparse feature matrix.
type Covariate struct {
	RowID       int64   `json:"rowId"`
	CovariateID int64   `json:"covariateId"`
	Value       float64 `json:"covariateValue"`
}

// Ref describes a covariate id.
type Ref struct {
	CovariateID int64  `json:"covariateId"`
	Name        string `json:"covariateName"`
	AnalysisID  int    `json:"analysisId"`
	ConceptID   int64  `json:"conceptId"`
}

// AnalysisRef describes an analysis, the family a group of covariates
// belongs to. StartDay and EndDay are set for time-windowed analyses.
type AnalysisRef struct {
	AnalysisID       int    `json:"analysisId"`
	Name             string `json:"analysisName"`
	Domain           string `json:"domainId"`
	StartDay         *int   `json:"startDay,omitempty"`
	EndDay           *int   `json:"endDay,omitempty"`
	IsBinary         bool   `json:"isBinary"`
	MissingMeansZero bool   `json:"missingMeansZero"`
}

// Data is the output of a single builder invocation.
type Data struct {
	Covariates []Covariate
	Refs       []Ref
	Analyses   []AnalysisRef
	// MetaData records provenance such as rendered SQL and parameters.
	MetaData map[string]any
}

// Empty reports whether d carries no covariates and no refs.
func (d *Data) Empty() bool {
	return d == nil || (len(d.Covariates) == 0 && len(d.Refs) == 0)
}

// Provenance is one builder's metadata in a combined result.
type Provenance struct {
	Builder  string         `json:"builder"`
	MetaData map[string]any `json:"metaData,omitempty"`
}

// Combined is the merged result of a run.
type Combined struct {
	Covariates []Covariate   `json:"covariates"`
	Refs       []Ref         `json:"covariateRef"`
	Analyses   []AnalysisRef `json:"analysisRef"`
	MetaData   []Provenance  `json:"metaData"`
}

// MetaFor returns the metadata recorded for builder.
func (c *Combined) MetaFor(builder string) (map[string]any, bool) {
	for _, p := range c.MetaData {
		if p.Builder == builder {
			return p.MetaData, true
		}
	}
	return nil, false
}

// RefFor returns the ref for a covariate id.
func (c *Combined) RefFor(covariateID int64) (Ref, bool) {
	for _, r := range c.Refs {
		if r.CovariateID == covariateID {
			return r, true
		}
	}
	return Ref{}, false
}

// FilterAnalyses returns a copy of c restricted to the given analyses.
// Provenance is kept as is.
func (c *Combined) FilterAnalyses(analysisIDs ...int) *Combined {
	out := &Combined{MetaData: slices.Clone(c.MetaData)}
	keep := make(map[int64]bool)
	for _, r := range c.Refs {
		if slices.Contains(analysisIDs, r.AnalysisID) {
			keep[r.CovariateID] = true
			out.Refs = append(out.Refs, r)
		}
	}
	for _, a := range c.Analyses {
		if slices.Contains(analysisIDs, a.AnalysisID) {
			out.Analyses = append(out.Analyses, a)
		}
	}
	for _, cov := range c.Covariates {
		if keep[cov.CovariateID] {
			out.Covariates = append(out.Covariates, cov)
		}
	}
	return out
}

// IDScheme composes concept-based covariate ids as
// conceptID*Multiplier + analysisID, giving every analysis a disjoint block.
type IDScheme struct {
	Multiplier int64 `json:"multiplier"`
}

// DefaultIDScheme is the CDM convention of three analysis digits.
var DefaultIDScheme = IDScheme{Multiplier: 1000}

// CovariateID composes a covariate id.
func (s IDScheme) CovariateID(conceptID int64, analysisID int) int64 {
	return conceptID*s.orDefault().Multiplier + int64(analysisID)
}

// Split decomposes a covariate id into concept and analysis ids.
func (s IDScheme) Split(covariateID int64) (conceptID int64, analysisID int) {
	m := s.orDefault().Multiplier
	return covariateID / m, int(covariateID % m)
}

// ValidateAnalysisID checks that analysisID fits the scheme's analysis block.
func (s IDScheme) ValidateAnalysisID(analysisID int) error {
	m := s.orDefault().Multiplier
	if analysisID < 1 || int64(analysisID) >= m {
		return fmt.Errorf("covariate: analysis id %d outside [1, %d)", analysisID, m)
	}
	return nil
}

func (s IDScheme) orDefault() IDScheme {
	if s.Multiplier <= 0 {
		return DefaultIDScheme
	}
	return s
}
