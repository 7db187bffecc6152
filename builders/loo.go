package builders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/featurex/covariate"
)

const (
	// LooID is the registry id of the length of observation builder.
	LooID = "length_of_observation"
	// DefaultLooAnalysisID is the analysis id used when none is configured.
	DefaultLooAnalysisID = 999
)

// LooSettings enables the length of observation covariate: days from the
// start of the observation period containing the index date to the index date.
type LooSettings struct {
	UseLengthOfObs bool `json:"useLengthOfObs"`
	AnalysisID     int  `json:"analysisId,omitempty"`
}

// BuilderID implements covariate.Settings.
func (LooSettings) BuilderID() string { return LooID }

// ParseLooSettings decodes a settings document.
func ParseLooSettings(raw json.RawMessage) (covariate.Settings, error) {
	var s LooSettings
	if err := decode(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}

const looSQL = `SELECT c.@row_id_field AS row_id,
       0 * @id_multiplier + @analysis_id AS covariate_id,
       days_between(op.observation_period_start_date, c.cohort_start_date) AS covariate_value,
       'Length of observation in days' AS covariate_name,
       0 AS concept_id
FROM @cohort_table c
` + observationJoin + `
WHERE 1 = 1
` + cohortFilter + `
ORDER BY row_id`

// LengthOfObservation computes the length of observation covariate.
type LengthOfObservation struct{}

// Build implements covariate.Builder.
func (LengthOfObservation) Build(ctx context.Context, req covariate.Request, settings covariate.Settings) (*covariate.Data, error) {
	s, ok := settings.(LooSettings)
	if !ok {
		return nil, fmt.Errorf("builders: length_of_observation: unexpected settings %T", settings)
	}
	if !s.UseLengthOfObs {
		return nil, nil
	}
	analysisID := s.AnalysisID
	if analysisID == 0 {
		analysisID = DefaultLooAnalysisID
	}
	return runAnalyses(ctx, req, []analysisQuery{{
		ref: covariate.AnalysisRef{
			AnalysisID: analysisID,
			Name:       "Length of observation",
			Domain:     "Demographics",
		},
		sql: looSQL,
	}})
}
