package builders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/featurex/covariate"
	"k8s.io/utils/ptr"
)

const (
	// ConditionID is the registry id of the condition occurrence builder.
	ConditionID = "condition_occurrence"
	// DefaultConditionAnalysisID is the analysis id used when none is configured.
	DefaultConditionAnalysisID = 102
	// DefaultConditionStartDay and DefaultConditionEndDay bound the default
	// window, in days relative to the index date.
	DefaultConditionStartDay = -365
	DefaultConditionEndDay   = 0
)

// ConditionSettings configures binary condition occurrence covariates: one
// covariate per condition concept recorded within [StartDay, EndDay] of the
// index date.
type ConditionSettings struct {
	UseConditionOccurrence bool
	StartDay               int
	EndDay                 int
	AnalysisID             int
	IncludedConceptIDs     ConceptSet
	ExcludedConceptIDs     ConceptSet
}

// DefaultConditionSettings returns enabled settings over the default window.
func DefaultConditionSettings() ConditionSettings {
	return ConditionSettings{
		UseConditionOccurrence: true,
		StartDay:               DefaultConditionStartDay,
		EndDay:                 DefaultConditionEndDay,
		AnalysisID:             DefaultConditionAnalysisID,
	}
}

// BuilderID implements covariate.Settings.
func (ConditionSettings) BuilderID() string { return ConditionID }

type conditionDocument struct {
	UseConditionOccurrence *bool      `json:"useConditionOccurrence"`
	StartDay               *int       `json:"startDay"`
	EndDay                 *int       `json:"endDay"`
	AnalysisID             *int       `json:"analysisId"`
	IncludedConceptIDs     ConceptSet `json:"includedCovariateConceptIds"`
	ExcludedConceptIDs     ConceptSet `json:"excludedCovariateConceptIds"`
}

// ParseConditionSettings decodes a settings document. Omitted fields take
// the defaults of DefaultConditionSettings.
func ParseConditionSettings(raw json.RawMessage) (covariate.Settings, error) {
	var doc conditionDocument
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	d := DefaultConditionSettings()
	s := ConditionSettings{
		UseConditionOccurrence: ptr.Deref(doc.UseConditionOccurrence, d.UseConditionOccurrence),
		StartDay:               ptr.Deref(doc.StartDay, d.StartDay),
		EndDay:                 ptr.Deref(doc.EndDay, d.EndDay),
		AnalysisID:             ptr.Deref(doc.AnalysisID, d.AnalysisID),
		IncludedConceptIDs:     doc.IncludedConceptIDs,
		ExcludedConceptIDs:     doc.ExcludedConceptIDs,
	}
	if s.StartDay > s.EndDay {
		return nil, fmt.Errorf("builders: condition_occurrence: startDay %d after endDay %d", s.StartDay, s.EndDay)
	}
	return s, nil
}

const conditionSQL = `SELECT DISTINCT c.@row_id_field AS row_id,
       co.condition_concept_id * @id_multiplier + @analysis_id AS covariate_id,
       1 AS covariate_value,
       'condition_occurrence during day @start_day through @end_day days relative to index: ' ||
           COALESCE(con.concept_name, 'concept ' || co.condition_concept_id) AS covariate_name,
       co.condition_concept_id AS concept_id
FROM @cohort_table c
JOIN @cdm_database_schema.condition_occurrence co ON co.person_id = c.subject_id
LEFT JOIN @cdm_database_schema.concept con ON con.concept_id = co.condition_concept_id
WHERE co.condition_concept_id != 0
  AND days_between(c.cohort_start_date, co.condition_start_date) BETWEEN @start_day AND @end_day
{@has_included} ? {AND co.condition_concept_id IN (@included_concept_ids)}
{@has_excluded} ? {AND co.condition_concept_id NOT IN (@excluded_concept_ids)}
` + cohortFilter + `
ORDER BY covariate_id, row_id`

// ConditionOccurrence computes condition occurrence covariates.
type ConditionOccurrence struct{}

// Build implements covariate.Builder.
func (ConditionOccurrence) Build(ctx context.Context, req covariate.Request, settings covariate.Settings) (*covariate.Data, error) {
	s, ok := settings.(ConditionSettings)
	if !ok {
		return nil, fmt.Errorf("builders: condition_occurrence: unexpected settings %T", settings)
	}
	if !s.UseConditionOccurrence {
		return nil, nil
	}
	if s.StartDay > s.EndDay {
		return nil, fmt.Errorf("builders: condition_occurrence: startDay %d after endDay %d", s.StartDay, s.EndDay)
	}
	analysisID := s.AnalysisID
	if analysisID == 0 {
		analysisID = DefaultConditionAnalysisID
	}
	params := map[string]any{
		"start_day":    s.StartDay,
		"end_day":      s.EndDay,
		"has_included": !s.IncludedConceptIDs.Empty(),
		"has_excluded": !s.ExcludedConceptIDs.Empty(),
	}
	if !s.IncludedConceptIDs.Empty() {
		params["included_concept_ids"] = s.IncludedConceptIDs
	}
	if !s.ExcludedConceptIDs.Empty() {
		params["excluded_concept_ids"] = s.ExcludedConceptIDs
	}
	return runAnalyses(ctx, req, []analysisQuery{{
		ref: covariate.AnalysisRef{
			AnalysisID:       analysisID,
			Name:             "ConditionOccurrence",
			Domain:           "Condition",
			StartDay:         ptr.To(s.StartDay),
			EndDay:           ptr.To(s.EndDay),
			IsBinary:         true,
			MissingMeansZero: true,
		},
		sql:    conditionSQL,
		params: params,
	}})
}
