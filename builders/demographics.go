package builders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/featurex/covariate"
)

// DemographicsID is the registry id of the demographics builder.
const DemographicsID = "demographics"

// DemographicsSettings selects the demographic analyses to compute.
type DemographicsSettings struct {
	UseGender               bool `json:"useDemographicsGender,omitempty"`
	UseAge                  bool `json:"useDemographicsAge,omitempty"`
	UseAgeGroup             bool `json:"useDemographicsAgeGroup,omitempty"`
	UseRace                 bool `json:"useDemographicsRace,omitempty"`
	UseEthnicity            bool `json:"useDemographicsEthnicity,omitempty"`
	UseIndexYear            bool `json:"useDemographicsIndexYear,omitempty"`
	UseIndexMonth           bool `json:"useDemographicsIndexMonth,omitempty"`
	UsePriorObservationTime bool `json:"useDemographicsPriorObservationTime,omitempty"`
	UsePostObservationTime  bool `json:"useDemographicsPostObservationTime,omitempty"`
	UseTimeInCohort         bool `json:"useDemographicsTimeInCohort,omitempty"`
}

// BuilderID implements covariate.Settings.
func (DemographicsSettings) BuilderID() string { return DemographicsID }

// ParseDemographicsSettings decodes a settings document.
func ParseDemographicsSettings(raw json.RawMessage) (covariate.Settings, error) {
	var s DemographicsSettings
	if err := decode(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// observationJoin restricts to the observation period containing the index date.
const observationJoin = `JOIN @cdm_database_schema.observation_period op
  ON op.person_id = c.subject_id
 AND op.observation_period_start_date <= c.cohort_start_date
 AND op.observation_period_end_date >= c.cohort_start_date`

const personConceptSQL = `SELECT c.@row_id_field AS row_id,
       p.@concept_field * @id_multiplier + @analysis_id AS covariate_id,
       1 AS covariate_value,
       '@label = ' || COALESCE(con.concept_name, 'concept ' || p.@concept_field) AS covariate_name,
       p.@concept_field AS concept_id
FROM @cohort_table c
JOIN @cdm_database_schema.person p ON p.person_id = c.subject_id
LEFT JOIN @cdm_database_schema.concept con ON con.concept_id = p.@concept_field
WHERE p.@concept_field != 0
` + cohortFilter + `
ORDER BY covariate_id, row_id`

const ageSQL = `SELECT c.@row_id_field AS row_id,
       1 * @id_multiplier + @analysis_id AS covariate_id,
       year_of(c.cohort_start_date) - p.year_of_birth AS covariate_value,
       'age in years' AS covariate_name,
       0 AS concept_id
FROM @cohort_table c
JOIN @cdm_database_schema.person p ON p.person_id = c.subject_id
WHERE 1 = 1
` + cohortFilter + `
ORDER BY row_id`

const ageGroupSQL = `SELECT row_id,
       age_group * @id_multiplier + @analysis_id AS covariate_id,
       1 AS covariate_value,
       'age group: ' || (age_group * 5) || ' - ' || (age_group * 5 + 4) AS covariate_name,
       0 AS concept_id
FROM (
    SELECT c.@row_id_field AS row_id,
           (year_of(c.cohort_start_date) - p.year_of_birth) / 5 AS age_group
    FROM @cohort_table c
    JOIN @cdm_database_schema.person p ON p.person_id = c.subject_id
    WHERE 1 = 1
    ` + cohortFilter + `
) t
ORDER BY covariate_id, row_id`

const indexDateSQL = `SELECT c.@row_id_field AS row_id,
       @date_part(c.cohort_start_date) * @id_multiplier + @analysis_id AS covariate_id,
       1 AS covariate_value,
       '@label: ' || @date_part(c.cohort_start_date) AS covariate_name,
       0 AS concept_id
FROM @cohort_table c
WHERE 1 = 1
` + cohortFilter + `
ORDER BY covariate_id, row_id`

const durationSQL = `SELECT c.@row_id_field AS row_id,
       1 * @id_multiplier + @analysis_id AS covariate_id,
       days_between(@from_date, @to_date) AS covariate_value,
       '@label' AS covariate_name,
       0 AS concept_id
FROM @cohort_table c
{@observation} ? {` + observationJoin + `}
WHERE 1 = 1
` + cohortFilter + `
ORDER BY row_id`

// Demographics computes person-level covariates from the person,
// observation_period and cohort tables.
type Demographics struct{}

// Build implements covariate.Builder.
func (Demographics) Build(ctx context.Context, req covariate.Request, settings covariate.Settings) (*covariate.Data, error) {
	s, ok := settings.(DemographicsSettings)
	if !ok {
		return nil, fmt.Errorf("builders: demographics: unexpected settings %T", settings)
	}
	return runAnalyses(ctx, req, s.queries())
}

func (s DemographicsSettings) queries() []analysisQuery {
	var out []analysisQuery
	add := func(enabled bool, id int, name string, binary bool, sql string, params map[string]any) {
		if !enabled {
			return
		}
		out = append(out, analysisQuery{
			ref: covariate.AnalysisRef{
				AnalysisID:       id,
				Name:             name,
				Domain:           "Demographics",
				IsBinary:         binary,
				MissingMeansZero: binary,
			},
			sql:    sql,
			params: params,
		})
	}
	add(s.UseGender, 1, "DemographicsGender", true, personConceptSQL,
		map[string]any{"concept_field": "gender_concept_id", "label": "gender"})
	add(s.UseAge, 2, "DemographicsAge", false, ageSQL, nil)
	add(s.UseAgeGroup, 3, "DemographicsAgeGroup", true, ageGroupSQL, nil)
	add(s.UseRace, 4, "DemographicsRace", true, personConceptSQL,
		map[string]any{"concept_field": "race_concept_id", "label": "race"})
	add(s.UseEthnicity, 5, "DemographicsEthnicity", true, personConceptSQL,
		map[string]any{"concept_field": "ethnicity_concept_id", "label": "ethnicity"})
	add(s.UseIndexYear, 6, "DemographicsIndexYear", true, indexDateSQL,
		map[string]any{"date_part": "year_of", "label": "index year"})
	add(s.UseIndexMonth, 7, "DemographicsIndexMonth", true, indexDateSQL,
		map[string]any{"date_part": "month_of", "label": "index month"})
	add(s.UsePriorObservationTime, 8, "DemographicsPriorObservationTime", false, durationSQL,
		map[string]any{"observation": true, "from_date": "op.observation_period_start_date", "to_date": "c.cohort_start_date", "label": "observation time (days) prior to index"})
	add(s.UsePostObservationTime, 9, "DemographicsPostObservationTime", false, durationSQL,
		map[string]any{"observation": true, "from_date": "c.cohort_start_date", "to_date": "op.observation_period_end_date", "label": "observation time (days) after index"})
	add(s.UseTimeInCohort, 10, "DemographicsTimeInCohort", false, durationSQL,
		map[string]any{"observation": false, "from_date": "c.cohort_start_date", "to_date": "c.cohort_end_date", "label": "time (days) between cohort start and cohort end"})
	return out
}
