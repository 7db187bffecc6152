package builders

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/viant/featurex/covariate"
	"github.com/viant/featurex/sqlrender"
)

// cohortFilter restricts the cohort alias c to the referenced cohort id.
const cohortFilter = `{@cohort_filtered} ? {AND c.@cohort_id_field = @cohort_id}`

// analysisQuery is one analysis of a builder: its reference row and a SQL
// template selecting row_id, covariate_id, covariate_value, covariate_name
// and concept_id.
type analysisQuery struct {
	ref    covariate.AnalysisRef
	sql    string
	params sqlrender.Params
}

// runAnalyses renders and runs each query and gathers the rows into one Data
// value. Rendered SQL and the shared parameters are kept as metadata.
func runAnalyses(ctx context.Context, req covariate.Request, queries []analysisQuery) (*covariate.Data, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	base := req.Params()
	data := &covariate.Data{}
	rendered := make([]string, 0, len(queries))
	for _, q := range queries {
		if err := req.IDScheme.ValidateAnalysisID(q.ref.AnalysisID); err != nil {
			return nil, err
		}
		params := sqlrender.Params{"analysis_id": q.ref.AnalysisID}
		for k, v := range base {
			params[k] = v
		}
		for k, v := range q.params {
			params[k] = v
		}
		text, err := sqlrender.Render(q.sql, params)
		if err != nil {
			return nil, fmt.Errorf("builders: render %s: %w", q.ref.Name, err)
		}
		rendered = append(rendered, text)
		if err := collect(ctx, req.DB, text, q.ref.AnalysisID, data); err != nil {
			return nil, fmt.Errorf("builders: %s: %w", q.ref.Name, err)
		}
		data.Analyses = append(data.Analyses, q.ref)
	}
	data.MetaData = map[string]any{
		"sql":        rendered,
		"parameters": map[string]any(base),
	}
	return data, nil
}

// collect appends the rows of text to data, adding a ref the first time a
// covariate id is seen.
func collect(ctx context.Context, db covariate.Querier, text string, analysisID int, data *covariate.Data) error {
	rows, err := db.QueryContext(ctx, text)
	if err != nil {
		return err
	}
	defer rows.Close()

	seen := make(map[int64]bool)
	for _, r := range data.Refs {
		seen[r.CovariateID] = true
	}
	for rows.Next() {
		var (
			c         covariate.Covariate
			name      sql.NullString
			conceptID sql.NullInt64
		)
		if err := rows.Scan(&c.RowID, &c.CovariateID, &c.Value, &name, &conceptID); err != nil {
			return err
		}
		data.Covariates = append(data.Covariates, c)
		if seen[c.CovariateID] {
			continue
		}
		seen[c.CovariateID] = true
		data.Refs = append(data.Refs, covariate.Ref{
			CovariateID: c.CovariateID,
			Name:        name.String,
			AnalysisID:  analysisID,
			ConceptID:   conceptID.Int64,
		})
	}
	return rows.Err()
}

// decode unmarshals a settings document, rejecting unknown fields. An empty
// document leaves doc untouched.
func decode(raw json.RawMessage, doc any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(doc)
}
