package covariate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/viant/featurex/cdm"
	"github.com/viant/featurex/sqlrender"
)

// Querier is the read access builders get to the database.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Cohort references the table holding the (subject, index date) rows
// covariates are computed for. It is a value type: builders receive a copy
// and cannot change the caller's reference.
type Cohort struct {
	table        string
	definitionID int64
	filtered     bool
}

// NewCohort references every row of table.
func NewCohort(table string) Cohort {
	return Cohort{table: table}
}

// WithDefinitionID returns a copy restricted to one cohort id. Any id,
// including zero and negative ones, is a real filter.
func (c Cohort) WithDefinitionID(id int64) Cohort {
	c.definitionID = id
	c.filtered = true
	return c
}

// Table returns the (optionally schema-qualified) cohort table name.
func (c Cohort) Table() string { return c.table }

// DefinitionID returns the cohort id filter; it is meaningful only when
// Filtered reports true.
func (c Cohort) DefinitionID() int64 { return c.definitionID }

// Filtered reports whether the reference is restricted to one cohort id.
func (c Cohort) Filtered() bool { return c.filtered }

// Request carries everything a builder needs besides its settings.
type Request struct {
	DB Querier
	// TempSchema is where builders may create scratch tables; empty when
	// the database has no separate temp schema.
	TempSchema string
	CDMSchema  string
	CDMVersion cdm.Version
	Cohort     Cohort
	// RowIDField is the cohort column used as row id, subject_id by default.
	RowIDField string
	IDScheme   IDScheme
}

// Params returns the SQL parameters shared by all builders:
// cdm_database_schema, temp_schema, cohort_table, cohort_id_field,
// cohort_filtered, cohort_id, row_id_field, id_multiplier and cdm_version.
func (r Request) Params() sqlrender.Params {
	return sqlrender.Params{
		"cdm_database_schema": r.CDMSchema,
		"temp_schema":         r.TempSchema,
		"cohort_table":        r.Cohort.Table(),
		"cohort_id_field":     r.CDMVersion.CohortIDColumn(),
		"cohort_filtered":     r.Cohort.Filtered(),
		"cohort_id":           r.Cohort.DefinitionID(),
		"row_id_field":        r.RowIDField,
		"id_multiplier":       r.IDScheme.orDefault().Multiplier,
		"cdm_version":         r.CDMVersion.String(),
	}
}

// normalize applies defaults and validates the identifiers that end up
// interpolated into SQL.
func (r Request) normalize() (Request, error) {
	if r.DB == nil {
		return r, fmt.Errorf("covariate: request has no database")
	}
	if err := r.CDMVersion.Validate(); err != nil {
		return r, err
	}
	if strings.TrimSpace(r.CDMSchema) == "" {
		return r, fmt.Errorf("covariate: CDM schema is required")
	}
	if r.Cohort.Table() == "" {
		return r, fmt.Errorf("covariate: cohort table is required")
	}
	if r.RowIDField == "" {
		r.RowIDField = cdm.DefaultRowIDField
	}
	r.IDScheme = r.IDScheme.orDefault()
	for _, name := range []string{r.CDMSchema, r.Cohort.Table(), r.RowIDField} {
		if err := sqlrender.CheckIdentifier(name); err != nil {
			return r, err
		}
	}
	if r.TempSchema != "" {
		if err := sqlrender.CheckIdentifier(r.TempSchema); err != nil {
			return r, err
		}
	}
	return r, nil
}

// loadRowIDs reads the row ids of the referenced cohort. Row ids must be
// unique: a repeated id would give one matrix cell several values.
func loadRowIDs(ctx context.Context, r Request) (map[int64]struct{}, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", r.RowIDField, r.Cohort.Table())
	var args []any
	if r.Cohort.Filtered() {
		q += fmt.Sprintf(" WHERE %s = ?", r.CDMVersion.CohortIDColumn())
		args = append(args, r.Cohort.DefinitionID())
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("covariate: load cohort %s: %w", r.Cohort.Table(), err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if _, ok := ids[id]; ok {
			return nil, fmt.Errorf("%w: %s %d in %s", ErrDuplicateRowID, r.RowIDField, id, r.Cohort.Table())
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// CohortSize returns the number of rows in the referenced cohort.
func CohortSize(ctx context.Context, req Request) (int, error) {
	req, err := req.normalize()
	if err != nil {
		return 0, err
	}
	ids, err := loadRowIDs(ctx, req)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
