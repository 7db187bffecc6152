package cdm

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/featurex/sqlrender"
)

const (
	PersonTable              = "person"
	ObservationPeriodTable   = "observation_period"
	ConditionOccurrenceTable = "condition_occurrence"
	ConceptTable             = "concept"

	// DefaultRowIDField is the cohort column used as row id when none is given.
	DefaultRowIDField = "subject_id"
)

// PersonDDL returns the DDL for the person table in schema.
func PersonDDL(schema string) string {
	return `CREATE TABLE IF NOT EXISTS ` + sqlrender.Qualify(schema, PersonTable) + ` (
    person_id            INTEGER PRIMARY KEY,
    gender_concept_id    INTEGER NOT NULL,
    year_of_birth        INTEGER NOT NULL,
    month_of_birth       INTEGER,
    day_of_birth         INTEGER,
    race_concept_id      INTEGER NOT NULL DEFAULT 0,
    ethnicity_concept_id INTEGER NOT NULL DEFAULT 0
);`
}

// ObservationPeriodDDL returns the DDL for the observation_period table.
func ObservationPeriodDDL(schema string) string {
	return `CREATE TABLE IF NOT EXISTS ` + sqlrender.Qualify(schema, ObservationPeriodTable) + ` (
    observation_period_id         INTEGER PRIMARY KEY,
    person_id                     INTEGER NOT NULL,
    observation_period_start_date DATE NOT NULL,
    observation_period_end_date   DATE NOT NULL
);`
}

// ConditionOccurrenceDDL returns the DDL for the condition_occurrence table.
func ConditionOccurrenceDDL(schema string) string {
	return `CREATE TABLE IF NOT EXISTS ` + sqlrender.Qualify(schema, ConditionOccurrenceTable) + ` (
    condition_occurrence_id INTEGER PRIMARY KEY,
    person_id               INTEGER NOT NULL,
    condition_concept_id    INTEGER NOT NULL,
    condition_start_date    DATE NOT NULL,
    condition_end_date      DATE
);`
}

// ConceptDDL returns the DDL for the vocabulary concept table.
func ConceptDDL(schema string) string {
	return `CREATE TABLE IF NOT EXISTS ` + sqlrender.Qualify(schema, ConceptTable) + ` (
    concept_id       INTEGER PRIMARY KEY,
    concept_name     TEXT NOT NULL,
    domain_id        TEXT,
    vocabulary_id    TEXT,
    concept_class_id TEXT,
    concept_code     TEXT
);`
}

// CohortDDL returns the DDL for a cohort table. The cohort id column follows
// version; rowIDField adds a unique row id column unless it is subject_id.
func CohortDDL(table string, version Version, rowIDField string) string {
	extra := ""
	if rowIDField != "" && rowIDField != DefaultRowIDField {
		extra = fmt.Sprintf(",\n    %s INTEGER NOT NULL UNIQUE", rowIDField)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s INTEGER NOT NULL,
    subject_id INTEGER NOT NULL,
    cohort_start_date DATE NOT NULL,
    cohort_end_date DATE NOT NULL%s
);`, table, version.CohortIDColumn(), extra)
}

// SchemaDDL returns the DDL statements for all CDM tables in schema.
func SchemaDDL(schema string) []string {
	return []string{PersonDDL(schema), ObservationPeriodDDL(schema), ConditionOccurrenceDDL(schema), ConceptDDL(schema)}
}

// CreateSchema creates the CDM tables in schema.
func CreateSchema(ctx context.Context, db *sql.DB, schema string) error {
	if db == nil {
		return fmt.Errorf("cdm: db is nil")
	}
	if schema != "" {
		if err := sqlrender.CheckIdentifier(schema); err != nil {
			return err
		}
	}
	for _, stmt := range SchemaDDL(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("cdm: create schema: %w", err)
		}
	}
	return nil
}

// CreateCohortTable creates a cohort table for version.
func CreateCohortTable(ctx context.Context, db *sql.DB, table string, version Version, rowIDField string) error {
	if db == nil {
		return fmt.Errorf("cdm: db is nil")
	}
	if err := version.Validate(); err != nil {
		return err
	}
	if err := sqlrender.CheckIdentifier(table); err != nil {
		return err
	}
	if rowIDField != "" {
		if err := sqlrender.CheckIdentifier(rowIDField); err != nil {
			return err
		}
	}
	if _, err := db.ExecContext(ctx, CohortDDL(table, version, rowIDField)); err != nil {
		return fmt.Errorf("cdm: create cohort table %s: %w", table, err)
	}
	return nil
}
