package store

import (
	"context"
	"database/sql"
)

const (
	covariatesTable   = "covariates"
	covariateRefTable = "covariate_ref"
	analysisRefTable  = "analysis_ref"
	metaDataTable     = "meta_data"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS covariates (
    row_id          INTEGER NOT NULL,
    covariate_id    INTEGER NOT NULL,
    covariate_value REAL NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS covariate_ref (
    covariate_id   INTEGER NOT NULL UNIQUE,
    covariate_name TEXT,
    analysis_id    INTEGER NOT NULL,
    concept_id     INTEGER NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS analysis_ref (
    analysis_id        INTEGER NOT NULL UNIQUE,
    analysis_name      TEXT,
    domain_id          TEXT,
    start_day          INTEGER,
    end_day            INTEGER,
    is_binary          INTEGER NOT NULL,
    missing_means_zero INTEGER NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS meta_data (
    position INTEGER PRIMARY KEY,
    builder  TEXT NOT NULL,
    meta     TEXT
);`,
}

// EnsureSchema creates the result tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
