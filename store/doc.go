// Package store persists extraction results in SQLite using the table layout
// of the CDM covariate exports: covariates, covariate_ref, analysis_ref and
// per-builder meta_data.
package store
