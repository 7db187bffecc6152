// Package cdm defines the slice of the OMOP Common Data Model that the
// bundled covariate builders read: version tags, DDL for the person,
// observation_period, condition_occurrence and concept tables, the cohort
// table layout for CDM v4 and v5, and row models with bulk insert helpers.
// The DDL assumes SQLite-compatible syntax; other engines may need
// adjustments.
package cdm
