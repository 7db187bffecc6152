// Package builders provides the covariate builders bundled with featurex:
// demographics, length of observation and condition occurrence. Each builder
// renders a parameterized SQL template against the CDM and converts the rows
// into sparse covariates.
//
// NewRegistry returns a covariate.Registry with every bundled builder and its
// settings parser registered.
package builders
