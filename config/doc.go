// Package config reads extraction run specs: YAML documents of kind
// Extraction naming the database, the CDM layout, the cohort, dispatch
// options and the ordered list of covariate settings.
package config
