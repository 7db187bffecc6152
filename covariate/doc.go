// Package covariate implements pluggable covariate extraction over a cohort:
//   - Registry: builder registrations and settings parsers, resolved before
//     any database access
//   - Dispatcher: runs resolved builders against a shared, read-only cohort
//     with bounded concurrency, per-builder timeouts and fail-fast errors
//   - Assemble: merges per-builder sparse results, rejecting covariate id
//     collisions and keeping per-builder provenance in input order
//   - Extractor: the three above behind a single call
package covariate
