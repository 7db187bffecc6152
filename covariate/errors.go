package covariate

import (
	"errors"
	"fmt"
)

var (
	// ErrRowNotInCohort marks a covariate whose row id is absent from the cohort.
	ErrRowNotInCohort = errors.New("row id not in cohort")
	// ErrDuplicateRowID marks a cohort whose row id column repeats a value.
	ErrDuplicateRowID = errors.New("duplicate row id in cohort")
	// ErrDuplicateRef marks a builder emitting the same covariate id twice in its refs.
	ErrDuplicateRef = errors.New("duplicate covariate id in covariate ref")
)

// UnknownBuilderError reports settings targeting an unregistered builder.
type UnknownBuilderError struct {
	BuilderID string
}

func (e *UnknownBuilderError) Error() string {
	return fmt.Sprintf("covariate: no builder registered for %q", e.BuilderID)
}

// BuilderExecutionError reports a builder that failed, timed out or produced
// invalid output. Label distinguishes repeated invocations of one builder.
type BuilderExecutionError struct {
	BuilderID string
	Label     string
	Err       error
}

func (e *BuilderExecutionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("covariate: builder %s failed: %v", e.Label, e.Err)
}

func (e *BuilderExecutionError) Unwrap() error { return e.Err }

// CovariateIDCollisionError reports two builders emitting the same covariate id.
type CovariateIDCollisionError struct {
	CovariateID int64
	First       string
	Second      string
}

func (e *CovariateIDCollisionError) Error() string {
	return fmt.Sprintf("covariate: covariate id %d emitted by both %s and %s", e.CovariateID, e.First, e.Second)
}
