package covariate

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viant/featurex/cdm"
	"github.com/viant/featurex/engine"
)

type fakeSettings struct {
	id  string
	tag int
}

func (s fakeSettings) BuilderID() string { return s.id }

// emitting returns a builder producing the given covariates with a ref per
// distinct covariate id.
func emitting(analysisID int, covariates ...Covariate) Builder {
	return BuilderFunc(func(ctx context.Context, req Request, settings Settings) (*Data, error) {
		data := &Data{MetaData: map[string]any{"settings": settings.(fakeSettings).tag}}
		seen := map[int64]bool{}
		for _, c := range covariates {
			data.Covariates = append(data.Covariates, c)
			if !seen[c.CovariateID] {
				seen[c.CovariateID] = true
				data.Refs = append(data.Refs, Ref{CovariateID: c.CovariateID, AnalysisID: analysisID})
			}
		}
		data.Analyses = []AnalysisRef{{AnalysisID: analysisID}}
		return data, nil
	})
}

func failing(err error) Builder {
	return BuilderFunc(func(ctx context.Context, req Request, settings Settings) (*Data, error) {
		return nil, err
	})
}

func nothing() Builder {
	return BuilderFunc(func(ctx context.Context, req Request, settings Settings) (*Data, error) {
		return nil, nil
	})
}

// newCohortRequest creates a v5 cohort table with one row per subject.
func newCohortRequest(t *testing.T, subjects ...int64) Request {
	t.Helper()
	ctx := context.Background()
	db, err := engine.Open(filepath.Join(t.TempDir(), "cohort.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, cdm.CreateCohortTable(ctx, db, "main.cohort", cdm.V5, ""))
	rows := make([]cdm.CohortRow, 0, len(subjects))
	for _, s := range subjects {
		rows = append(rows, cdm.CohortRow{CohortID: 1, SubjectID: s, StartDate: cdm.Date("2020-01-01"), EndDate: cdm.Date("2020-12-31")})
	}
	require.NoError(t, cdm.InsertCohort(ctx, db, "main.cohort", cdm.V5, "", rows))

	return Request{
		DB:         db,
		CDMSchema:  "main",
		CDMVersion: cdm.V5,
		Cohort:     NewCohort("main.cohort"),
	}
}

// countingQuerier fails every query and counts attempts.
type countingQuerier struct {
	calls atomic.Int32
}

func (q *countingQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	q.calls.Add(1)
	return nil, errors.New("database unavailable")
}
