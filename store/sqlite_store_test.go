package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/featurex/covariate"
	"github.com/viant/featurex/engine"
	"k8s.io/utils/ptr"
)

func TestSQLiteStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	db, err := engine.Open(filepath.Join(t.TempDir(), "result.sqlite"))
	require.NoError(t, err)
	defer db.Close()

	s, err := NewSQLiteStore(ctx, db)
	require.NoError(t, err)

	combined := &covariate.Combined{
		Covariates: []covariate.Covariate{
			{RowID: 2, CovariateID: 1002, Value: 45},
			{RowID: 1, CovariateID: 1002, Value: 40},
			{RowID: 1, CovariateID: 999, Value: 1826.5},
		},
		Refs: []covariate.Ref{
			{CovariateID: 1002, Name: "age in years", AnalysisID: 2},
			{CovariateID: 999, Name: "Length of observation in days", AnalysisID: 999},
		},
		Analyses: []covariate.AnalysisRef{
			{AnalysisID: 999, Name: "Length of observation", Domain: "Demographics"},
			{AnalysisID: 102, Name: "ConditionOccurrence", Domain: "Condition", StartDay: ptr.To(-365), EndDay: ptr.To(0), IsBinary: true, MissingMeansZero: true},
		},
		MetaData: []covariate.Provenance{
			{Builder: "length_of_observation"},
			{Builder: "demographics", MetaData: map[string]any{"sql": []string{"SELECT 1"}, "parameters": map[string]any{"cohort_id": -1}}},
		},
	}
	require.NoError(t, s.Save(ctx, combined))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, combined.Covariates, loaded.Covariates)
	assert.Equal(t, combined.Refs, loaded.Refs)
	assert.Equal(t, combined.Analyses, loaded.Analyses)
	require.Len(t, loaded.MetaData, 2)
	assert.Equal(t, covariate.Provenance{Builder: "length_of_observation"}, loaded.MetaData[0])
	assert.Equal(t, "demographics", loaded.MetaData[1].Builder)
	assert.Equal(t, []any{"SELECT 1"}, loaded.MetaData[1].MetaData["sql"])
	assert.Equal(t, map[string]any{"cohort_id": float64(-1)}, loaded.MetaData[1].MetaData["parameters"])

	t.Run("save replaces previous result", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, &covariate.Combined{MetaData: []covariate.Provenance{{Builder: "demographics"}}}))
		loaded, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, loaded.Covariates)
		assert.Empty(t, loaded.Refs)
		assert.Empty(t, loaded.Analyses)
		assert.Equal(t, []covariate.Provenance{{Builder: "demographics"}}, loaded.MetaData)
	})

	t.Run("reopen keeps data", func(t *testing.T) {
		again, err := NewSQLiteStore(ctx, db)
		require.NoError(t, err)
		loaded, err := again.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, loaded.MetaData, 1)
	})
}

func TestSQLiteStore_Errors(t *testing.T) {
	_, err := NewSQLiteStore(context.Background(), nil)
	assert.Error(t, err)

	db, err := engine.Open(filepath.Join(t.TempDir(), "result.sqlite"))
	require.NoError(t, err)
	defer db.Close()
	s, err := NewSQLiteStore(context.Background(), db)
	require.NoError(t, err)
	assert.Error(t, s.Save(context.Background(), nil))
	assert.Error(t, s.Save(context.Background(), &covariate.Combined{
		MetaData: []covariate.Provenance{{Builder: "bad", MetaData: map[string]any{"ch": make(chan int)}}},
	}))
}
