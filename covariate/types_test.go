package covariate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDScheme(t *testing.T) {
	tt := map[string]struct {
		scheme     IDScheme
		conceptID  int64
		analysisID int
		expected   int64
	}{
		"default multiplier":    {conceptID: 8507, analysisID: 1, expected: 8507001},
		"conceptless covariate": {scheme: DefaultIDScheme, analysisID: 999, expected: 999},
		"custom multiplier":     {scheme: IDScheme{Multiplier: 10000}, conceptID: 201826, analysisID: 1102, expected: 2018261102},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			id := tc.scheme.CovariateID(tc.conceptID, tc.analysisID)
			assert.Equal(t, tc.expected, id)
			conceptID, analysisID := tc.scheme.Split(id)
			assert.Equal(t, tc.conceptID, conceptID)
			assert.Equal(t, tc.analysisID, analysisID)
		})
	}

	assert.NoError(t, DefaultIDScheme.ValidateAnalysisID(999))
	assert.Error(t, DefaultIDScheme.ValidateAnalysisID(1000))
	assert.Error(t, DefaultIDScheme.ValidateAnalysisID(0))
	assert.NoError(t, IDScheme{Multiplier: 10000}.ValidateAnalysisID(1000))
}

func TestCombined_FilterAnalyses(t *testing.T) {
	c := &Combined{
		Covariates: []Covariate{{RowID: 1, CovariateID: 1002, Value: 40}, {RowID: 1, CovariateID: 999, Value: 365}},
		Refs:       []Ref{{CovariateID: 1002, AnalysisID: 2}, {CovariateID: 999, AnalysisID: 999}},
		Analyses:   []AnalysisRef{{AnalysisID: 2}, {AnalysisID: 999}},
		MetaData:   []Provenance{{Builder: "demographics"}, {Builder: "loo"}},
	}

	got := c.FilterAnalyses(999)
	assert.Equal(t, []Covariate{{RowID: 1, CovariateID: 999, Value: 365}}, got.Covariates)
	assert.Equal(t, []Ref{{CovariateID: 999, AnalysisID: 999}}, got.Refs)
	assert.Equal(t, []AnalysisRef{{AnalysisID: 999}}, got.Analyses)
	assert.Equal(t, c.MetaData, got.MetaData)
	assert.Len(t, c.Covariates, 2)

	assert.Empty(t, c.FilterAnalyses().Covariates)
}

func TestData_Empty(t *testing.T) {
	var d *Data
	assert.True(t, d.Empty())
	assert.True(t, (&Data{MetaData: map[string]any{"sql": "x"}}).Empty())
	assert.False(t, (&Data{Refs: []Ref{{CovariateID: 1}}}).Empty())
}
