package covariate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	combined := &Combined{Covariates: []Covariate{
		{RowID: 1, CovariateID: 1002, Value: 40},
		{RowID: 2, CovariateID: 1002, Value: 60},
		{RowID: 1, CovariateID: 8507001, Value: 1},
	}}

	tt := map[string]struct {
		cohortSize int
		expected   []Stat
	}{
		"distinct rows as cohort size": {
			expected: []Stat{
				{CovariateID: 1002, Count: 2, Sum: 100, Mean: 50, SD: 10},
				{CovariateID: 8507001, Count: 1, Sum: 1, Mean: 0.5, SD: 0.5},
			},
		},
		"absent rows count as zero": {
			cohortSize: 4,
			expected: []Stat{
				{CovariateID: 1002, Count: 2, Sum: 100, Mean: 25, SD: 25.98076211353316},
				{CovariateID: 8507001, Count: 1, Sum: 1, Mean: 0.25, SD: 0.4330127018922193},
			},
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			got := Summarize(combined, tc.cohortSize)
			assert.Len(t, got, len(tc.expected))
			for i, want := range tc.expected {
				assert.Equal(t, want.CovariateID, got[i].CovariateID)
				assert.Equal(t, want.Count, got[i].Count)
				assert.InDelta(t, want.Sum, got[i].Sum, 1e-9)
				assert.InDelta(t, want.Mean, got[i].Mean, 1e-9)
				assert.InDelta(t, want.SD, got[i].SD, 1e-9)
			}
		})
	}

	assert.Nil(t, Summarize(nil, 10))
	assert.Nil(t, Summarize(&Combined{}, 10))
}
