package cdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tt := map[string]struct {
		input     string
		expected  Version
		expectErr bool
	}{
		"plain v5":    {input: "5", expected: V5},
		"plain v4":    {input: "4", expected: V4},
		"prefixed":    {input: "v5", expected: V5},
		"dotted":      {input: "5.3.1", expected: V5},
		"unsupported": {input: "6", expectErr: true},
		"empty":       {input: "", expectErr: true},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			got, err := ParseVersion(tc.input)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestVersion_CohortIDColumn(t *testing.T) {
	assert.Equal(t, "cohort_concept_id", V4.CohortIDColumn())
	assert.Equal(t, "cohort_definition_id", V5.CohortIDColumn())
}
