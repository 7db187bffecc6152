package sqlrender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tt := map[string]struct {
		sql         string
		params      Params
		expected    string
		expectErr   bool
		errContains string
	}{
		"substitutes parameters": {
			sql:      "SELECT @row_id_field FROM @cdm_database_schema.person",
			params:   Params{"row_id_field": "subject_id", "cdm_database_schema": "main"},
			expected: "SELECT subject_id FROM main.person",
		},
		"longest parameter name wins": {
			sql:      "SELECT @a, @ab",
			params:   Params{"a": 1, "ab": 2},
			expected: "SELECT 1, 2",
		},
		"default applies when missing": {
			sql:      "{DEFAULT @cohort_id = -1} SELECT @cohort_id",
			expected: "SELECT -1",
		},
		"caller overrides default": {
			sql:      "{DEFAULT @cohort_id = -1} SELECT @cohort_id",
			params:   Params{"cohort_id": int64(3)},
			expected: "SELECT 3",
		},
		"conditional kept": {
			sql:      "WHERE 1 = 1 {@cohort_id != -1} ? {AND cohort_definition_id = @cohort_id}",
			params:   Params{"cohort_id": 7},
			expected: "WHERE 1 = 1 AND cohort_definition_id = 7",
		},
		"conditional dropped": {
			sql:      "WHERE 1 = 1 {@cohort_id != -1} ? {AND cohort_definition_id = @cohort_id}",
			params:   Params{"cohort_id": -1},
			expected: "WHERE 1 = 1",
		},
		"else branch": {
			sql:      "{@binary} ? {1} : {COUNT(*)}",
			params:   Params{"binary": false},
			expected: "COUNT(*)",
		},
		"nested blocks": {
			sql:      "{@a} ? {x {@b} ? {y} : {z}}",
			params:   Params{"a": true, "b": false},
			expected: "x z",
		},
		"and or negation": {
			sql:      "{@a & !@b | @c} ? {hit} : {miss}",
			params:   Params{"a": true, "b": false, "c": false},
			expected: "hit",
		},
		"parenthesized groups": {
			sql:      "{(@a | @b) & (@c)} ? {hit} : {miss}",
			params:   Params{"a": false, "b": true, "c": false},
			expected: "miss",
		},
		"in list": {
			sql:      "{@version IN (4, 5)} ? {ok}",
			params:   Params{"version": "5"},
			expected: "ok",
		},
		"list parameter": {
			sql:      "concept_id IN (@ids)",
			params:   Params{"ids": []int64{1, 2, 3}},
			expected: "concept_id IN (1,2,3)",
		},
		"unresolved parameter": {
			sql:         "SELECT @missing",
			expectErr:   true,
			errContains: "@missing",
		},
		"unbalanced block": {
			sql:         "{@a} ? {oops",
			params:      Params{"a": true},
			expectErr:   true,
			errContains: "unbalanced",
		},
		"unknown condition": {
			sql:         "{maybe} ? {x}",
			expectErr:   true,
			errContains: "cannot evaluate",
		},
	}

	for tn, tc := range tt {
		t.Run(tn, func(t *testing.T) {
			got, err := Render(tc.sql, tc.params)
			if tc.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCheckIdentifier(t *testing.T) {
	assert.NoError(t, CheckIdentifier("cohort"))
	assert.NoError(t, CheckIdentifier("main.cohort_person"))
	assert.Error(t, CheckIdentifier("cohort; DROP TABLE person"))
	assert.Error(t, CheckIdentifier("a.b.c"))
	assert.Error(t, CheckIdentifier(""))
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "person", Qualify("", "person"))
	assert.Equal(t, "cdm.person", Qualify("cdm", "person"))
}
