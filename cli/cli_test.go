package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/featurex/covariate"
	"github.com/viant/featurex/engine"
	"github.com/viant/featurex/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const runSpec = `kind: Extraction
metadata:
  name: e2e
database:
  dsn: cdm.sqlite
cohort:
  table: main.cohort
  definitionId: 1
covariateSettings:
  - demographics:
      useDemographicsAge: true
  - length_of_observation:
      useLengthOfObs: true
`

func seedWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := run(t, "seed", filepath.Join(dir, "cdm.sqlite"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.yaml"), []byte(runSpec), 0o644))
	return dir
}

func TestExtractCmd_JSON(t *testing.T) {
	dir := seedWorkspace(t)
	outPath := filepath.Join(dir, "result.sqlite")

	out, err := run(t, "extract", filepath.Join(dir, "run.yaml"), "-o", "json", "--out", outPath)
	require.NoError(t, err)

	var result struct {
		Name       string                 `json:"name"`
		CohortSize int                    `json:"cohortSize"`
		Covariates []covariate.Covariate  `json:"covariates"`
		Refs       []covariate.Ref        `json:"covariateRef"`
		MetaData   []covariate.Provenance `json:"metaData"`
		Summary    []covariate.Stat       `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "e2e", result.Name)
	assert.Equal(t, 2, result.CohortSize)
	assert.Len(t, result.Covariates, 4)
	assert.Len(t, result.Refs, 2)
	require.Len(t, result.MetaData, 2)
	assert.Equal(t, "demographics", result.MetaData[0].Builder)
	assert.Equal(t, "length_of_observation", result.MetaData[1].Builder)
	require.Len(t, result.Summary, 2)
	assert.EqualValues(t, 999, result.Summary[0].CovariateID)
	assert.InDelta(t, 1103, result.Summary[0].Mean, 1e-9)
	assert.EqualValues(t, 1002, result.Summary[1].CovariateID)
	assert.InDelta(t, 42.5, result.Summary[1].Mean, 1e-9)

	db, err := engine.Open(outPath)
	require.NoError(t, err)
	defer db.Close()
	s, err := store.NewSQLiteStore(t.Context(), db)
	require.NoError(t, err)
	loaded, err := s.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, result.Covariates, loaded.Covariates)
}

func TestExtractCmd_Text(t *testing.T) {
	dir := seedWorkspace(t)
	out, err := run(t, "extract", filepath.Join(dir, "run.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "=== Extraction: e2e ===")
	assert.Contains(t, out, "Cohort rows: 2")
	assert.Contains(t, out, "Length of observation in days")
	assert.Contains(t, out, "Total: 4 covariate values, 2 covariates, 2 analyses")
}

func TestExtractCmd_Errors(t *testing.T) {
	dir := seedWorkspace(t)

	_, err := run(t, "extract", filepath.Join(dir, "run.yaml"), "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")

	_, err = run(t, "extract", filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to load run spec")

	bad := strings.Replace(runSpec, "length_of_observation:", "custom:", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644))
	_, err = run(t, "extract", filepath.Join(dir, "bad.yaml"))
	var unknown *covariate.UnknownBuilderError
	assert.ErrorAs(t, err, &unknown)
}

func TestBuildersCmd(t *testing.T) {
	out, err := run(t, "builders")
	require.NoError(t, err)
	assert.Equal(t, "condition_occurrence\ndemographics\nlength_of_observation\n", out)
}

func TestSeedCmd_InvalidVersion(t *testing.T) {
	_, err := run(t, "seed", filepath.Join(t.TempDir(), "cdm.sqlite"), "--cdm-version", "6")
	assert.Error(t, err)
}
