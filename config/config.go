package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/viant/featurex/cdm"
	"github.com/viant/featurex/covariate"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"
)

// DefaultCDMSchema is used when cdm.schema is empty.
const DefaultCDMSchema = "main"

// RunSpec describes one extraction run.
type RunSpec struct {
	TypeMeta          `json:",inline"`
	Metadata          Metadata                   `json:"metadata"`
	Database          Database                   `json:"database"`
	CDM               CDM                        `json:"cdm"`
	Cohort            Cohort                     `json:"cohort"`
	Dispatch          Dispatch                   `json:"dispatch,omitempty"`
	CovariateSettings []covariate.SettingsConfig `json:"covariateSettings"`
	Output            Output                     `json:"output,omitempty"`
}

type Metadata struct {
	Name string `json:"name"`
}

type Database struct {
	// DSN is passed to engine.Open; a relative file path is resolved
	// against the directory of the run spec.
	DSN string `json:"dsn"`
}

type CDM struct {
	// Schema holding the CDM tables, "main" when empty.
	Schema     string `json:"schema,omitempty"`
	TempSchema string `json:"tempSchema,omitempty"`
	// Version is "4" or "5" (default).
	Version string `json:"version,omitempty"`
}

type Cohort struct {
	Table string `json:"table"`
	// DefinitionID restricts the run to one cohort; all rows when unset.
	DefinitionID *int64 `json:"definitionId,omitempty"`
	RowIDField   string `json:"rowIdField,omitempty"`
}

type Dispatch struct {
	Concurrency *int `json:"concurrency,omitempty"`
	// BuilderTimeout is a Go duration string such as "30s".
	BuilderTimeout string `json:"builderTimeout,omitempty"`
	IDMultiplier   *int64 `json:"idMultiplier,omitempty"`
}

type Output struct {
	// Path of a SQLite file receiving the result; empty skips persistence.
	Path string `json:"path,omitempty"`
}

// Read decodes a run spec, applying defaults and resolving relative paths
// against basePath.
func Read(data []byte, basePath string) (*RunSpec, error) {
	spec := &RunSpec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, err
	}
	if err := spec.TypeMeta.Validate(KindExtraction); err != nil {
		return nil, err
	}
	spec.applyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if !strings.Contains(spec.Database.DSN, ":") {
		resolveFilePath(&spec.Database.DSN, basePath)
	}
	resolveFilePath(&spec.Output.Path, basePath)
	return spec, nil
}

// FromFile reads a run spec from path.
func FromFile(path string) (*RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s' for run spec: %w", path, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", path, err)
	}
	return Read(data, filepath.Dir(absPath))
}

func (s *RunSpec) applyDefaults() {
	if s.CDM.Schema == "" {
		s.CDM.Schema = DefaultCDMSchema
	}
	if s.CDM.Version == "" {
		s.CDM.Version = string(cdm.V5)
	}
}

// Validate reports every problem found in the spec.
func (s *RunSpec) Validate() error {
	var err error
	if s.Database.DSN == "" {
		err = errors.Join(err, fmt.Errorf("database.dsn is required"))
	}
	if _, verr := cdm.ParseVersion(s.CDM.Version); verr != nil {
		err = errors.Join(err, verr)
	}
	if s.Cohort.Table == "" {
		err = errors.Join(err, fmt.Errorf("cohort.table is required"))
	}
	if len(s.CovariateSettings) == 0 {
		err = errors.Join(err, fmt.Errorf("covariateSettings must list at least one builder"))
	}
	if s.Dispatch.Concurrency != nil && *s.Dispatch.Concurrency < 1 {
		err = errors.Join(err, fmt.Errorf("dispatch.concurrency must be at least 1"))
	}
	if s.Dispatch.BuilderTimeout != "" {
		if _, derr := time.ParseDuration(s.Dispatch.BuilderTimeout); derr != nil {
			err = errors.Join(err, fmt.Errorf("dispatch.builderTimeout: %w", derr))
		}
	}
	if s.Dispatch.IDMultiplier != nil && *s.Dispatch.IDMultiplier < 10 {
		err = errors.Join(err, fmt.Errorf("dispatch.idMultiplier must be at least 10"))
	}
	return err
}

// Request builds the covariate request for db.
func (s *RunSpec) Request(db covariate.Querier) (covariate.Request, error) {
	version, err := cdm.ParseVersion(s.CDM.Version)
	if err != nil {
		return covariate.Request{}, err
	}
	cohort := covariate.NewCohort(s.Cohort.Table)
	if s.Cohort.DefinitionID != nil {
		cohort = cohort.WithDefinitionID(*s.Cohort.DefinitionID)
	}
	return covariate.Request{
		DB:         db,
		TempSchema: s.CDM.TempSchema,
		CDMSchema:  s.CDM.Schema,
		CDMVersion: version,
		Cohort:     cohort,
		RowIDField: s.Cohort.RowIDField,
		IDScheme:   covariate.IDScheme{Multiplier: ptr.Deref(s.Dispatch.IDMultiplier, covariate.DefaultIDScheme.Multiplier)},
	}, nil
}

// Options returns the dispatch options of the spec.
func (s *RunSpec) Options() ([]covariate.Option, error) {
	opts := []covariate.Option{
		covariate.WithConcurrency(ptr.Deref(s.Dispatch.Concurrency, covariate.DefaultConcurrency)),
	}
	if s.Dispatch.BuilderTimeout != "" {
		d, err := time.ParseDuration(s.Dispatch.BuilderTimeout)
		if err != nil {
			return nil, fmt.Errorf("dispatch.builderTimeout: %w", err)
		}
		opts = append(opts, covariate.WithBuilderTimeout(d))
	}
	return opts, nil
}

// Settings parses the covariateSettings entries with the parsers registered
// in registry, preserving their order.
func (s *RunSpec) Settings(registry *covariate.Registry) ([]covariate.Settings, error) {
	out := make([]covariate.Settings, 0, len(s.CovariateSettings))
	for i, cfg := range s.CovariateSettings {
		settings, err := registry.ParseSettings(cfg)
		if err != nil {
			return nil, fmt.Errorf("covariateSettings[%d]: %w", i, err)
		}
		out = append(out, settings)
	}
	return out, nil
}

func resolveFilePath(filePath *string, basePath string) {
	if filePath == nil || *filePath == "" || filepath.IsAbs(*filePath) {
		return
	}
	*filePath = filepath.Join(basePath, *filePath)
}
