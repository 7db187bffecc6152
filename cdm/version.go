package cdm

import (
	"fmt"
	"strings"
)

// Version is a CDM major version tag.
type Version string

const (
	V4 Version = "4"
	V5 Version = "5"
)

// ParseVersion accepts "4", "5", "v5" or a dotted version such as "5.3.1".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "v")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	v := Version(s)
	if err := v.Validate(); err != nil {
		return "", err
	}
	return v, nil
}

// Validate reports whether v is a supported version.
func (v Version) Validate() error {
	switch v {
	case V4, V5:
		return nil
	}
	return fmt.Errorf("cdm: unsupported CDM version %q", string(v))
}

// CohortIDColumn is the cohort table column identifying the cohort: v4 keys
// cohorts by concept, v5 by definition.
func (v Version) CohortIDColumn() string {
	if v == V4 {
		return "cohort_concept_id"
	}
	return "cohort_definition_id"
}

func (v Version) String() string { return string(v) }
