package config

import (
	"errors"
	"fmt"
)

const (
	APIVersionV1 = "featurex/v1"

	KindExtraction = "Extraction"
)

// TypeMeta identifies the kind of a configuration document.
type TypeMeta struct {
	APIVersion string `json:"apiVersion,omitempty"`
	Kind       string `json:"kind"`
}

// Validate checks the api version and that the kind is expectedKind.
func (t *TypeMeta) Validate(expectedKind string) error {
	var err error
	switch t.APIVersion {
	case "", APIVersionV1:
	default:
		err = errors.Join(err, fmt.Errorf("unknown apiVersion: '%s'", t.APIVersion))
	}
	if t.Kind != expectedKind {
		err = errors.Join(err, fmt.Errorf("invalid kind '%s': expected '%s'", t.Kind, expectedKind))
	}
	return err
}
