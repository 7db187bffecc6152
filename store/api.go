package store

import (
	"context"

	"github.com/viant/featurex/covariate"
)

// Store persists the combined result of an extraction run.
type Store interface {
	// Save replaces the stored result with c.
	Save(ctx context.Context, c *covariate.Combined) error

	// Load reads the stored result back, preserving the order it was saved in.
	Load(ctx context.Context) (*covariate.Combined, error)
}
