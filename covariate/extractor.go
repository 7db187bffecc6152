package covariate

import (
	"context"
	"fmt"
)

// Extractor resolves, dispatches and assembles in one call.
type Extractor struct {
	registry   *Registry
	dispatcher *Dispatcher
}

// NewExtractor returns an extractor over registry.
func NewExtractor(registry *Registry, opts ...Option) *Extractor {
	return &Extractor{registry: registry, dispatcher: NewDispatcher(opts...)}
}

// Extract computes the combined covariates for settings. Settings are
// resolved before the database is touched.
func (e *Extractor) Extract(ctx context.Context, req Request, settings ...Settings) (*Combined, error) {
	if e.registry == nil {
		return nil, fmt.Errorf("covariate: extractor has no registry")
	}
	invocations, err := e.registry.Resolve(settings...)
	if err != nil {
		return nil, err
	}
	results, err := e.dispatcher.Dispatch(ctx, req, invocations)
	if err != nil {
		return nil, err
	}
	return Assemble(results)
}
