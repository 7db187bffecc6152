package covariate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Parser builds settings from a JSON document; it is the settings factory
// of a registration.
type Parser func(raw json.RawMessage) (Settings, error)

// Registration binds a builder id to its builder and settings parser.
type Registration struct {
	ID      string
	Builder Builder
	Parse   Parser
}

// SettingsConfig is a single-key document: {"<builderId>": {...settings}}.
type SettingsConfig map[string]json.RawMessage

// Invocation is a resolved settings/builder pair. Label equals BuilderID
// unless the builder appears more than once in a run (id#2, id#3, ...).
type Invocation struct {
	Label     string
	BuilderID string
	Builder   Builder
	Settings  Settings
}

// Registry maps builder ids to registrations.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Registration)}
}

// Register adds reg; ids must be non-empty and unique and the builder set.
func (r *Registry) Register(reg Registration) error {
	if strings.TrimSpace(reg.ID) == "" {
		return fmt.Errorf("covariate: registration requires a builder id")
	}
	if reg.Builder == nil {
		return fmt.Errorf("covariate: builder %q is nil", reg.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[reg.ID]; exists {
		return fmt.Errorf("covariate: a builder already exists for id '%s'", reg.ID)
	}
	r.entries[reg.ID] = reg
	return nil
}

// IDs returns the registered builder ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Lookup returns the builder registered under id.
func (r *Registry) Lookup(id string) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[id]
	return reg.Builder, ok
}

// Resolve maps each settings value to its builder, preserving order. It
// touches no database, so unknown builders fail before any work starts.
func (r *Registry) Resolve(settings ...Settings) ([]Invocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Invocation, 0, len(settings))
	seen := make(map[string]int, len(settings))
	for i, s := range settings {
		if s == nil {
			return nil, fmt.Errorf("covariate: settings at position %d is nil", i)
		}
		id := s.BuilderID()
		reg, ok := r.entries[id]
		if !ok {
			return nil, &UnknownBuilderError{BuilderID: id}
		}
		seen[id]++
		label := id
		if n := seen[id]; n > 1 {
			label = fmt.Sprintf("%s#%d", id, n)
		}
		out = append(out, Invocation{Label: label, BuilderID: id, Builder: reg.Builder, Settings: s})
	}
	return out, nil
}

// ParseSettings builds settings from a single-key config using the parser
// registered for the key.
func (r *Registry) ParseSettings(cfg SettingsConfig) (Settings, error) {
	if len(cfg) != 1 {
		return nil, fmt.Errorf("covariate: each settings entry must name exactly one builder")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, raw := range cfg {
		reg, ok := r.entries[id]
		if !ok {
			return nil, &UnknownBuilderError{BuilderID: id}
		}
		if reg.Parse == nil {
			return nil, fmt.Errorf("covariate: builder %q has no settings parser", id)
		}
		s, err := reg.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("covariate: failed to parse %s settings: %w", id, err)
		}
		if s == nil || s.BuilderID() != id {
			return nil, fmt.Errorf("covariate: parser for %q returned settings for another builder", id)
		}
		return s, nil
	}
	return nil, fmt.Errorf("covariate: no builder id found")
}
