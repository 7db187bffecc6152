package builders

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ConceptSet is an immutable, comparable set of concept ids kept in canonical
// form (sorted, distinct, comma-separated).
type ConceptSet string

// NewConceptSet builds a set from ids.
func NewConceptSet(ids ...int64) ConceptSet {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return ConceptSet(strings.Join(parts, ","))
}

// IDs returns the concept ids in ascending order.
func (s ConceptSet) IDs() []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(string(s), ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Empty reports whether the set has no ids.
func (s ConceptSet) Empty() bool { return s == "" }

func (s ConceptSet) String() string { return string(s) }

// MarshalJSON encodes the set as a JSON array.
func (s ConceptSet) MarshalJSON() ([]byte, error) {
	ids := s.IDs()
	if ids == nil {
		ids = []int64{}
	}
	return json.Marshal(ids)
}

// UnmarshalJSON accepts a JSON array of ids.
func (s *ConceptSet) UnmarshalJSON(b []byte) error {
	var ids []int64
	if err := json.Unmarshal(b, &ids); err != nil {
		return fmt.Errorf("builders: concept set: %w", err)
	}
	*s = NewConceptSet(ids...)
	return nil
}
