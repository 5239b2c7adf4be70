// Package registry holds the static mapping of Genie space IDs to titles
// and descriptions. The remote API offers no listing endpoint, so the set
// of known spaces is externally maintained configuration, loaded once at
// startup and read-only after that.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fieldline-ai/genie-bridge/internal/model"
)

// Registry is an immutable space lookup table. Safe for concurrent reads.
type Registry struct {
	spaces map[string]model.Space
	order  []string
}

// New builds a registry from a slice of spaces. Later duplicates of a
// space ID override earlier ones.
func New(spaces []model.Space) (*Registry, error) {
	r := &Registry{spaces: make(map[string]model.Space, len(spaces))}
	for _, s := range spaces {
		if s.ID == "" {
			return nil, fmt.Errorf("registry entry %q has no space_id", s.Title)
		}
		if _, seen := r.spaces[s.ID]; !seen {
			r.order = append(r.order, s.ID)
		}
		r.spaces[s.ID] = s
	}
	return r, nil
}

// LoadFile reads a registry from a JSON file containing an array of
// {space_id, title, description} objects.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spaces file: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from raw JSON.
func Parse(data []byte) (*Registry, error) {
	var spaces []model.Space
	if err := json.Unmarshal(data, &spaces); err != nil {
		return nil, fmt.Errorf("parse spaces: %w", err)
	}
	if len(spaces) == 0 {
		return nil, fmt.Errorf("spaces list is empty")
	}
	return New(spaces)
}

// List returns all spaces sorted by title so output is stable across runs.
func (r *Registry) List() []model.Space {
	out := make([]model.Space, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.spaces[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Get returns the space for an ID.
func (r *Registry) Get(spaceID string) (*model.Space, bool) {
	s, ok := r.spaces[spaceID]
	if !ok {
		return nil, false
	}
	return &s, true
}

// Contains reports whether a space ID is registered.
func (r *Registry) Contains(spaceID string) bool {
	_, ok := r.spaces[spaceID]
	return ok
}

// Len returns the number of registered spaces.
func (r *Registry) Len() int { return len(r.spaces) }
