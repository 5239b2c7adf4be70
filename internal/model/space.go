// Package model defines data structures for the Genie bridge.
package model

// Space represents a Genie space: a named remote workspace scoped to a
// dataset, identified by an opaque ID.
type Space struct {
	ID          string `json:"space_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}
