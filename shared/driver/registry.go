// Package driver tracks which store drivers a connection test may open and
// builds their DSNs from connection parameters.
package driver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dracory/flatbridge/shared/store"
)

var ErrDriverNotEnabled = errors.New("driver not enabled")

// Registry tracks enabled database drivers by canonical name.
type Registry struct {
	enabled map[string]struct{}
}

// NewRegistry constructs a registry from the provided names. Aliases are
// normalized, blanks skipped.
func NewRegistry(enabled []string) *Registry {
	m := make(map[string]struct{}, len(enabled))
	for _, n := range enabled {
		if n == "" {
			continue
		}
		m[store.NormalizeDriver(n)] = struct{}{}
	}
	return &Registry{enabled: m}
}

// IsEnabled returns true if the driver name is enabled.
func (r *Registry) IsEnabled(name string) bool {
	_, ok := r.enabled[store.NormalizeDriver(name)]
	return ok
}

// List returns a sorted list of enabled driver names.
func (r *Registry) List() []string {
	out := make([]string, 0, len(r.enabled))
	for n := range r.enabled {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Validate checks that a driver is named and enabled.
func (r *Registry) Validate(name string) error {
	if name == "" {
		return errors.New("driver is required")
	}
	if !r.IsEnabled(name) {
		return fmt.Errorf("%w: %s", ErrDriverNotEnabled, name)
	}
	return nil
}
