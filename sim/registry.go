// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"sort"

	"github.com/someonegg/rsdxchg/locality"
)

// Registry knows the commodities of a simulation and their aliases.
type Registry struct {
	names map[string][]string
	alias *locality.AliasTable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string][]string)}
}

// Register adds a commodity. Registering it again adds aliases.
func (r *Registry) Register(name string, aliases ...string) error {
	names := make(map[string][]string, len(r.names)+1)
	for k, v := range r.names {
		names[k] = v
	}
	names[name] = append(append([]string(nil), names[name]...), aliases...)

	table, err := locality.NewAliasTable(names)
	if err != nil {
		return fmt.Errorf("register commodity %q: %w", name, err)
	}
	r.names, r.alias = names, table
	return nil
}

// Lookup returns the canonical commodity for a name or alias.
func (r *Registry) Lookup(name string) (string, error) {
	if !r.alias.Known(name) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommodity, name)
	}
	return r.alias.Canonical(name), nil
}

// Commodities returns the canonical names in order.
func (r *Registry) Commodities() []string {
	out := make([]string, 0, len(r.names))
	for k := range r.names {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
