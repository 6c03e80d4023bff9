// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDuplicateAlias = errors.New("locality: repeated alias")

// AliasTable maps alternative spellings onto canonical names. Lookups are
// case-insensitive.
type AliasTable struct {
	alias map[string]string
}

// NewAliasTable builds a table from canonical names to their aliases. Every
// canonical name is also an alias of itself.
func NewAliasTable(names map[string][]string) (*AliasTable, error) {
	t := &AliasTable{alias: make(map[string]string)}
	for canon, as := range names {
		if err := t.add(strings.ToLower(canon), canon); err != nil {
			return nil, err
		}
		for _, a := range as {
			if err := t.add(strings.ToLower(a), canon); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func (t *AliasTable) add(alias, canon string) error {
	if o, ok := t.alias[alias]; ok && o != canon {
		return fmt.Errorf("%w: %q for %q and %q", ErrDuplicateAlias, alias, o, canon)
	}
	t.alias[alias] = canon
	return nil
}

// Canonical returns the canonical name of s, or s itself lowercased when
// it is unknown.
func (t *AliasTable) Canonical(s string) string {
	s = strings.ToLower(s)
	if t == nil {
		return s
	}
	if o, ok := t.alias[s]; ok {
		return o
	}
	return s
}

// Known reports whether s is a canonical name or an alias.
func (t *AliasTable) Known(s string) bool {
	if t == nil {
		return false
	}
	_, ok := t.alias[strings.ToLower(s)]
	return ok
}

// AliasUnifier unifies carriers and sites through alias tables. A nil table
// only lowercases.
type AliasUnifier struct {
	Carriers *AliasTable
	Sites    *AliasTable
}

func (u AliasUnifier) Unify(l Location) Location {
	l.Carrier = u.Carriers.Canonical(l.Carrier)
	l.Site = u.Sites.Canonical(l.Site)
	return l
}
