package discovery

import (
	"sort"
	"strings"
)

// NameSet filters modules or cases by exact name. An empty set matches everything.
type NameSet map[string]struct{}

// NewNameSet builds a set from names, ignoring blanks
func NewNameSet(names ...string) NameSet {
	set := make(NameSet)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

// ParseList splits a comma-separated flag value. Repeated names are kept
// once, in first-seen order.
func ParseList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" && !seen[part] {
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

// Empty reports whether the set places no restriction
func (s NameSet) Empty() bool {
	return len(s) == 0
}

// Allows reports whether name passes the filter
func (s NameSet) Allows(name string) bool {
	if s.Empty() {
		return true
	}
	_, ok := s[name]
	return ok
}

// Unknown returns the names in the set that are not in known, sorted
func (s NameSet) Unknown(known []string) []string {
	index := make(map[string]bool, len(known))
	for _, k := range known {
		index[k] = true
	}
	var unknown []string
	for name := range s {
		if !index[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Names returns the set's members, sorted
func (s NameSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
