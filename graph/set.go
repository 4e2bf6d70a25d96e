package graph

import "sort"

// Set is an unordered collection of node names.
type Set map[string]struct{}

// NewSet returns a Set holding the given names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Add(name string) {
	s[name] = struct{}{}
}

func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members of s in lexical order.
func (s Set) Sorted() []string {
	result := make([]string, 0, len(s))
	for n := range s {
		result = append(result, n)
	}
	sort.Strings(result)
	return result
}

// Intersects reports whether s and other share a member.
func (s Set) Intersects(other Set) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}

	for n := range small {
		if large.Contains(n) {
			return true
		}
	}

	return false
}

// IsSubset reports whether every member of s is in other.
func (s Set) IsSubset(other Set) bool {
	for n := range s {
		if !other.Contains(n) {
			return false
		}
	}
	return true
}
