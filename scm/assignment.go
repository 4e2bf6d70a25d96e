package scm

import (
	"sort"
	"strconv"
	"strings"
)

// Assignment maps variable names to values. A full Assignment produced by
// Sample is one joint sample of a model.
type Assignment map[string]int

// Key is a deterministic identifier for a, independent of map iteration
// order. It is used to look up per-context state.
func (a Assignment) Key() string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, n := range names {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(n)
		sb.WriteByte('=')
		sb.WriteString(strconv.Itoa(a[n]))
	}

	return sb.String()
}

func (a Assignment) String() string {
	return "{" + a.Key() + "}"
}

// Clone returns a copy of a.
func (a Assignment) Clone() Assignment {
	result := make(Assignment, len(a))
	for k, v := range a {
		result[k] = v
	}
	return result
}

// Project returns the entries of a whose names are listed. Names absent
// from a are skipped.
func (a Assignment) Project(names []string) Assignment {
	result := make(Assignment, len(names))
	for _, n := range names {
		if v, ok := a[n]; ok {
			result[n] = v
		}
	}
	return result
}

// Merge returns a new Assignment holding a and then every entry of others;
// later entries win.
func (a Assignment) Merge(others ...Assignment) Assignment {
	result := a.Clone()
	for _, o := range others {
		for k, v := range o {
			result[k] = v
		}
	}
	return result
}

// Values returns the values of names in order, and false if any is missing.
func (a Assignment) Values(names []string) ([]int, bool) {
	result := make([]int, len(names))
	for i, n := range names {
		v, ok := a[n]
		if !ok {
			return nil, false
		}
		result[i] = v
	}
	return result, true
}

// Agrees reports whether a and other hold the same value for every
// name they share.
func (a Assignment) Agrees(other Assignment) bool {
	for k, v := range a {
		if w, ok := other[k]; ok && w != v {
			return false
		}
	}
	return true
}

// Equal reports whether a and other hold exactly the same entries.
func (a Assignment) Equal(other Assignment) bool {
	return len(a) == len(other) && a.Agrees(other)
}

// Enumerate returns the cartesian product of the domains of names, with
// the last name varying fastest. Enumerating no names yields one empty
// Assignment.
func Enumerate(names []string, domains map[string][]int) []Assignment {
	result := []Assignment{{}}
	for _, n := range names {
		dom := domains[n]
		next := make([]Assignment, 0, len(result)*len(dom))
		for _, partial := range result {
			for _, v := range dom {
				a := partial.Clone()
				a[n] = v
				next = append(next, a)
			}
		}
		result = next
	}

	return result
}

// RowKey identifies a row of a conditional table by its parent values,
// e.g. "0,1".
func RowKey(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
