// Package cpt implements conditional probability tables estimated from
// observed samples. Tables hold raw frequency counts; probabilities are
// derived on demand, so an empty row is distinguishable from a row of
// zeros.
package cpt

import (
	"fmt"
	"sort"

	"github.com/abemo/causalquestioning/internal/f64"
	"github.com/abemo/causalquestioning/scm"
)

// Table accumulates counts of Variable for each observed assignment of
// Parents.
type Table struct {
	variable string
	parents  []string
	domain   []int

	// Map of RowKey(parent values) -> counts for that row.
	rows map[string]*row
}

type row struct {
	given  []int
	counts []float64
}

// NewTable returns an empty table for variable conditioned on parents.
func NewTable(variable string, parents []string, domain []int) *Table {
	return &Table{
		variable: variable,
		parents:  append([]string(nil), parents...),
		domain:   append([]int(nil), domain...),
		rows:     make(map[string]*row),
	}
}

func (t *Table) Variable() string  { return t.variable }
func (t *Table) Parents() []string { return append([]string(nil), t.parents...) }
func (t *Table) Domain() []int     { return append([]int(nil), t.domain...) }

// Add records one observation and returns the updated estimate of the
// row it fell in. Samples that do not assign the variable and all of
// its parents, or hold an out-of-domain value, are ignored and yield nil.
func (t *Table) Add(sample scm.Assignment) []float64 {
	v, ok := sample[t.variable]
	if !ok {
		return nil
	}

	i := indexOf(t.domain, v)
	if i < 0 {
		return nil
	}

	given, ok := sample.Values(t.parents)
	if !ok {
		return nil
	}

	r := t.getRow(given)
	r.counts[i]++
	return normalized(r.counts)
}

func (t *Table) getRow(given []int) *row {
	key := scm.RowKey(given)
	r, ok := t.rows[key]
	if !ok {
		r = &row{
			given:  append([]int(nil), given...),
			counts: make([]float64, len(t.domain)),
		}
		t.rows[key] = r
	}
	return r
}

// Estimate returns the estimated distribution for one full parent
// assignment, or false if it was never observed.
func (t *Table) Estimate(parentValues []int) ([]float64, bool) {
	r, ok := t.rows[scm.RowKey(parentValues)]
	if !ok || f64.Sum(r.counts) == 0 {
		return nil, false
	}
	return normalized(r.counts), true
}

// Count returns the number of observations with the variable equal to
// value among rows that agree with givens. Parents that givens does not
// assign are summed over; entries of givens that are not parents are
// ignored.
func (t *Table) Count(value int, givens scm.Assignment) float64 {
	i := indexOf(t.domain, value)
	if i < 0 {
		return 0
	}

	var total float64
	for _, r := range t.rows {
		if t.matches(r, givens) {
			total += r.counts[i]
		}
	}
	return total
}

// Prob returns the estimate of P(variable = value | givens). It returns
// false when no observation agrees with givens.
func (t *Table) Prob(value int, givens scm.Assignment) (float64, bool) {
	i := indexOf(t.domain, value)
	if i < 0 {
		return 0, false
	}

	var hits, total float64
	for _, r := range t.rows {
		if t.matches(r, givens) {
			hits += r.counts[i]
			total += f64.Sum(r.counts)
		}
	}

	if total == 0 {
		return 0, false
	}
	return hits / total, true
}

func (t *Table) matches(r *row, givens scm.Assignment) bool {
	for j, p := range t.parents {
		if v, ok := givens[p]; ok && v != r.given[j] {
			return false
		}
	}
	return true
}

// Total returns the number of observations recorded.
func (t *Table) Total() float64 {
	var total float64
	for _, r := range t.rows {
		total += f64.Sum(r.counts)
	}
	return total
}

// Clone returns an independent copy of t.
func (t *Table) Clone() *Table {
	c := NewTable(t.variable, t.parents, t.domain)
	for k, r := range t.rows {
		c.rows[k] = &row{
			given:  append([]int(nil), r.given...),
			counts: append([]float64(nil), r.counts...),
		}
	}
	return c
}

func (t *Table) String() string {
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := fmt.Sprintf("Table(%s | %v)", t.variable, t.parents)
	for _, k := range keys {
		s += fmt.Sprintf(" [%s]=%v", k, t.rows[k].counts)
	}
	return s
}

func normalized(counts []float64) []float64 {
	p := append([]float64(nil), counts...)
	f64.Normalize(p)
	return p
}

func indexOf(domain []int, value int) int {
	for i, v := range domain {
		if v == value {
			return i
		}
	}
	return -1
}
