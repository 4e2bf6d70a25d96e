package scm

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/abemo/causalquestioning/internal/f64"
	"github.com/abemo/causalquestioning/sampling"
)

const probTol = 1e-6

// Model generates the value of one variable. It is either an
// *ActionModel, whose value is supplied from outside, or a
// *DiscreteModel, which draws from a conditional table.
type Model interface {
	// Parents returns the variables this model is conditioned on.
	Parents() []string
	// Domain returns the ordered finite set of values.
	Domain() []int
}

// ActionModel is a placeholder for a variable whose value is set by the
// caller at sample time.
type ActionModel struct {
	parents []string
	domain  []int
}

// NewActionModel returns an action placeholder with the given parents
// and domain.
func NewActionModel(parents []string, domain []int) *ActionModel {
	return &ActionModel{
		parents: append([]string(nil), parents...),
		domain:  append([]int(nil), domain...),
	}
}

func (m *ActionModel) Parents() []string { return append([]string(nil), m.parents...) }
func (m *ActionModel) Domain() []int     { return append([]int(nil), m.domain...) }

func (m *ActionModel) String() string {
	return fmt.Sprintf("ActionModel(parents=%v, domain=%v)", m.parents, m.domain)
}

// Rows is a conditional table keyed by RowKey of the parent values.
type Rows map[string][]float64

// DiscreteModel is a stochastic node with a conditional probability
// table over a finite domain.
type DiscreteModel struct {
	parents []string
	domain  []int
	rows    Rows
}

// NewDiscreteModel validates and returns a conditional table model. Each
// row must have one probability per domain value, be non-negative, and
// sum to one. Whether every parent combination has a row is checked when
// the model is placed in an SCM.
func NewDiscreteModel(name string, parents []string, domain []int, rows Rows) (*DiscreteModel, error) {
	if len(domain) == 0 {
		return nil, &MalformedModelError{Node: name, Reason: "empty domain"}
	}

	m := &DiscreteModel{
		parents: append([]string(nil), parents...),
		domain:  append([]int(nil), domain...),
		rows:    make(Rows, len(rows)),
	}

	for key, p := range rows {
		if len(p) != len(domain) {
			return nil, &MalformedModelError{Node: name,
				Reason: fmt.Sprintf("row %q has %d probabilities for %d values", key, len(p), len(domain))}
		}

		for _, x := range p {
			if x < 0 || math.IsNaN(x) {
				return nil, &MalformedModelError{Node: name,
					Reason: fmt.Sprintf("row %q has invalid probability %v", key, x)}
			}
		}

		if s := f64.Sum(p); math.Abs(s-1.0) > probTol {
			return nil, &MalformedModelError{Node: name,
				Reason: fmt.Sprintf("row %q sums to %v", key, s)}
		}

		m.rows[key] = append([]float64(nil), p...)
	}

	return m, nil
}

// NewRandomModel returns a parentless DiscreteModel with distribution p.
func NewRandomModel(name string, domain []int, p []float64) (*DiscreteModel, error) {
	return NewDiscreteModel(name, nil, domain, Rows{"": p})
}

func (m *DiscreteModel) Parents() []string { return append([]string(nil), m.parents...) }
func (m *DiscreteModel) Domain() []int     { return append([]int(nil), m.domain...) }

// Dist returns the distribution over the domain given parent values, in
// the order of Parents.
func (m *DiscreteModel) Dist(parentValues []int) ([]float64, bool) {
	p, ok := m.rows[RowKey(parentValues)]
	return p, ok
}

// Prob returns P(value | parentValues), or 0 if either is unknown.
func (m *DiscreteModel) Prob(value int, parentValues []int) float64 {
	p, ok := m.Dist(parentValues)
	if !ok {
		return 0
	}

	i := indexOf(m.domain, value)
	if i < 0 {
		return 0
	}

	return p[i]
}

// Sample draws a value given parent values. The row must exist; SCM
// validation guarantees that for every in-domain parent assignment.
func (m *DiscreteModel) Sample(rng *rand.Rand, parentValues []int) int {
	p, ok := m.Dist(parentValues)
	if !ok {
		panic(fmt.Errorf("no conditional row for parent values %v", parentValues))
	}

	return m.domain[sampling.Categorical(rng, p)]
}

// Randomize returns a copy of m with every row redrawn from a flat
// Dirichlet prior.
func (m *DiscreteModel) Randomize(rng *rand.Rand) *DiscreteModel {
	result := &DiscreteModel{
		parents: m.parents,
		domain:  m.domain,
		rows:    make(Rows, len(m.rows)),
	}

	for _, key := range m.rowKeys() {
		result.rows[key] = sampling.Dirichlet(rng, len(m.domain))
	}

	return result
}

// Entropy returns the mean Shannon entropy in bits of the rows of m.
func (m *DiscreteModel) Entropy() float64 {
	if len(m.rows) == 0 {
		return 0
	}

	var total float64
	for _, p := range m.rows {
		for _, x := range p {
			if x > 0 {
				total -= x * math.Log2(x)
			}
		}
	}

	return total / float64(len(m.rows))
}

// Rows returns a copy of the conditional table.
func (m *DiscreteModel) Rows() Rows {
	result := make(Rows, len(m.rows))
	for k, p := range m.rows {
		result[k] = append([]float64(nil), p...)
	}
	return result
}

func (m *DiscreteModel) rowKeys() []string {
	keys := make([]string, 0, len(m.rows))
	for k := range m.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *DiscreteModel) String() string {
	var rows []string
	for _, k := range m.rowKeys() {
		rows = append(rows, fmt.Sprintf("(%s): %v", k, m.rows[k]))
	}
	return fmt.Sprintf("DiscreteModel(parents=%v, domain=%v, rows=%v)", m.parents, m.domain, rows)
}

func indexOf(domain []int, value int) int {
	for i, v := range domain {
		if v == value {
			return i
		}
	}
	return -1
}

// IsAction reports whether m is an action placeholder.
func IsAction(m Model) bool {
	_, ok := m.(*ActionModel)
	return ok
}
