package cpt

import (
	"github.com/abemo/causalquestioning/scm"
)

// Belief is one agent's collection of estimated tables, one per
// variable of its causal model. A Belief must not be shared between
// agents.
type Belief struct {
	names  []string
	tables map[string]*Table
}

// NewBelief returns empty tables shaped after the variables of model.
// Every variable gets a table conditioned on its parents in model,
// including action variables.
func NewBelief(model *scm.SCM) *Belief {
	b := &Belief{tables: make(map[string]*Table)}
	for _, v := range model.Variables() {
		b.put(NewTable(v.Name, v.Model.Parents(), v.Model.Domain()))
	}
	return b
}

func (b *Belief) put(t *Table) {
	if _, ok := b.tables[t.variable]; !ok {
		b.names = append(b.names, t.variable)
	}
	b.tables[t.variable] = t
}

// Observe adds sample to every table and returns the updated row
// estimate of each table that accepted it.
func (b *Belief) Observe(sample scm.Assignment) map[string][]float64 {
	result := make(map[string][]float64, len(b.names))
	for _, n := range b.names {
		if p := b.tables[n].Add(sample); p != nil {
			result[n] = p
		}
	}
	return result
}

// Table returns the table of variable, or nil.
func (b *Belief) Table(variable string) *Table {
	return b.tables[variable]
}

// Names returns the variables tracked, in model order.
func (b *Belief) Names() []string {
	return append([]string(nil), b.names...)
}

// Clone returns an independent copy of b.
func (b *Belief) Clone() *Belief {
	c := &Belief{tables: make(map[string]*Table, len(b.tables))}
	for _, n := range b.names {
		c.put(b.tables[n].Clone())
	}
	return c
}
