// Package scm implements structural causal models over discrete
// variables: a DAG plus one node model per variable, sampled in
// topological order, with copy-on-write interventions.
package scm

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/abemo/causalquestioning/graph"
)

// Variable is a named node and the model that generates it.
type Variable struct {
	Name  string
	Model Model
}

// SCM is an immutable structural causal model. Do, Given and Restrict
// return new models and never modify the receiver.
type SCM struct {
	vars   []Variable
	models map[string]Model
	graph  *graph.DAG
	order  []string
}

// New validates and builds an SCM. Variable order is kept and used to
// break ties when sampling.
func New(vars ...Variable) (*SCM, error) {
	nodes := make([]string, len(vars))
	models := make(map[string]Model, len(vars))
	var edges []graph.Edge
	for i, v := range vars {
		if v.Model == nil {
			return nil, &MalformedModelError{Node: v.Name, Reason: "nil model"}
		}

		nodes[i] = v.Name
		models[v.Name] = v.Model
		for _, p := range v.Model.Parents() {
			edges = append(edges, graph.Edge{From: p, To: v.Name})
		}
	}

	g, err := graph.New(nodes, edges)
	if err != nil {
		return nil, errors.Wrap(err, "building causal graph")
	}

	s := &SCM{
		vars:   append([]Variable(nil), vars...),
		models: models,
		graph:  g,
		order:  g.TopologicalOrder(),
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *SCM) validate() error {
	domains := s.Domains()
	for _, v := range s.vars {
		dom := v.Model.Domain()
		if len(dom) == 0 {
			return &MalformedModelError{Node: v.Name, Reason: "empty domain"}
		}

		seen := make(map[int]bool, len(dom))
		for _, x := range dom {
			if seen[x] {
				return &MalformedModelError{Node: v.Name, Reason: fmt.Sprintf("duplicate domain value %d", x)}
			}
			seen[x] = true
		}

		dm, ok := v.Model.(*DiscreteModel)
		if !ok {
			continue
		}

		parents := dm.Parents()
		combos := Enumerate(parents, domains)
		for _, row := range combos {
			values, _ := row.Values(parents)
			if _, ok := dm.Dist(values); !ok {
				return &MalformedModelError{Node: v.Name,
					Reason: fmt.Sprintf("no row for parent values %s", row)}
			}
		}

		if len(dm.rows) != len(combos) {
			return &MalformedModelError{Node: v.Name,
				Reason: fmt.Sprintf("table has %d rows but parents %v admit %d",
					len(dm.rows), parents, len(combos))}
		}
	}

	return nil
}

// Sample draws one joint assignment. Nodes are visited in topological
// order; action nodes take their value from set, and stochastic nodes
// draw from their table given the already sampled parents.
func (s *SCM) Sample(rng *rand.Rand, set Assignment) (Assignment, error) {
	result := make(Assignment, len(s.order))
	for _, node := range s.order {
		switch m := s.models[node].(type) {
		case *ActionModel:
			v, ok := set[node]
			if !ok {
				return nil, &MissingInterventionError{Node: node}
			}

			if indexOf(m.domain, v) < 0 {
				return nil, &InvalidValueError{Node: node, Value: v}
			}

			result[node] = v
		case *DiscreteModel:
			parentValues, ok := result.Values(m.parents)
			if !ok {
				panic(fmt.Errorf("sampling %q before its parents %v", node, m.parents))
			}

			result[node] = m.Sample(rng, parentValues)
		default:
			panic(fmt.Errorf("unsupported model type %T for %q", m, node))
		}
	}

	return result, nil
}

// Do returns the model after the intervention do(node): node becomes an
// action placeholder with no parents.
func (s *SCM) Do(node string) (*SCM, error) {
	m, ok := s.models[node]
	if !ok {
		return nil, &graph.UnknownNodeError{Node: node}
	}

	return s.replace(map[string]Model{node: NewActionModel(nil, m.Domain())})
}

// Given returns a model in which each listed node is an action
// placeholder that keeps its parents. It is used for models whose
// upstream variables have already been sampled.
func (s *SCM) Given(nodes ...string) (*SCM, error) {
	replacements := make(map[string]Model, len(nodes))
	for _, n := range nodes {
		m, ok := s.models[n]
		if !ok {
			return nil, &graph.UnknownNodeError{Node: n}
		}
		replacements[n] = NewActionModel(m.Parents(), m.Domain())
	}

	return s.replace(replacements)
}

func (s *SCM) replace(replacements map[string]Model) (*SCM, error) {
	vars := make([]Variable, len(s.vars))
	for i, v := range s.vars {
		if m, ok := replacements[v.Name]; ok {
			v.Model = m
		}
		vars[i] = v
	}

	return New(vars...)
}

// Restrict returns the sub-model over nodes. Every parent of a kept node
// must also be kept.
func (s *SCM) Restrict(nodes graph.Set) (*SCM, error) {
	var vars []Variable
	for _, v := range s.vars {
		if !nodes.Contains(v.Name) {
			continue
		}

		for _, p := range v.Model.Parents() {
			if !nodes.Contains(p) {
				return nil, &MalformedModelError{Node: v.Name,
					Reason: fmt.Sprintf("parent %q is not part of the restriction", p)}
			}
		}
		vars = append(vars, v)
	}

	for n := range nodes {
		if _, ok := s.models[n]; !ok {
			return nil, &graph.UnknownNodeError{Node: n}
		}
	}

	return New(vars...)
}

// Graph returns the causal graph of s.
func (s *SCM) Graph() *graph.DAG {
	return s.graph
}

// Variables returns the variables in declaration order.
func (s *SCM) Variables() []Variable {
	return append([]Variable(nil), s.vars...)
}

// Names returns the variable names in declaration order.
func (s *SCM) Names() []string {
	return s.graph.Nodes()
}

// Model returns the model of node.
func (s *SCM) Model(node string) (Model, bool) {
	m, ok := s.models[node]
	return m, ok
}

// Domain returns the domain of node, or nil if it is unknown.
func (s *SCM) Domain(node string) []int {
	m, ok := s.models[node]
	if !ok {
		return nil
	}
	return m.Domain()
}

// Domains returns the domain of every variable.
func (s *SCM) Domains() map[string][]int {
	result := make(map[string][]int, len(s.models))
	for n, m := range s.models {
		result[n] = m.Domain()
	}
	return result
}

// ActionNodes returns the names of action placeholders in declaration
// order.
func (s *SCM) ActionNodes() []string {
	var result []string
	for _, v := range s.vars {
		if IsAction(v.Model) {
			result = append(result, v.Name)
		}
	}
	return result
}

func (s *SCM) String() string {
	names := s.Names()
	sort.Strings(names)
	return fmt.Sprintf("SCM(%s)", strings.Join(names, ", "))
}
