// Package models provides small causal bandit problems used in examples,
// tests and the command line tool.
package models

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/abemo/causalquestioning/scm"
)

var binary = []int{0, 1}

// Model is a named set of variable definitions with a reward variable.
type Model struct {
	Name        string
	Description string
	Reward      string
	Variables   func() []scm.Variable
}

var registry = map[string]Model{
	"baseline": {
		Name:        "baseline",
		Description: "Z -> X, Z -> Y, X -> W -> Y; X is the action",
		Reward:      "Y",
		Variables:   Baseline,
	},
	"reversed-w": {
		Name:        "reversed-w",
		Description: "baseline with the effect of X on W reversed",
		Reward:      "Y",
		Variables:   ReversedW,
	},
	"chain": {
		Name:        "chain",
		Description: "X -> S -> R -> Y; X is the action",
		Reward:      "Y",
		Variables:   Chain,
	},
	"two-node": {
		Name:        "two-node",
		Description: "W -> Y; W is the action",
		Reward:      "Y",
		Variables:   TwoNode,
	},
}

// Lookup returns the built-in model called name.
func Lookup(name string) (Model, error) {
	m, ok := registry[name]
	if !ok {
		return Model{}, errors.Errorf("unknown model %q", name)
	}
	return m, nil
}

// All returns every built-in model sorted by name.
func All() []Model {
	result := make([]Model, 0, len(registry))
	for _, m := range registry {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func mustDiscrete(name string, parents []string, rows scm.Rows) *scm.DiscreteModel {
	m, err := scm.NewDiscreteModel(name, parents, binary, rows)
	if err != nil {
		panic(err)
	}
	return m
}

func flip(name string, p float64) *scm.DiscreteModel {
	return mustDiscrete(name, nil, scm.Rows{"": {1 - p, p}})
}

// Baseline has a fair coin Z that confounds the action X and the reward
// Y, with X acting on Y only through W. X=1 is optimal in both contexts.
func Baseline() []scm.Variable {
	return []scm.Variable{
		{Name: "Z", Model: flip("Z", 0.5)},
		{Name: "X", Model: scm.NewActionModel([]string{"Z"}, binary)},
		{Name: "W", Model: mustDiscrete("W", []string{"X"}, scm.Rows{
			"0": {0.75, 0.25},
			"1": {0.25, 0.75},
		})},
		{Name: "Y", Model: mustDiscrete("Y", []string{"Z", "W"}, scm.Rows{
			"0,0": {0.8, 0.2},
			"0,1": {0.5, 0.5},
			"1,0": {0.5, 0.5},
			"1,1": {0.2, 0.8},
		})},
	}
}

// ReversedW is Baseline with W's table flipped, so X=0 is optimal.
func ReversedW() []scm.Variable {
	vars := Baseline()
	vars[2].Model = mustDiscrete("W", []string{"X"}, scm.Rows{
		"0": {0.25, 0.75},
		"1": {0.75, 0.25},
	})
	return vars
}

// Chain is a four node chain from the action X to the reward Y.
func Chain() []scm.Variable {
	step := func(name, parent string) *scm.DiscreteModel {
		return mustDiscrete(name, []string{parent}, scm.Rows{
			"0": {0.75, 0.25},
			"1": {0.25, 0.75},
		})
	}

	return []scm.Variable{
		{Name: "X", Model: scm.NewActionModel(nil, binary)},
		{Name: "S", Model: step("S", "X")},
		{Name: "R", Model: step("R", "S")},
		{Name: "Y", Model: step("Y", "R")},
	}
}

// TwoNode is the smallest problem: P(Y=1 | W=0) = 0.2 and
// P(Y=1 | W=1) = 0.8.
func TwoNode() []scm.Variable {
	return []scm.Variable{
		{Name: "W", Model: scm.NewActionModel(nil, binary)},
		{Name: "Y", Model: mustDiscrete("Y", []string{"W"}, scm.Rows{
			"0": {0.8, 0.2},
			"1": {0.2, 0.8},
		})},
	}
}
