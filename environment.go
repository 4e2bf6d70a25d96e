package bandit

import (
	"math/rand/v2"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/abemo/causalquestioning/graph"
	"github.com/abemo/causalquestioning/internal/f64"
	"github.com/abemo/causalquestioning/scm"
)

// Environment is the ground truth an agent acts in. It is immutable after
// construction and safe to share between goroutines.
type Environment struct {
	vars   []scm.Variable
	model  *scm.SCM
	pre    *scm.SCM
	post   *scm.SCM
	actVar string
	rewVar string

	// Parents of the action variable, sorted.
	featVars []string
	actions  []int
	contexts []scm.Assignment

	// Map of context key -> expected reward of each action, in the order
	// of actions.
	values         map[string][]float64
	optimalReward  map[string]float64
	optimalActions map[string][]int
}

// NewEnvironment builds an environment from variable definitions. Exactly
// one variable must have an *scm.ActionModel.
func NewEnvironment(vars []scm.Variable, rewardVar string) (*Environment, error) {
	model, err := scm.New(vars...)
	if err != nil {
		return nil, errors.Wrap(err, "building environment model")
	}

	actionNodes := model.ActionNodes()
	switch {
	case len(actionNodes) == 0:
		return nil, &MissingActionVariableError{}
	case len(actionNodes) > 1:
		return nil, &MultipleActionVariablesError{Nodes: actionNodes}
	}
	actVar := actionNodes[0]

	rm, ok := model.Model(rewardVar)
	if !ok {
		return nil, &graph.UnknownNodeError{Node: rewardVar}
	}
	if scm.IsAction(rm) {
		return nil, configErrorf("reward variable %q cannot be the action", rewardVar)
	}

	preNodes, err := model.Graph().Ancestors(actVar)
	if err != nil {
		return nil, err
	}

	pre, err := model.Restrict(preNodes)
	if err != nil {
		return nil, errors.Wrap(err, "building pre-action model")
	}

	post, err := model.Given(append(preNodes.Sorted(), actVar)...)
	if err != nil {
		return nil, errors.Wrap(err, "building post-action model")
	}

	featVars, err := model.Graph().Parents(actVar)
	if err != nil {
		return nil, err
	}
	featVars = graph.NewSet(featVars...).Sorted()

	env := &Environment{
		vars:           model.Variables(),
		model:          model,
		pre:            pre,
		post:           post,
		actVar:         actVar,
		rewVar:         rewardVar,
		featVars:       featVars,
		actions:        model.Domain(actVar),
		contexts:       scm.Enumerate(featVars, model.Domains()),
		values:         make(map[string][]float64),
		optimalReward:  make(map[string]float64),
		optimalActions: make(map[string][]int),
	}

	if err := env.assignOptimalActions(); err != nil {
		return nil, err
	}

	if glog.V(1) {
		for _, v := range env.vars {
			if dm, ok := v.Model.(*scm.DiscreteModel); ok {
				glog.Infof("%s: mean row entropy %.4f bits", v.Name, dm.Entropy())
			}
		}
		glog.Infof("Built environment %v: action=%s reward=%s contexts=%d",
			model, actVar, rewardVar, len(env.contexts))
	}

	return env, nil
}

func (e *Environment) assignOptimalActions() error {
	for _, ctx := range e.contexts {
		values := make([]float64, len(e.actions))
		for i, a := range e.actions {
			v, err := e.ExpectedReward(ctx.Merge(scm.Assignment{e.actVar: a}))
			if err != nil {
				return err
			}
			values[i] = v
		}

		best := f64.ArgMax(values)
		actions := make([]int, len(best))
		for i, j := range best {
			actions[i] = e.actions[j]
		}

		key := ctx.Key()
		e.values[key] = values
		e.optimalReward[key] = values[best[0]]
		e.optimalActions[key] = actions
	}

	return nil
}

// ExpectedReward computes E[reward | do(action), context] exactly by
// enumerating every assignment of the variables relevant to the reward
// that agrees with givens. givens must assign the action variable.
func (e *Environment) ExpectedReward(givens scm.Assignment) (float64, error) {
	if _, ok := givens[e.actVar]; !ok {
		return 0, &scm.MissingInterventionError{Node: e.actVar}
	}

	g := e.model.Graph()
	relevant := graph.NewSet(e.rewVar)
	for n := range givens {
		if !g.Has(n) {
			return 0, &graph.UnknownNodeError{Node: n}
		}
		relevant.Add(n)
	}
	for n := range relevant {
		anc, _ := g.Ancestors(n)
		for a := range anc {
			relevant.Add(a)
		}
	}

	var free []string
	for _, n := range g.TopologicalOrder() {
		if _, given := givens[n]; relevant.Contains(n) && !given {
			free = append(free, n)
		}
	}

	domains := e.model.Domains()
	rewards := domains[e.rewVar]
	mass := make([]float64, len(rewards))
	var total float64
	for _, partial := range scm.Enumerate(free, domains) {
		full := partial.Merge(givens)
		w := e.weight(full, relevant)
		if w == 0 {
			continue
		}

		total += w
		for i, r := range rewards {
			if full[e.rewVar] == r {
				mass[i] += w
			}
		}
	}

	if total == 0 {
		glog.Warningf("Context %v has probability zero", givens)
		return 0, nil
	}

	values := make([]float64, len(rewards))
	for i, r := range rewards {
		values[i] = float64(r)
	}

	return f64.Dot(values, mass) / total, nil
}

// weight is the product of the true conditional probabilities of the
// stochastic nodes in nodes under the mutilated model where the action
// is set externally.
func (e *Environment) weight(a scm.Assignment, nodes graph.Set) float64 {
	w := 1.0
	for n := range nodes {
		m, _ := e.model.Model(n)
		dm, ok := m.(*scm.DiscreteModel)
		if !ok {
			continue
		}

		parentValues, _ := a.Values(dm.Parents())
		w *= dm.Prob(a[n], parentValues)
		if w == 0 {
			return 0
		}
	}
	return w
}

// contextKey projects ctx onto the feature variables.
func (e *Environment) contextKey(ctx scm.Assignment) (string, error) {
	proj := ctx.Project(e.featVars)
	if len(proj) != len(e.featVars) {
		return "", &UnknownContextError{Context: ctx.Key()}
	}
	return proj.Key(), nil
}

// OptimalReward returns the expected reward of the best action in ctx.
// Entries of ctx other than the feature variables are ignored.
func (e *Environment) OptimalReward(ctx scm.Assignment) (float64, error) {
	key, err := e.contextKey(ctx)
	if err != nil {
		return 0, err
	}

	r, ok := e.optimalReward[key]
	if !ok {
		return 0, &UnknownContextError{Context: key}
	}
	return r, nil
}

// OptimalActions returns every action whose expected reward in ctx is
// maximal.
func (e *Environment) OptimalActions(ctx scm.Assignment) ([]int, error) {
	key, err := e.contextKey(ctx)
	if err != nil {
		return nil, err
	}

	a, ok := e.optimalActions[key]
	if !ok {
		return nil, &UnknownContextError{Context: key}
	}
	return append([]int(nil), a...), nil
}

// ActionValue returns the true expected reward of playing action in ctx.
func (e *Environment) ActionValue(ctx scm.Assignment, action int) (float64, error) {
	key, err := e.contextKey(ctx)
	if err != nil {
		return 0, err
	}

	values, ok := e.values[key]
	if !ok {
		return 0, &UnknownContextError{Context: key}
	}

	for i, a := range e.actions {
		if a == action {
			return values[i], nil
		}
	}
	return 0, &scm.InvalidValueError{Node: e.actVar, Value: action}
}

// IsOptimal reports whether action is among the optimal actions in ctx.
func (e *Environment) IsOptimal(ctx scm.Assignment, action int) (bool, error) {
	best, err := e.OptimalActions(ctx)
	if err != nil {
		return false, err
	}

	for _, a := range best {
		if a == action {
			return true, nil
		}
	}
	return false, nil
}

// Mutate returns a new environment in which every stochastic variable
// other than the reward structure's action has, with probability chance,
// its conditional table redrawn at random.
func (e *Environment) Mutate(rng *rand.Rand, chance float64) (*Environment, error) {
	vars := make([]scm.Variable, len(e.vars))
	for i, v := range e.vars {
		if dm, ok := v.Model.(*scm.DiscreteModel); ok && rng.Float64() < chance {
			v.Model = dm.Randomize(rng)
		}
		vars[i] = v
	}

	return NewEnvironment(vars, e.rewVar)
}

// Randomize returns a new environment with every conditional table
// redrawn at random.
func (e *Environment) Randomize(rng *rand.Rand) (*Environment, error) {
	return e.Mutate(rng, 1)
}

func (e *Environment) Model() *scm.SCM           { return e.model }
func (e *Environment) Pre() *scm.SCM             { return e.pre }
func (e *Environment) Post() *scm.SCM            { return e.post }
func (e *Environment) ActionVar() string         { return e.actVar }
func (e *Environment) RewardVar() string         { return e.rewVar }
func (e *Environment) FeatureVars() []string     { return append([]string(nil), e.featVars...) }
func (e *Environment) Actions() []int            { return append([]int(nil), e.actions...) }
func (e *Environment) HasContext() bool          { return len(e.featVars) > 0 }
func (e *Environment) Variables() []scm.Variable { return append([]scm.Variable(nil), e.vars...) }

// Contexts returns every assignment of the feature variables.
func (e *Environment) Contexts() []scm.Assignment {
	result := make([]scm.Assignment, len(e.contexts))
	for i, c := range e.contexts {
		result[i] = c.Clone()
	}
	return result
}

func (e *Environment) String() string {
	return "Environment" + e.model.String()[len("SCM"):]
}
