package bandit

import (
	"math/rand/v2"

	"github.com/golang/glog"

	"github.com/abemo/causalquestioning/cpt"
	"github.com/abemo/causalquestioning/internal/f64"
	"github.com/abemo/causalquestioning/sampling"
	"github.com/abemo/causalquestioning/scm"
)

// Decision is one action choice and whether it was made by the random
// exploration branch.
type Decision struct {
	Action   int
	Explored bool
}

// Agent chooses actions in an Environment under a fixed action selection
// rule and learns from the samples it observes. An Agent is not safe for
// concurrent use; each goroutine must own its own.
type Agent struct {
	rng    *rand.Rand
	env    *Environment
	params Params

	query   *RewardQuery
	rewards *cpt.Table
	belief  *cpt.Belief
	actions []int

	// Map of context key -> exploration state. The key is "" when the
	// action has no parents.
	epsilon   map[string]float64
	remaining map[string]int

	recent scm.Assignment
}

// NewAgent returns an agent with uninformed beliefs. It fails with a
// ConfigError if params are invalid for env.
func NewAgent(rng *rand.Rand, env *Environment, params Params) (*Agent, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	actions := env.Actions()
	if len(actions) == 0 {
		return nil, configErrorf("action variable %q has an empty domain", env.ActionVar())
	}

	rewardDomain := env.Model().Domain(env.RewardVar())
	if params.ASR == ThompsonSampling && !isBinary(rewardDomain) {
		return nil, configErrorf("%v requires a binary reward domain, got %v", params.ASR, rewardDomain)
	}

	query, err := NewRewardQuery(env.Model().Graph(), env.ActionVar(), env.RewardVar(), rewardDomain)
	if err != nil {
		return nil, err
	}

	return &Agent{
		rng:       rng,
		env:       env,
		params:    params,
		query:     query,
		rewards:   query.Table(),
		belief:    cpt.NewBelief(env.Model()),
		actions:   actions,
		epsilon:   make(map[string]float64),
		remaining: make(map[string]int),
	}, nil
}

func isBinary(domain []int) bool {
	if len(domain) != 2 {
		return false
	}
	return (domain[0] == 0 && domain[1] == 1) || (domain[0] == 1 && domain[1] == 0)
}

func (a *Agent) key(context scm.Assignment) string {
	return context.Project(a.env.featVars).Key()
}

// Choose returns the action to play in context.
func (a *Agent) Choose(context scm.Assignment) int {
	return a.Decide(context).Action
}

// Decide applies the action selection rule to context and updates the
// rule's per-context state.
func (a *Agent) Decide(context scm.Assignment) Decision {
	var d Decision
	switch a.params.ASR {
	case EpsilonGreedy:
		d.Explored = a.rng.Float64() < a.params.Epsilon
	case EpsilonFirst:
		k := a.key(context)
		n := a.RandomTrialsRemaining(context)
		if n > 0 {
			a.remaining[k] = n - 1
			d.Explored = true
		}
	case EpsilonDecreasing:
		k := a.key(context)
		eps := a.Epsilon(context)
		d.Explored = a.rng.Float64() < eps
		a.epsilon[k] = eps * a.params.CoolingRate
	case ThompsonSampling:
		d.Action = a.thompson(context)
		glog.V(2).Infof("%v: context %v -> %d", a.params.ASR, context, d.Action)
		return d
	default:
		panic(configErrorf("unsupported action selection rule %v", a.params.ASR))
	}

	if d.Explored {
		d.Action = a.chooseRandom()
	} else {
		d.Action = a.chooseOptimal(context)
	}

	glog.V(2).Infof("%v: context %v -> %d (explored=%t)", a.params.ASR, context, d.Action, d.Explored)
	return d
}

func (a *Agent) chooseRandom() int {
	return a.actions[sampling.Choice(a.rng, len(a.actions))]
}

func (a *Agent) chooseOptimal(context scm.Assignment) int {
	values := make([]float64, len(a.actions))
	for i, act := range a.actions {
		values[i] = a.ExpectedReward(context, act)
	}

	return a.pick(values)
}

// thompson draws from a Beta posterior over P(reward = 1) for each action
// and returns the action with the highest draw.
func (a *Agent) thompson(context scm.Assignment) int {
	draws := make([]float64, len(a.actions))
	for i, act := range a.actions {
		givens := context.Merge(scm.Assignment{a.env.actVar: act})
		successes := a.rewards.Count(1, givens)
		failures := a.rewards.Count(0, givens)
		draws[i] = sampling.Beta(a.rng, successes+1, failures+1)
	}

	return a.pick(draws)
}

// pick returns the action with the largest value, ties broken uniformly
// at random.
func (a *Agent) pick(values []float64) int {
	best := f64.ArgMax(values)
	if len(best) == 1 {
		return a.actions[best[0]]
	}
	return a.actions[best[sampling.Choice(a.rng, len(best))]]
}

// ExpectedReward returns the agent's current estimate of the reward of
// playing action in context.
func (a *Agent) ExpectedReward(context scm.Assignment, action int) float64 {
	givens := context.Merge(scm.Assignment{a.env.actVar: action})
	return a.query.ExpectedReward(givens, a.rewards)
}

// Observe records sample in every table the agent maintains.
func (a *Agent) Observe(sample scm.Assignment) {
	a.belief.Observe(sample)
	a.rewards.Add(sample)
	a.recent = sample.Clone()
}

// Recent returns the last observed sample, or nil.
func (a *Agent) Recent() scm.Assignment {
	if a.recent == nil {
		return nil
	}
	return a.recent.Clone()
}

// Context returns the entries of sample the agent conditions on.
func (a *Agent) Context(sample scm.Assignment) scm.Assignment {
	return sample.Project(a.env.featVars)
}

// Epsilon returns the exploration probability the next decision in
// context will use.
func (a *Agent) Epsilon(context scm.Assignment) float64 {
	if eps, ok := a.epsilon[a.key(context)]; ok {
		return eps
	}
	return a.params.initialEpsilon()
}

// RandomTrialsRemaining returns how many random decisions are left in
// context under EpsilonFirst, and zero for every other rule.
func (a *Agent) RandomTrialsRemaining(context scm.Assignment) int {
	if a.params.ASR != EpsilonFirst {
		return 0
	}
	if n, ok := a.remaining[a.key(context)]; ok {
		return n
	}
	return a.params.RandTrials
}

// Belief returns a copy of the tables learned so far.
func (a *Agent) Belief() *cpt.Belief {
	return a.belief.Clone()
}

// Params returns the agent's configuration.
func (a *Agent) Params() Params {
	return a.params
}
