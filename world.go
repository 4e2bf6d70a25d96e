package bandit

import (
	"context"
	"math/rand/v2"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/abemo/causalquestioning/scm"
)

// TrialResult is the outcome of one trial.
type TrialResult struct {
	Trial    int
	Context  scm.Assignment
	Action   int
	Explored bool
	// Reward is the realized value of the reward variable.
	Reward float64
	// Regret is the optimal expected reward in Context minus the expected
	// reward of Action. It is never negative.
	Regret float64
	// RealizedRegret is the optimal expected reward minus Reward.
	RealizedRegret float64
	// Optimal reports whether Action is among the optimal actions.
	Optimal bool
}

// Series holds per-trial results of one run: cumulative regret and an
// optimal action indicator (0 or 1).
type Series struct {
	CPR []float64
	POA []float64
}

// Len returns the number of trials in s.
func (s Series) Len() int {
	return len(s.CPR)
}

type decider interface {
	Decide(context scm.Assignment) Decision
}

// World runs one agent in one environment.
type World struct {
	rng    *rand.Rand
	env    *Environment
	agent  Core
	trials int
}

// NewWorld returns a world that runs trials trials. rng drives the
// environment; the agent owns its own source.
func NewWorld(rng *rand.Rand, env *Environment, agent Core, trials int) *World {
	return &World{
		rng:    rng,
		env:    env,
		agent:  agent,
		trials: trials,
	}
}

// RunTrial samples a context, asks the agent for an action, samples the
// rest of the model under that action and shows the sample to the agent.
func (w *World) RunTrial(t int) (TrialResult, error) {
	pre, err := w.env.Pre().Sample(w.rng, nil)
	if err != nil {
		return TrialResult{}, errors.Wrap(err, "sampling context")
	}

	ctx := w.agent.Context(pre)
	var d Decision
	if dec, ok := w.agent.(decider); ok {
		d = dec.Decide(ctx)
	} else {
		d.Action = w.agent.Choose(ctx)
	}

	set := pre.Merge(scm.Assignment{w.env.ActionVar(): d.Action})
	sample, err := w.env.Post().Sample(w.rng, set)
	if err != nil {
		return TrialResult{}, errors.Wrapf(err, "sampling trial %d", t)
	}
	w.agent.Observe(sample)

	best, err := w.env.OptimalReward(ctx)
	if err != nil {
		return TrialResult{}, err
	}

	value, err := w.env.ActionValue(ctx, d.Action)
	if err != nil {
		return TrialResult{}, err
	}

	optimal, err := w.env.IsOptimal(ctx, d.Action)
	if err != nil {
		return TrialResult{}, err
	}

	reward := float64(sample[w.env.RewardVar()])
	regret := best - value
	if regret < 0 {
		regret = 0
	}

	return TrialResult{
		Trial:          t,
		Context:        ctx,
		Action:         d.Action,
		Explored:       d.Explored,
		Reward:         reward,
		Regret:         regret,
		RealizedRegret: best - reward,
		Optimal:        optimal,
	}, nil
}

// Run runs every trial in order. If ctx is cancelled, Run stops before
// the next trial and returns the trials completed so far with ctx.Err().
func (w *World) Run(ctx context.Context) (Series, error) {
	s := Series{
		CPR: make([]float64, 0, w.trials),
		POA: make([]float64, 0, w.trials),
	}

	var cumulative float64
	for t := 0; t < w.trials; t++ {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		result, err := w.RunTrial(t)
		if err != nil {
			return s, err
		}

		cumulative += result.Regret
		s.CPR = append(s.CPR, cumulative)
		if result.Optimal {
			s.POA = append(s.POA, 1)
		} else {
			s.POA = append(s.POA, 0)
		}

		if glog.V(2) {
			glog.Infof("Trial %d: context %v action=%d reward=%v regret=%.4f",
				t, result.Context, result.Action, result.Reward, result.Regret)
		}
	}

	return s, nil
}
