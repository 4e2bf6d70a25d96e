// Package montecarlo runs independent repetitions of a bandit experiment
// concurrently and aggregates their results.
package montecarlo

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/abemo/causalquestioning"
	"github.com/abemo/causalquestioning/cpt"
	"github.com/abemo/causalquestioning/sampling"
)

// Streams of the per-repetition random source.
const (
	agentStream uint64 = iota
	worldStream
	environmentStream
	mutationStream
)

// Sink receives the series of every finished repetition.
type Sink interface {
	Append(label string, rep int, s bandit.Series) error
}

// BeliefSink receives the tables an agent learned during one repetition.
type BeliefSink interface {
	AppendBelief(label string, rep int, b *cpt.Belief) error
}

type learner interface {
	Belief() *cpt.Belief
}

// Runner runs Repetitions independent agents for Trials trials each. The
// zero value of every optional field is usable.
type Runner struct {
	// Maximum number of repetitions run at once. Defaults to GOMAXPROCS.
	Workers     int
	Repetitions int
	Trials      int
	// Repetition i draws from a source seeded with Seed+i.
	Seed uint64
	OTP  bandit.OTP

	// If set, every repetition runs in its own mutated copy of the
	// environment.
	RandomizeEnvironments bool
	// Probability that each stochastic variable is redrawn when
	// RandomizeEnvironments is set. Zero redraws every variable.
	MutationChance float64
	// If greater than MutationChance, each Run draws its mutation chance
	// uniformly from [MutationChance, MutationChanceMax].
	MutationChanceMax float64

	Sink Sink
	// If set, receives the final tables of every agent that learns them.
	Beliefs BeliefSink
	Metrics *Metrics

	sinkMu sync.Mutex
}

// Result holds every repetition of one parameter setting.
type Result struct {
	Label  string
	Params bandit.Params
	Runs   []bandit.Series
}

// Summary returns per-trial statistics over the repetitions of r.
func (r *Result) Summary() (Summary, error) {
	return Summarize(r.Runs)
}

func (r *Runner) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (r *Runner) validate() error {
	if r.Repetitions <= 0 {
		return &bandit.ConfigError{Reason: "at least one repetition is required"}
	}
	if r.Trials <= 0 {
		return &bandit.ConfigError{Reason: "at least one trial is required"}
	}
	if r.MutationChance < 0 || r.MutationChance > 1 {
		return &bandit.ConfigError{Reason: "mutation chance must be a probability"}
	}
	if r.MutationChanceMax < 0 || r.MutationChanceMax > 1 {
		return &bandit.ConfigError{Reason: "maximum mutation chance must be a probability"}
	}
	if r.MutationChanceMax != 0 && r.MutationChanceMax < r.MutationChance {
		return &bandit.ConfigError{Reason: "maximum mutation chance is below the minimum"}
	}
	return nil
}

// mutationChance returns the chance used by every repetition of one Run.
// The draw depends only on Seed, so a Sweep uses the same chance for
// every parameter setting.
func (r *Runner) mutationChance() float64 {
	if r.MutationChanceMax > r.MutationChance {
		rng := sampling.NewRand(r.Seed, mutationStream)
		return r.MutationChance + rng.Float64()*(r.MutationChanceMax-r.MutationChance)
	}
	if r.MutationChance == 0 {
		return 1
	}
	return r.MutationChance
}

// Run runs every repetition of params in env. If ctx is cancelled no
// further repetitions are started and ctx.Err() is returned once the
// running ones stop.
func (r *Runner) Run(ctx context.Context, env *bandit.Environment, params bandit.Params) (*Result, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Label:  params.String(),
		Params: params,
		Runs:   make([]bandit.Series, r.Repetitions),
	}

	chance := r.mutationChance()
	if r.RandomizeEnvironments {
		glog.V(1).Infof("Mutating each variable of %s with chance %.3f", result.Label, chance)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i := 0; i < r.Repetitions; i++ {
		if gCtx.Err() != nil {
			break
		}

		i := i
		g.Go(func() error {
			s, agent, err := r.runOne(gCtx, env, params, chance, i)
			if err != nil {
				return errors.Wrapf(err, "%s repetition %d", result.Label, i)
			}

			result.Runs[i] = s
			return r.record(result.Label, i, s, agent)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	glog.V(1).Infof("Finished %d repetitions of %s", r.Repetitions, result.Label)
	return result, nil
}

func (r *Runner) runOne(ctx context.Context, env *bandit.Environment, params bandit.Params, chance float64, i int) (bandit.Series, bandit.Core, error) {
	start := time.Now()
	seed := r.Seed + uint64(i)

	if r.RandomizeEnvironments {
		var err error
		env, err = env.Mutate(sampling.NewRand(seed, environmentStream), chance)
		if err != nil {
			return bandit.Series{}, nil, err
		}
	}

	agent, err := bandit.NewCore(r.OTP, sampling.NewRand(seed, agentStream), env, params)
	if err != nil {
		return bandit.Series{}, nil, err
	}

	world := bandit.NewWorld(sampling.NewRand(seed, worldStream), env, agent, r.Trials)
	s, err := world.Run(ctx)
	if err != nil {
		return bandit.Series{}, nil, err
	}

	if r.Metrics != nil {
		r.Metrics.observe(params.String(), s, time.Since(start))
	}

	glog.V(2).Infof("Repetition %d of %s: cumulative regret %.4f", i, params, s.CPR[len(s.CPR)-1])
	return s, agent, nil
}

func (r *Runner) record(label string, i int, s bandit.Series, agent bandit.Core) error {
	r.sinkMu.Lock()
	defer r.sinkMu.Unlock()

	if r.Sink != nil {
		if err := r.Sink.Append(label, i, s); err != nil {
			return err
		}
	}

	if l, ok := agent.(learner); ok && r.Beliefs != nil {
		return r.Beliefs.AppendBelief(label, i, l.Belief())
	}

	return nil
}

// Sweep runs every parameter setting in turn, sharing the seeds, so
// repetition i of each setting sees the same environment draws.
func (r *Runner) Sweep(ctx context.Context, env *bandit.Environment, params []bandit.Params) ([]*Result, error) {
	results := make([]*Result, 0, len(params))
	for _, p := range params {
		result, err := r.Run(ctx, env, p)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}
