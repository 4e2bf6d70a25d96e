// Package config loads experiment descriptions from YAML files.
//
// An experiment names either a built-in model or a list of variables, the
// agents to compare, and how many repetitions of how many trials to run:
//
//	model: baseline
//	agents:
//	  - asr: EG
//	    epsilon: 0.033
//	  - asr: EF
//	    rand_trials: 50
//	  - asr: ED
//	    cooling_rate: 0.98
//	trials: 3000
//	repetitions: 8
//	seed: 420
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/abemo/causalquestioning"
	"github.com/abemo/causalquestioning/models"
	"github.com/abemo/causalquestioning/montecarlo"
	"github.com/abemo/causalquestioning/scm"
)

const (
	DefaultTrials      = 1000
	DefaultRepetitions = 10

	EnvSeed    = "CAUSALSIM_SEED"
	EnvWorkers = "CAUSALSIM_WORKERS"
)

var validate = validator.New()

// Experiment is the top level of an experiment file.
type Experiment struct {
	Model     string     `yaml:"model" validate:"required_without=Variables"`
	Variables []Variable `yaml:"variables" validate:"required_without=Model,dive"`
	Reward    string     `yaml:"reward" validate:"required_with=Variables"`
	Agents    []Agent    `yaml:"agents" validate:"required,min=1,dive"`
	OTP       string     `yaml:"otp" validate:"omitempty,oneof=solo"`

	Trials      int    `yaml:"trials" validate:"gt=0"`
	Repetitions int    `yaml:"repetitions" validate:"gt=0"`
	Seed        uint64 `yaml:"seed"`
	Workers     int    `yaml:"workers" validate:"gte=0"`

	RandomizeEnvironments bool    `yaml:"randomize_environments"`
	MutationChance        float64 `yaml:"mutation_chance" validate:"gte=0,lte=1"`
	// If set, each agent's repetitions draw a mutation chance uniformly
	// between MutationChance and MutationChanceMax.
	MutationChanceMax float64 `yaml:"mutation_chance_max" validate:"gte=0,lte=1"`
}

// Variable describes one node of a custom model. Rows map comma joined
// parent values, in the order of Parents, to a distribution over Domain.
type Variable struct {
	Name    string               `yaml:"name" validate:"required"`
	Type    string               `yaml:"type" validate:"required,oneof=action discrete"`
	Domain  []int                `yaml:"domain" validate:"required,min=1,unique"`
	Parents []string             `yaml:"parents" validate:"unique"`
	Rows    map[string][]float64 `yaml:"rows" validate:"required_if=Type discrete"`
}

// Agent is one action selection rule and its parameters.
type Agent struct {
	ASR         string  `yaml:"asr" validate:"required"`
	Epsilon     float64 `yaml:"epsilon" validate:"gte=0,lte=1"`
	RandTrials  int     `yaml:"rand_trials" validate:"gte=0"`
	CoolingRate float64 `yaml:"cooling_rate" validate:"gte=0,lte=1"`
}

// Load reads and validates the experiment file at path.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	e, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return e, nil
}

// Parse decodes and validates an experiment. Unknown keys are rejected.
func Parse(data []byte) (*Experiment, error) {
	e := &Experiment{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(e); err != nil {
		return nil, errors.Wrap(err, "decoding experiment")
	}

	e.setDefaults()
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Experiment) setDefaults() {
	if e.Trials == 0 {
		e.Trials = DefaultTrials
	}
	if e.Repetitions == 0 {
		e.Repetitions = DefaultRepetitions
	}
	if e.Model != "" && e.Reward == "" {
		if m, err := models.Lookup(e.Model); err == nil {
			e.Reward = m.Reward
		}
	}
}

// Validate checks field constraints, then that every agent and the model
// can be built.
func (e *Experiment) Validate() error {
	if err := validate.Struct(e); err != nil {
		return &bandit.ConfigError{Reason: err.Error()}
	}

	if e.Model != "" && len(e.Variables) > 0 {
		return &bandit.ConfigError{Reason: "model and variables are mutually exclusive"}
	}

	if e.MutationChanceMax != 0 && e.MutationChanceMax < e.MutationChance {
		return &bandit.ConfigError{Reason: "mutation_chance_max is below mutation_chance"}
	}

	if _, err := bandit.ParseOTP(e.OTP); err != nil {
		return err
	}

	if _, err := e.Params(); err != nil {
		return err
	}

	_, err := e.Environment()
	return err
}

// ApplyEnv overrides the seed and worker count from the environment.
func (e *Experiment) ApplyEnv() error {
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", EnvSeed)
		}
		e.Seed = seed
	}

	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return errors.Errorf("invalid %s=%q", EnvWorkers, v)
		}
		e.Workers = n
	}

	return nil
}

// Params returns the agent configurations in file order.
func (e *Experiment) Params() ([]bandit.Params, error) {
	result := make([]bandit.Params, len(e.Agents))
	for i, a := range e.Agents {
		asr, err := bandit.ParseASR(a.ASR)
		if err != nil {
			return nil, err
		}

		p := bandit.Params{
			ASR:         asr,
			Epsilon:     a.Epsilon,
			RandTrials:  a.RandTrials,
			CoolingRate: a.CoolingRate,
		}
		if err := p.Validate(); err != nil {
			return nil, errors.Wrapf(err, "agent %d", i)
		}
		result[i] = p
	}

	return result, nil
}

// Environment builds the environment the experiment runs in.
func (e *Experiment) Environment() (*bandit.Environment, error) {
	vars, err := e.variables()
	if err != nil {
		return nil, err
	}

	env, err := bandit.NewEnvironment(vars, e.Reward)
	if err != nil {
		return nil, err
	}

	glog.V(1).Infof("Experiment environment: %v", env)
	return env, nil
}

func (e *Experiment) variables() ([]scm.Variable, error) {
	if e.Model != "" {
		m, err := models.Lookup(e.Model)
		if err != nil {
			return nil, &bandit.ConfigError{Reason: err.Error()}
		}
		return m.Variables(), nil
	}

	vars := make([]scm.Variable, len(e.Variables))
	for i, v := range e.Variables {
		var model scm.Model
		switch v.Type {
		case "action":
			if len(v.Rows) > 0 {
				return nil, &bandit.ConfigError{Reason: fmt.Sprintf("action variable %q cannot have rows", v.Name)}
			}
			model = scm.NewActionModel(v.Parents, v.Domain)
		case "discrete":
			dm, err := scm.NewDiscreteModel(v.Name, v.Parents, v.Domain, scm.Rows(v.Rows))
			if err != nil {
				return nil, err
			}
			model = dm
		default:
			return nil, &bandit.ConfigError{Reason: fmt.Sprintf("variable %q has unknown type %q", v.Name, v.Type)}
		}

		vars[i] = scm.Variable{Name: v.Name, Model: model}
	}

	return vars, nil
}

// Runner returns a Monte Carlo runner configured by e.
func (e *Experiment) Runner() (*montecarlo.Runner, error) {
	otp, err := bandit.ParseOTP(e.OTP)
	if err != nil {
		return nil, err
	}

	return &montecarlo.Runner{
		Workers:               e.Workers,
		Repetitions:           e.Repetitions,
		Trials:                e.Trials,
		Seed:                  e.Seed,
		OTP:                   otp,
		RandomizeEnvironments: e.RandomizeEnvironments,
		MutationChance:        e.MutationChance,
		MutationChanceMax:     e.MutationChanceMax,
	}, nil
}
