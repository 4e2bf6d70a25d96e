package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abemo/causalquestioning"
	"github.com/abemo/causalquestioning/scm"
)

const builtin = `
model: baseline
agents:
  - asr: EG
    epsilon: 0.033
  - asr: epsilon-first
    rand_trials: 50
  - asr: ED
    cooling_rate: 0.98
  - asr: TS
trials: 300
repetitions: 4
seed: 420
`

const custom = `
reward: Y
variables:
  - name: W
    type: action
    domain: [0, 1]
  - name: Y
    type: discrete
    domain: [0, 1]
    parents: [W]
    rows:
      "0": [0.8, 0.2]
      "1": [0.2, 0.8]
agents:
  - asr: EG
randomize_environments: true
mutation_chance: 0.5
workers: 2
`

func TestParse_Builtin(t *testing.T) {
	e, err := Parse([]byte(builtin))
	require.NoError(t, err)

	assert.Equal(t, "Y", e.Reward)
	assert.Equal(t, 300, e.Trials)
	assert.Equal(t, uint64(420), e.Seed)

	params, err := e.Params()
	require.NoError(t, err)
	assert.Equal(t, []bandit.Params{
		{ASR: bandit.EpsilonGreedy, Epsilon: 0.033},
		{ASR: bandit.EpsilonFirst, RandTrials: 50},
		{ASR: bandit.EpsilonDecreasing, CoolingRate: 0.98},
		{ASR: bandit.ThompsonSampling},
	}, params)

	env, err := e.Environment()
	require.NoError(t, err)
	assert.Equal(t, "X", env.ActionVar())

	r, err := e.Runner()
	require.NoError(t, err)
	assert.Equal(t, bandit.Solo, r.OTP)
	assert.Equal(t, 4, r.Repetitions)
	assert.Equal(t, 300, r.Trials)
	assert.Equal(t, uint64(420), r.Seed)
	assert.False(t, r.RandomizeEnvironments)
}

func TestParse_Custom(t *testing.T) {
	e, err := Parse([]byte(custom))
	require.NoError(t, err)

	assert.Equal(t, DefaultTrials, e.Trials)
	assert.Equal(t, DefaultRepetitions, e.Repetitions)

	env, err := e.Environment()
	require.NoError(t, err)
	assert.Equal(t, "W", env.ActionVar())
	best, err := env.OptimalActions(scm.Assignment{})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, best)

	r, err := e.Runner()
	require.NoError(t, err)
	assert.Equal(t, 2, r.Workers)
	assert.True(t, r.RandomizeEnvironments)
	assert.Equal(t, 0.5, r.MutationChance)
}

func TestParse_MutationRangeAndOTP(t *testing.T) {
	e, err := Parse([]byte(`
model: chain
agents: [{asr: TS}]
otp: solo
randomize_environments: true
mutation_chance: 0.1
mutation_chance_max: 0.4
`))
	require.NoError(t, err)

	r, err := e.Runner()
	require.NoError(t, err)
	assert.Equal(t, bandit.Solo, r.OTP)
	assert.Equal(t, 0.1, r.MutationChance)
	assert.Equal(t, 0.4, r.MutationChanceMax)

	e.OTP = "community"
	_, err = e.Runner()
	var cfg *bandit.ConfigError
	assert.ErrorAs(t, err, &cfg)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "model: baseline\nagents: [{asr: EG}]\ncolour: blue\n",
		"no agents":       "model: baseline\n",
		"no model":        "agents: [{asr: EG}]\n",
		"unknown model":   "model: kuhn\nagents: [{asr: EG}]\n",
		"unknown asr":     "model: baseline\nagents: [{asr: UCB}]\n",
		"bad epsilon":     "model: baseline\nagents: [{asr: EG, epsilon: 2}]\n",
		"no cooling rate": "model: baseline\nagents: [{asr: ED}]\n",
		"negative trials": "model: baseline\nagents: [{asr: EG}]\ntrials: -1\n",
		"bad otp":         "model: baseline\nagents: [{asr: EG}]\notp: ask\n",
		"inverted range":  "model: baseline\nagents: [{asr: EG}]\nmutation_chance: 0.6\nmutation_chance_max: 0.2\n",
		"range too large": "model: baseline\nagents: [{asr: EG}]\nmutation_chance_max: 1.5\n",
		"both models": `
model: baseline
reward: Y
variables:
  - {name: W, type: action, domain: [0, 1]}
  - {name: Y, type: discrete, domain: [0, 1], parents: [W], rows: {"0": [1, 0], "1": [0, 1]}}
agents: [{asr: EG}]
`,
		"missing row": `
reward: Y
variables:
  - {name: W, type: action, domain: [0, 1]}
  - {name: Y, type: discrete, domain: [0, 1], parents: [W], rows: {"0": [1, 0]}}
agents: [{asr: EG}]
`,
		"no rows": `
reward: Y
variables:
  - {name: W, type: action, domain: [0, 1]}
  - {name: Y, type: discrete, domain: [0, 1], parents: [W]}
agents: [{asr: EG}]
`,
		"action with rows": `
reward: Y
variables:
  - {name: W, type: action, domain: [0, 1], rows: {"": [0.5, 0.5]}}
  - {name: Y, type: discrete, domain: [0, 1], parents: [W], rows: {"0": [1, 0], "1": [0, 1]}}
agents: [{asr: EG}]
`,
		"duplicate domain": `
reward: W
variables:
  - {name: W, type: action, domain: [0, 0]}
agents: [{asr: EG}]
`,
	}

	for name, data := range cases {
		_, err := Parse([]byte(data))
		assert.Error(t, err, name)
	}
}

func TestParse_ConfigErrorType(t *testing.T) {
	_, err := Parse([]byte("model: baseline\nagents: [{asr: UCB}]\n"))
	var cfg *bandit.ConfigError
	assert.ErrorAs(t, err, &cfg)
}

func TestLoadAndApplyEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(builtin), 0o644))

	e, err := Load(path)
	require.NoError(t, err)

	t.Setenv(EnvSeed, "7")
	t.Setenv(EnvWorkers, "3")
	require.NoError(t, e.ApplyEnv())
	assert.Equal(t, uint64(7), e.Seed)
	assert.Equal(t, 3, e.Workers)

	t.Setenv(EnvWorkers, "many")
	assert.Error(t, e.ApplyEnv())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
