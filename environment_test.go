package bandit

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abemo/causalquestioning/graph"
	"github.com/abemo/causalquestioning/models"
	"github.com/abemo/causalquestioning/scm"
)

func newEnv(t testing.TB, vars []scm.Variable, reward string) *Environment {
	t.Helper()
	env, err := NewEnvironment(vars, reward)
	require.NoError(t, err)
	return env
}

func TestEnvironment_Baseline(t *testing.T) {
	env := newEnv(t, models.Baseline(), "Y")

	assert.Equal(t, "X", env.ActionVar())
	assert.Equal(t, "Y", env.RewardVar())
	assert.Equal(t, []string{"Z"}, env.FeatureVars())
	assert.True(t, env.HasContext())
	assert.Len(t, env.Contexts(), 2)

	cases := []struct {
		z       int
		best    float64
		actions []int
		values  []float64
	}{
		{0, 0.425, []int{1}, []float64{0.275, 0.425}},
		{1, 0.725, []int{1}, []float64{0.575, 0.725}},
	}

	for _, tc := range cases {
		ctx := scm.Assignment{"Z": tc.z}
		best, err := env.OptimalReward(ctx)
		require.NoError(t, err)
		assert.InDelta(t, tc.best, best, 1e-12, "Z=%d", tc.z)

		actions, err := env.OptimalActions(ctx)
		require.NoError(t, err)
		assert.Equal(t, tc.actions, actions, "Z=%d", tc.z)

		for a, want := range tc.values {
			got, err := env.ActionValue(ctx, a)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-12, "Z=%d X=%d", tc.z, a)
		}
	}

	// Extra entries in the context are ignored.
	best, err := env.OptimalReward(scm.Assignment{"Z": 1, "W": 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.725, best, 1e-12)
}

func TestEnvironment_ReversedW(t *testing.T) {
	env := newEnv(t, models.ReversedW(), "Y")
	for _, ctx := range env.Contexts() {
		actions, err := env.OptimalActions(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{0}, actions, "context %v", ctx)
	}
}

func TestEnvironment_Chain(t *testing.T) {
	env := newEnv(t, models.Chain(), "Y")
	assert.False(t, env.HasContext())

	ctx := scm.Assignment{}
	v1, err := env.ActionValue(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5625, v1, 1e-12)

	v0, err := env.ActionValue(ctx, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.4375, v0, 1e-12)
}

func TestEnvironment_PrePost(t *testing.T) {
	env := newEnv(t, models.Baseline(), "Y")

	assert.Equal(t, []string{"Z"}, env.Pre().Names())
	assert.Empty(t, env.Pre().ActionNodes())
	assert.ElementsMatch(t, []string{"Z", "X"}, env.Post().ActionNodes())

	rng := rand.New(rand.NewPCG(1, 2))
	pre, err := env.Pre().Sample(rng, nil)
	require.NoError(t, err)
	post, err := env.Post().Sample(rng, pre.Merge(scm.Assignment{"X": 1}))
	require.NoError(t, err)
	assert.Equal(t, pre["Z"], post["Z"])
	assert.Equal(t, 1, post["X"])
	assert.Len(t, post, 4)
}

func TestEnvironment_Ties(t *testing.T) {
	y, err := scm.NewDiscreteModel("Y", []string{"W"}, []int{0, 1}, scm.Rows{
		"0": {0.5, 0.5},
		"1": {0.5, 0.5},
		"2": {0.9, 0.1},
	})
	require.NoError(t, err)

	env := newEnv(t, []scm.Variable{
		{Name: "W", Model: scm.NewActionModel(nil, []int{0, 1, 2})},
		{Name: "Y", Model: y},
	}, "Y")

	actions, err := env.OptimalActions(scm.Assignment{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, actions)

	ok, err := env.IsOptimal(scm.Assignment{}, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnvironment_Errors(t *testing.T) {
	noAction := models.TwoNode()
	noAction[0].Model, _ = scm.NewRandomModel("W", []int{0, 1}, []float64{0.5, 0.5})
	_, err := NewEnvironment(noAction, "Y")
	var missing *MissingActionVariableError
	assert.ErrorAs(t, err, &missing)

	twoActions := models.TwoNode()
	twoActions[1].Model = scm.NewActionModel([]string{"W"}, []int{0, 1})
	_, err = NewEnvironment(twoActions, "Y")
	var multiple *MultipleActionVariablesError
	require.ErrorAs(t, err, &multiple)
	assert.Equal(t, []string{"W", "Y"}, multiple.Nodes)

	_, err = NewEnvironment(models.TwoNode(), "Q")
	var unknown *graph.UnknownNodeError
	assert.ErrorAs(t, err, &unknown)

	_, err = NewEnvironment(models.TwoNode(), "W")
	var cfg *ConfigError
	assert.ErrorAs(t, err, &cfg)

	cyclic := models.TwoNode()
	cyclic[0].Model = scm.NewActionModel([]string{"Y"}, []int{0, 1})
	_, err = NewEnvironment(cyclic, "Y")
	var cycle *graph.CycleError
	assert.ErrorAs(t, err, &cycle)

	env := newEnv(t, models.Baseline(), "Y")
	var unknownCtx *UnknownContextError
	_, err = env.OptimalReward(scm.Assignment{"Z": 5})
	assert.ErrorAs(t, err, &unknownCtx)
	_, err = env.OptimalActions(scm.Assignment{"W": 0})
	assert.ErrorAs(t, err, &unknownCtx)

	_, err = env.ExpectedReward(scm.Assignment{"Z": 0})
	var intervention *scm.MissingInterventionError
	assert.ErrorAs(t, err, &intervention)
}

func TestEnvironment_Randomize(t *testing.T) {
	env := newEnv(t, models.Baseline(), "Y")
	rng := rand.New(rand.NewPCG(7, 0))

	r, err := env.Randomize(rng)
	require.NoError(t, err)
	assert.Equal(t, env.Model().Names(), r.Model().Names())
	assert.Equal(t, env.FeatureVars(), r.FeatureVars())

	for _, ctx := range r.Contexts() {
		best, err := r.OptimalReward(ctx)
		require.NoError(t, err)
		assert.True(t, best >= 0 && best <= 1, "optimal reward %v out of range", best)
	}

	// The original is untouched.
	best, err := env.OptimalReward(scm.Assignment{"Z": 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.425, best, 1e-12)

	same, err := env.Mutate(rng, 0)
	require.NoError(t, err)
	for _, ctx := range env.Contexts() {
		for _, a := range env.Actions() {
			want, _ := env.ActionValue(ctx, a)
			got, _ := same.ActionValue(ctx, a)
			assert.Equal(t, want, got)
		}
	}
}
