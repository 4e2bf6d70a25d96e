package bandit

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abemo/causalquestioning/models"
	"github.com/abemo/causalquestioning/scm"
)

// fixedCore always plays the same action and learns nothing.
type fixedCore struct {
	action int
	recent scm.Assignment
}

func (c *fixedCore) Choose(scm.Assignment) int             { return c.action }
func (c *fixedCore) Observe(sample scm.Assignment)         { c.recent = sample }
func (c *fixedCore) Recent() scm.Assignment                { return c.recent }
func (c *fixedCore) Context(scm.Assignment) scm.Assignment { return scm.Assignment{} }

func TestWorld_CumulativeRegretNonDecreasing(t *testing.T) {
	for _, m := range models.All() {
		env := newEnv(t, m.Variables(), m.Reward)
		for _, params := range []Params{
			{ASR: EpsilonGreedy, Epsilon: 0.1},
			{ASR: EpsilonFirst, RandTrials: 20},
			{ASR: EpsilonDecreasing, CoolingRate: 0.98},
			{ASR: ThompsonSampling},
		} {
			agent := newAgent(t, 4, env, params)
			world := NewWorld(rand.New(rand.NewPCG(4, 1)), env, agent, 300)

			s, err := world.Run(context.Background())
			require.NoError(t, err)
			require.Equal(t, 300, s.Len())
			require.Len(t, s.POA, 300)

			for i := range s.CPR {
				assert.Contains(t, []float64{0, 1}, s.POA[i])
				assert.GreaterOrEqual(t, s.CPR[i], 0.0)
				if i > 0 {
					assert.GreaterOrEqual(t, s.CPR[i], s.CPR[i-1], "%s %v trial %d", m.Name, params, i)
				}
			}
		}
	}
}

func TestWorld_RunTrial(t *testing.T) {
	env := newEnv(t, models.Baseline(), "Y")
	agent := newAgent(t, 1, env, Params{ASR: EpsilonGreedy, Epsilon: 0.5})
	world := NewWorld(rand.New(rand.NewPCG(1, 1)), env, agent, 1)

	for i := 0; i < 50; i++ {
		result, err := world.RunTrial(i)
		require.NoError(t, err)
		assert.Equal(t, i, result.Trial)
		require.Contains(t, result.Context, "Z")
		assert.Len(t, result.Context, 1)

		best, err := env.OptimalReward(result.Context)
		require.NoError(t, err)
		assert.InDelta(t, best-result.Reward, result.RealizedRegret, 1e-12)
		assert.GreaterOrEqual(t, result.Regret, 0.0)
		assert.Equal(t, result.Optimal, result.Regret == 0)

		recent := agent.Recent()
		assert.Equal(t, result.Action, recent["X"])
		assert.Equal(t, result.Context["Z"], recent["Z"])
	}
}

func TestWorld_FixedCore(t *testing.T) {
	env := newEnv(t, models.TwoNode(), "Y")
	core := &fixedCore{action: 0}
	world := NewWorld(rand.New(rand.NewPCG(3, 3)), env, core, 100)

	s, err := world.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 60, s.CPR[99], 1e-9)
	for _, p := range s.POA {
		assert.Zero(t, p)
	}
	assert.NotNil(t, core.Recent())
}

func TestWorld_Cancelled(t *testing.T) {
	env := newEnv(t, models.TwoNode(), "Y")
	agent := newAgent(t, 1, env, Params{})
	world := NewWorld(rand.New(rand.NewPCG(1, 1)), env, agent, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := world.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Len())
	assert.Nil(t, agent.Recent())
}
