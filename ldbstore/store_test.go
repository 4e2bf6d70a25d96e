package ldbstore

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/abemo/causalquestioning"
	"github.com/abemo/causalquestioning/cpt"
	"github.com/abemo/causalquestioning/models"
	"github.com/abemo/causalquestioning/montecarlo"
)

func TestStore_AppendLoad(t *testing.T) {
	store, err := OpenMem()
	require.NoError(t, err)
	defer store.Close()

	a := bandit.Series{CPR: []float64{0, 0.5, 0.5}, POA: []float64{1, 0, 1}}
	b := bandit.Series{CPR: []float64{0.25, math.Pi, 7}, POA: []float64{0, 0, 1}}
	require.NoError(t, store.Append("EG(epsilon=0.1)", 1, b))
	require.NoError(t, store.Append("EG(epsilon=0.1)", 0, a))
	require.NoError(t, store.Append("TS", 0, a))

	loaded, err := store.Load("EG(epsilon=0.1)")
	require.NoError(t, err)
	assert.Equal(t, []bandit.Series{a, b}, loaded)

	labels, err := store.Labels()
	require.NoError(t, err)
	assert.Equal(t, []string{"EG(epsilon=0.1)", "TS"}, labels)

	runs, err := store.Runs("EG(epsilon=0.1)")
	require.NoError(t, err)
	assert.Equal(t, 2, runs[store.RunID()])

	missing, err := store.Load("ED")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestStore_RejectsMismatchedSeries(t *testing.T) {
	store, err := OpenMem()
	require.NoError(t, err)
	defer store.Close()

	err = store.Append("EG", 0, bandit.Series{CPR: []float64{1, 2}, POA: []float64{1}})
	require.Error(t, err)
	_, ok := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, ok, "%T carries no stack trace", err)
}

func TestStore_ReopenKeepsRuns(t *testing.T) {
	dir := t.TempDir()
	s := bandit.Series{CPR: []float64{1}, POA: []float64{0}}

	first, err := Open(dir, &opt.Options{})
	require.NoError(t, err)
	require.NoError(t, first.Append("TS", 0, s))
	require.NoError(t, first.Close())

	second, err := Open(dir, &opt.Options{})
	require.NoError(t, err)
	defer second.Close()
	assert.NotEqual(t, first.RunID(), second.RunID())
	require.NoError(t, second.Append("TS", 0, s))

	loaded, err := second.Load("TS")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	runs, err := second.Runs("TS")
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_MonteCarloSink(t *testing.T) {
	store, err := OpenMem()
	require.NoError(t, err)
	defer store.Close()

	env, err := bandit.NewEnvironment(models.TwoNode(), "Y")
	require.NoError(t, err)

	runner := &montecarlo.Runner{Repetitions: 5, Trials: 40, Seed: 9, Sink: store}
	result, err := runner.Run(context.Background(), env, bandit.Params{ASR: bandit.ThompsonSampling})
	require.NoError(t, err)

	loaded, err := store.Load(result.Label)
	require.NoError(t, err)
	assert.Equal(t, result.Runs, loaded)
}

func TestStore_Beliefs(t *testing.T) {
	store, err := OpenMem()
	require.NoError(t, err)
	defer store.Close()

	env, err := bandit.NewEnvironment(models.Baseline(), "Y")
	require.NoError(t, err)

	runner := &montecarlo.Runner{Repetitions: 2, Trials: 30, Seed: 4, Sink: store, Beliefs: store}
	params := bandit.Params{ASR: bandit.EpsilonGreedy, Epsilon: 0.1}
	result, err := runner.Run(context.Background(), env, params)
	require.NoError(t, err)

	for rep := 0; rep < 2; rep++ {
		b, err := store.LoadBelief(result.Label, store.RunID(), rep)
		require.NoError(t, err)
		assert.Equal(t, 30.0, b.Table("Y").Total())
		assert.Equal(t, []string{"X"}, b.Table("W").Parents())
		assert.Equal(t, cpt.NewBelief(env.Model()).Names(), b.Names())
	}

	_, err = store.LoadBelief(result.Label, store.RunID(), 7)
	assert.Error(t, err)

	// Labels only lists result series.
	labels, err := store.Labels()
	require.NoError(t, err)
	assert.Equal(t, []string{result.Label}, labels)
}

func TestEncodeFloats(t *testing.T) {
	x := []float64{0, -1.5, math.Inf(1), 1e-300}
	buf := encodeFloats(x)
	assert.Len(t, buf, 32)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0xf8, 0xbf}, buf[8:16])

	y, err := decodeFloats(buf)
	require.NoError(t, err)
	assert.Equal(t, x, y)

	_, err = decodeFloats(buf[:7])
	assert.Error(t, err)
}
