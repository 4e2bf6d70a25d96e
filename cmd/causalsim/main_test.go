package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abemo/causalquestioning/config"
	"github.com/abemo/causalquestioning/ldbstore"
)

const experiment = `
model: two-node
agents:
  - asr: EG
    epsilon: 0.1
  - asr: TS
trials: 50
repetitions: 3
seed: 1
`

func TestRunExperiment(t *testing.T) {
	e, err := config.Parse([]byte(experiment))
	require.NoError(t, err)

	store, err := ldbstore.OpenMem()
	require.NoError(t, err)
	defer store.Close()

	var out bytes.Buffer
	require.NoError(t, runExperiment(context.Background(), e, store, true, prometheus.NewRegistry(), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "AGENT"))
	assert.True(t, strings.HasPrefix(lines[1], "EG(epsilon=0.1)"))
	assert.True(t, strings.HasPrefix(lines[2], "TS"))

	labels, err := store.Labels()
	require.NoError(t, err)
	assert.Equal(t, []string{"EG(epsilon=0.1)", "TS"}, labels)

	out.Reset()
	f := beliefFlags{agent: "TS", run: store.RunID().String(), rep: 2}
	require.NoError(t, printBelief(store, f, &out))
	assert.Contains(t, out.String(), "Table(W | [])")
	assert.Contains(t, out.String(), "Table(Y | [W])")

	f.run = "not-a-uuid"
	assert.Error(t, printBelief(store, f, &out))
	f.run, f.rep = store.RunID().String(), 3
	assert.Error(t, printBelief(store, f, &out))
}

func TestRunMain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(experiment), 0o644))

	var out bytes.Buffer
	f := runFlags{config: path, db: filepath.Join(dir, "db")}
	require.NoError(t, runMain(context.Background(), f, &out))
	assert.Contains(t, out.String(), "TS")

	f.config = filepath.Join(dir, "missing.yaml")
	assert.Error(t, runMain(context.Background(), f, &out))

	f = runFlags{config: path, beliefs: true}
	assert.Error(t, runMain(context.Background(), f, &out), "beliefs without a database")
}

func TestListModels(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, listModels(&out))
	assert.Contains(t, out.String(), "baseline")
	assert.Contains(t, out.String(), "X=[1]")
	assert.Contains(t, out.String(), "two-node: W -> Y")
}

func TestRunFlags(t *testing.T) {
	var f runFlags
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	f.register(fs)

	require.NoError(t, fs.Parse([]string{"--config", "exp.yaml", "--db=results", "--beliefs"}))
	assert.Equal(t, runFlags{config: "exp.yaml", db: "results", beliefs: true}, f)

	var bf beliefFlags
	bfs := pflag.NewFlagSet("beliefs", pflag.ContinueOnError)
	bf.register(bfs)
	require.NoError(t, bfs.Parse([]string{"--db", "results", "--agent", "TS", "--run", "abc", "--rep", "4"}))
	assert.Equal(t, beliefFlags{db: "results", agent: "TS", run: "abc", rep: 4}, bf)
}
