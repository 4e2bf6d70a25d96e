package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/abemo/causalquestioning/config"
	"github.com/abemo/causalquestioning/ldbstore"
	"github.com/abemo/causalquestioning/montecarlo"
)

type runFlags struct {
	config      string
	db          string
	beliefs     bool
	metricsAddr string
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the experiment described by a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(cmd.Context(), f, cmd.OutOrStdout())
		},
	}

	f.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "Experiment YAML file")
	fs.StringVar(&f.db, "db", "", "Append per-repetition results to the LevelDB database in this directory")
	fs.BoolVar(&f.beliefs, "beliefs", false, "Also store the tables each agent learned (requires --db)")
	fs.StringVar(&f.metricsAddr, "metrics_addr", "", "Serve Prometheus metrics on this address while running")
}

func runMain(ctx context.Context, f runFlags, w io.Writer) error {
	if f.beliefs && f.db == "" {
		return errors.New("--beliefs requires --db")
	}

	e, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if err := e.ApplyEnv(); err != nil {
		return err
	}

	var store *ldbstore.Store
	if f.db != "" {
		store, err = ldbstore.Open(f.db, &opt.Options{})
		if err != nil {
			return err
		}
		defer store.Close()
		glog.Infof("Appending results to %s as run %v", f.db, store.RunID())
	}

	reg := prometheus.NewRegistry()
	if f.metricsAddr != "" {
		srv := &http.Server{
			Addr:    f.metricsAddr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				glog.Errorf("Metrics server: %v", err)
			}
		}()
		defer srv.Close()
		glog.Infof("Serving metrics on %s", f.metricsAddr)
	}

	return runExperiment(ctx, e, store, f.beliefs, reg, w)
}

func runExperiment(ctx context.Context, e *config.Experiment, store *ldbstore.Store, beliefs bool, reg prometheus.Registerer, w io.Writer) error {
	env, err := e.Environment()
	if err != nil {
		return err
	}

	params, err := e.Params()
	if err != nil {
		return err
	}

	runner, err := e.Runner()
	if err != nil {
		return err
	}
	runner.Metrics = montecarlo.NewMetrics(reg)
	if store != nil {
		runner.Sink = store
		if beliefs {
			runner.Beliefs = store
		}
	}

	glog.Infof("Running %d agents, %d repetitions of %d trials, seed %d",
		len(params), runner.Repetitions, runner.Trials, runner.Seed)
	start := time.Now()
	results, err := runner.Sweep(ctx, env, params)
	if err != nil {
		return err
	}
	glog.Infof("Finished in %v", time.Since(start))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tCPR\tCPR SEM\tPOA\tPOA SEM")
	for _, r := range results {
		s, err := r.Summary()
		if err != nil {
			return err
		}

		last := len(s.MeanCPR) - 1
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\n",
			r.Label, s.MeanCPR[last], s.SemCPR[last], s.MeanPOA[last], s.SemPOA[last])
	}

	return tw.Flush()
}
