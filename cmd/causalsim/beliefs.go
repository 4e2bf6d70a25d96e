package main

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/abemo/causalquestioning/ldbstore"
)

type beliefFlags struct {
	db    string
	agent string
	run   string
	rep   int
}

func newBeliefsCmd() *cobra.Command {
	var f beliefFlags
	cmd := &cobra.Command{
		Use:   "beliefs",
		Short: "Print the tables an agent learned in one stored repetition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ldbstore.Open(f.db, &opt.Options{ErrorIfMissing: true})
			if err != nil {
				return err
			}
			defer store.Close()

			return printBelief(store, f, cmd.OutOrStdout())
		},
	}

	f.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}

func (f *beliefFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.db, "db", "", "LevelDB database written by run --beliefs")
	fs.StringVar(&f.agent, "agent", "", "Agent label, as printed by run")
	fs.StringVar(&f.run, "run", "", "Run id logged by run")
	fs.IntVar(&f.rep, "rep", 0, "Repetition index")
}

func printBelief(store *ldbstore.Store, f beliefFlags, w io.Writer) error {
	runID, err := uuid.Parse(f.run)
	if err != nil {
		return errors.Wrapf(err, "parsing run id %q", f.run)
	}

	b, err := store.LoadBelief(f.agent, runID, f.rep)
	if err != nil {
		return err
	}

	for _, n := range b.Names() {
		fmt.Fprintln(w, b.Table(n))
	}
	return nil
}
