// Command causalsim runs causal bandit experiments described in YAML
// files and reports how quickly each action selection rule learns.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		glog.Warningf("Unable to load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := &cobra.Command{
		Use:           "causalsim",
		Short:         "Simulate agents learning in causal bandit environments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Values were set by cobra; mark the go flags parsed for glog.
			return flag.CommandLine.Parse(nil)
		},
	}
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	root.AddCommand(newRunCmd(), newModelsCmd(), newBeliefsCmd())

	err := root.ExecuteContext(ctx)
	if err != nil {
		glog.Errorf("%v", err)
	}
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
