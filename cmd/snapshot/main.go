package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vestwatch/vestwatch/pkg/config"
	"github.com/vestwatch/vestwatch/pkg/logging"
)

type options struct {
	at      string
	tail    int
	nodes   []string
	include []string
	exclude []string
	window  int
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "snapshot <account>",
		Short: "Replay an account's history and print its state as JSON",
		Long: "Fetches the full operation history of an account, replays it and prints the state " +
			"at --at (default: now) together with the tails of the derived series. Node and " +
			"feature settings come from the same environment variables as the query service.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.NewCLI(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()
			return run(ctx, cmd.OutOrStdout(), args[0], cfg, o, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.at, "at", "", "point in time to report, RFC3339 or unix seconds")
	f.IntVar(&o.tail, "tail", 5, "number of trailing points printed per series")
	f.StringSliceVar(&o.nodes, "nodes", nil, "node endpoints, overrides NODES")
	f.StringSliceVar(&o.include, "include", nil, "only apply these operation types")
	f.StringSliceVar(&o.exclude, "exclude", nil, "skip these operation types")
	f.IntVar(&o.window, "window", 0, "curation window in days, overrides CURATION_WINDOW_DAYS")
	f.DurationVar(&o.timeout, "timeout", 10*time.Minute, "overall time limit")
	return cmd
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
