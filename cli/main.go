package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.acuvity.ai/minimcp/cli/internal/cmd"
)

func init() {

	cobra.OnInitialize(initConfig)

	cmd.Root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a yaml config file.")
	cmd.Root.PersistentFlags().StringVar(&cfgName, "config-name", "", "name of the config to look up in the config folders.")
}

// Main is the main run for the cli.
func Main(ctx context.Context) {
	os.Exit(run(ctx, os.Args[1:]))
}

func run(ctx context.Context, args []string) int {

	// The servers shut down gracefully when ctx is canceled.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	cmd.Root.SetArgs(args)

	err := cmd.Root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		slog.Debug("minimcp interrupted", "err", err)
		return 0
	}

	reportError(err)

	return 1
}

func reportError(err error) {

	if _, ok := slog.Default().Handler().(*slog.JSONHandler); ok {
		slog.Error("minimcp exited with error", "version", cmd.Version(), "err", err)
		return
	}

	fmt.Fprintf(os.Stderr, "minimcp %s: %s\n", cmd.Version(), err)
}
