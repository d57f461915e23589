package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.acuvity.ai/minimcp/pkgs/frontend"
	"golang.org/x/sync/errgroup"
)

func init() {

	initSharedFlagSet()

	Stdio.Flags().AddFlagSet(fHealth)
	Stdio.Flags().AddFlagSet(fFetch)
}

// Stdio is the cobra command to serve the tools over stdio.
var Stdio = &cobra.Command{
	Use:              "stdio",
	Short:            "Serve the tools over stdin and stdout",
	SilenceUsage:     true,
	SilenceErrors:    true,
	TraverseChildren: true,

	RunE: func(cmd *cobra.Command, args []string) error {

		tracer, err := makeTracer(cmd.Context(), "stdio")
		if err != nil {
			return fmt.Errorf("unable to configure tracer: %w", err)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)

		mm := startHealthServer(ctx, g)

		srv := makeServer("mcp-stdio", mm, tracer)

		slog.Info("MCP server configured",
			"mode", "stdio",
			"tools", srv.ToolNames(),
			"fetch-user-agent", viper.GetString("fetch-user-agent") != "",
		)

		f := frontend.NewStdio(srv, frontend.OptStdioMetricsManager(mm))

		g.Go(func() error {
			// stdin closing ends everything.
			defer cancel()
			return f.Start(ctx)
		})

		return g.Wait()
	},
}
