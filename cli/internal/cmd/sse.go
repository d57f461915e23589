package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.acuvity.ai/minimcp/pkgs/frontend"
	"golang.org/x/sync/errgroup"
)

var fSSE = pflag.NewFlagSet("sse", pflag.ExitOnError)

func init() {

	initSharedFlagSet()

	fSSE.StringP("listen", "l", "0.0.0.0:8000", "listen address of the server.")
	fSSE.String("endpoint-sse", "/sse", "sets the endpoint to connect to the event stream.")
	fSSE.String("endpoint-messages", "/messages/", "sets the endpoint to post messages.")
	fSSE.String("endpoint-ws", "/ws", "sets the websocket endpoint. Empty disables it.")

	SSE.Flags().AddFlagSet(fSSE)
	SSE.Flags().AddFlagSet(fTLSServer)
	SSE.Flags().AddFlagSet(fHealth)
	SSE.Flags().AddFlagSet(fCORS)
	SSE.Flags().AddFlagSet(fAgentAuth)
	SSE.Flags().AddFlagSet(fFetch)
}

// SSE is the cobra command to serve the tools over HTTP with server-sent events.
var SSE = &cobra.Command{
	Use:              "sse",
	Short:            "Serve the tools over HTTP using server-sent events",
	SilenceUsage:     true,
	SilenceErrors:    true,
	TraverseChildren: true,

	RunE: func(cmd *cobra.Command, args []string) error {

		listen := viper.GetString("listen")
		sseEndpoint := viper.GetString("endpoint-sse")
		messagesEndpoint := viper.GetString("endpoint-messages")
		wsEndpoint := viper.GetString("endpoint-ws")

		if listen == "" {
			return fmt.Errorf("--listen must be set")
		}

		agentAuth, err := makeAgentAuth()
		if err != nil {
			return fmt.Errorf("unable to build auth: %w", err)
		}

		serverTLSConfig, err := tlsConfigFromFlags(fTLSServer)
		if err != nil {
			return err
		}

		tracer, err := makeTracer(cmd.Context(), "sse")
		if err != nil {
			return fmt.Errorf("unable to configure tracer: %w", err)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)

		mm := startHealthServer(ctx, g)

		srv := makeServer("mcp-website-fetcher", mm, tracer)

		slog.Info("MCP server configured",
			"mode", "sse",
			"listen", listen,
			"sse", sseEndpoint,
			"messages", messagesEndpoint,
			"ws", wsEndpoint,
			"tools", srv.ToolNames(),
			"agent-auth", agentAuth != nil,
			"server-tls", serverTLSConfig != nil,
			"server-mtls", mtlsMode(serverTLSConfig),
		)

		f := frontend.NewSSE(listen, srv, serverTLSConfig,
			frontend.OptSSEStreamEndpoint(sseEndpoint),
			frontend.OptSSEMessageEndpoint(messagesEndpoint),
			frontend.OptSSEWebSocketEndpoint(wsEndpoint),
			frontend.OptSSEAgentAuth(agentAuth),
			frontend.OptSSECORSPolicy(makeCORSPolicy()),
			frontend.OptSSEMetricsManager(mm),
			frontend.OptSSETracer(tracer),
		)

		g.Go(func() error {
			defer cancel()
			return f.Start(ctx)
		})

		return g.Wait()
	},
}
