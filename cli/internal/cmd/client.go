package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/smallnest/ringbuffer"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.acuvity.ai/minimcp/pkgs/frontend"
	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.acuvity.ai/minimcp/pkgs/scan"
)

var fClient = pflag.NewFlagSet("client", pflag.ExitOnError)

func init() {

	initSharedFlagSet()

	fClient.String("sse", "", "URL of the sse endpoint of a server to connect to. When unset, a stdio server is spawned.")
	fClient.String("ws", "", "URL of the websocket endpoint of a server to connect to.")
	fClient.String("call", "", "name of a tool to call after listing the tools.")
	fClient.StringArray("arg", nil, "argument of the tool call, as key=value. Can be repeated.")
	fClient.String("sbom", "", "path to a sbom file the listed tools must match.")

	Client.Flags().AddFlagSet(fClient)
	Client.Flags().AddFlagSet(fTLSClient)
	Client.Flags().AddFlagSet(fAgentAuth)
}

type clientOutput struct {
	Server *mcp.Implementation `json:"server,omitempty"`
	Tools  mcp.Tools           `json:"tools"`
	Result *mcp.CallToolResult `json:"result,omitempty"`
}

// Client is the cobra command to run a test client against a server.
var Client = &cobra.Command{
	Use:              "client",
	Short:            "Connect to a server, list its tools and optionally call one",
	SilenceUsage:     true,
	SilenceErrors:    true,
	TraverseChildren: true,

	RunE: func(cmd *cobra.Command, args []string) error {

		sseURL := viper.GetString("sse")
		wsURL := viper.GetString("ws")
		call := viper.GetString("call")

		if sseURL != "" && wsURL != "" {
			return fmt.Errorf("you cannot set both --sse and --ws")
		}

		callArgs, err := parseCallArgs(viper.GetStringSlice("arg"))
		if err != nil {
			return err
		}

		sbom, err := makeSBOM()
		if err != nil {
			return err
		}

		var out clientOutput

		if wsURL != "" {
			out, err = runWSClient(cmd.Context(), wsURL, call, callArgs)
		} else {
			out, err = runSDKClient(cmd.Context(), sseURL, call, callArgs)
		}
		if err != nil {
			return err
		}

		if len(sbom.Tools) > 0 {

			hashes, err := scan.HashTools(out.Tools)
			if err != nil {
				return fmt.Errorf("unable to hash tools: %w", err)
			}

			if err := sbom.Tools.Matches(hashes); err != nil {
				return fmt.Errorf("tools do not match the sbom: %w", err)
			}

			slog.Info("Tools match the sbom", "tools", len(hashes))
		}

		return printJSON(out)
	},
}

func runSDKClient(ctx context.Context, sseURL string, call string, args map[string]any) (out clientOutput, err error) {

	var transport sdk.Transport
	var stderr *stderrBuffer

	if sseURL != "" {

		a, err := makeAgentAuth()
		if err != nil {
			return out, fmt.Errorf("unable to build auth: %w", err)
		}

		tlsConfig, err := tlsConfigFromFlags(fTLSClient)
		if err != nil {
			return out, err
		}

		hc := makeHTTPClient(tlsConfig, a)

		if inf := serverInfo(ctx, hc, baseURL(sseURL)); inf.Server != "" {
			out.Server = &mcp.Implementation{Name: inf.Server, Version: inf.Version}
		}

		transport = &sdk.SSEClientTransport{Endpoint: sseURL, HTTPClient: hc}

		slog.Debug("Connecting to sse server", "url", sseURL)

	} else {

		exe, err := os.Executable()
		if err != nil {
			return out, fmt.Errorf("unable to find own executable: %w", err)
		}

		stderr = newStderrBuffer(4096)

		c := exec.CommandContext(ctx, exe, "stdio", "--log-level", viper.GetString("log-level"), "--log-format", "json")
		c.Stderr = stderr

		transport = &sdk.CommandTransport{Command: c}

		slog.Debug("Spawning stdio server", "exe", exe)
	}

	defer func() {
		if err != nil && stderr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "---\n%s\n---\n", strings.TrimSpace(stderr.String()))
		}
	}()

	client := sdk.NewClient(&sdk.Implementation{Name: "minimcp-client", Version: Version()}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return out, fmt.Errorf("unable to connect to server: %w", err)
	}
	defer func() { _ = session.Close() }()

	lr, err := session.ListTools(ctx, nil)
	if err != nil {
		return out, fmt.Errorf("unable to list tools: %w", err)
	}

	if err := convert(lr.Tools, &out.Tools); err != nil {
		return out, fmt.Errorf("unable to convert tools: %w", err)
	}

	if call == "" {
		return out, nil
	}

	cr, err := session.CallTool(ctx, &sdk.CallToolParams{Name: call, Arguments: args})
	if err != nil {
		return out, fmt.Errorf("unable to call tool '%s': %w", call, err)
	}

	out.Result = &mcp.CallToolResult{}
	if err := convert(cr, out.Result); err != nil {
		return out, fmt.Errorf("unable to convert tool result: %w", err)
	}

	return out, nil
}

func runWSClient(ctx context.Context, wsURL string, call string, args map[string]any) (out clientOutput, err error) {

	if !strings.HasPrefix(wsURL, "wss://") && !strings.HasPrefix(wsURL, "ws://") {
		return out, fmt.Errorf("--ws must use wss:// or ws:// scheme")
	}

	a, err := makeAgentAuth()
	if err != nil {
		return out, fmt.Errorf("unable to build auth: %w", err)
	}

	tlsConfig, err := tlsConfigFromFlags(fTLSClient)
	if err != nil {
		return out, err
	}

	stream, err := frontend.ConnectWS(ctx, wsURL, tlsConfig, a)
	if err != nil {
		return out, err
	}

	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(
		func(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
			slog.Debug("Ignoring server request", "method", req.Method)
			return nil, nil
		},
	))
	defer func() { _ = conn.Close() }()

	impl := mcp.Implementation{Name: "minimcp-client", Version: Version()}

	if out.Tools, err = scan.ListTools(ctx, conn, impl); err != nil {
		return out, err
	}

	if call == "" {
		return out, nil
	}

	out.Result = &mcp.CallToolResult{}
	if err := conn.Call(ctx, "tools/call", mcp.CallToolParams{Name: call, Arguments: args}, out.Result); err != nil {
		return out, fmt.Errorf("unable to call tool '%s': %w", call, err)
	}

	return out, nil
}

// baseURL returns the scheme and host of the given URL.
func baseURL(u string) string {

	pu, err := url.Parse(u)
	if err != nil {
		return u
	}

	return pu.Scheme + "://" + pu.Host
}

func parseCallArgs(in []string) (map[string]any, error) {

	out := make(map[string]any, len(in))

	for _, kv := range in {

		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --arg '%s': must be key=value", kv)
		}

		out[k] = v
	}

	return out, nil
}

// convert converts in to out through their JSON representation.
func convert(in any, out any) error {

	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

// stderrBuffer keeps the first bytes written
// to the stderr of the spawned server.
type stderrBuffer struct {
	rb *ringbuffer.RingBuffer
	sync.Mutex
}

func newStderrBuffer(size int) *stderrBuffer {
	return &stderrBuffer{rb: ringbuffer.New(size)}
}

// Write never fails, so the server never
// blocks on a full buffer.
func (b *stderrBuffer) Write(p []byte) (int, error) {

	b.Lock()
	defer b.Unlock()

	_, _ = b.rb.Write(p)

	return len(p), nil
}

func (b *stderrBuffer) String() string {

	b.Lock()
	defer b.Unlock()

	data, _ := io.ReadAll(b.rb)

	return string(data)
}
