package frontend

import (
	"io"
	"os"

	"go.acuvity.ai/bahamut"
	"go.acuvity.ai/minimcp/pkgs/auth"
	"go.acuvity.ai/minimcp/pkgs/metrics"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type sseCfg struct {
	sseEndpoint      string
	messagesEndpoint string
	wsEndpoint       string
	corsPolicy       *bahamut.CORSPolicy
	agentAuth        *auth.Auth
	metricsManager   *metrics.Manager
	tracer           trace.Tracer
}

func newSSECfg() sseCfg {
	return sseCfg{
		sseEndpoint:      "/sse",
		messagesEndpoint: "/messages/",
		wsEndpoint:       "/ws",
		tracer:           noop.NewTracerProvider().Tracer("noop"),
	}
}

// OptSSE are options that can be given to NewSSE().
type OptSSE func(*sseCfg)

// OptSSEStreamEndpoint sets the sse endpoint
// where agents can connect to the response stream.
// Defaults to /sse
func OptSSEStreamEndpoint(ep string) OptSSE {
	return func(cfg *sseCfg) {
		cfg.sseEndpoint = ep
	}
}

// OptSSEMessageEndpoint sets the message endpoint
// where agents can post request. Any path under it
// is accepted.
// Defaults to /messages/
func OptSSEMessageEndpoint(ep string) OptSSE {
	return func(cfg *sseCfg) {
		cfg.messagesEndpoint = ep
	}
}

// OptSSEWebSocketEndpoint sets the websocket endpoint.
// An empty string disables it.
// Defaults to /ws
func OptSSEWebSocketEndpoint(ep string) OptSSE {
	return func(cfg *sseCfg) {
		cfg.wsEndpoint = ep
	}
}

// OptSSECORSPolicy sets the bahamut.CORSPolicy to use for
// connection originating from a webrowser.
func OptSSECORSPolicy(policy *bahamut.CORSPolicy) OptSSE {
	return func(cfg *sseCfg) {
		cfg.corsPolicy = policy
	}
}

// OptSSEAgentAuth sets the credentials agents must send
// in their Authorization header.
func OptSSEAgentAuth(a *auth.Auth) OptSSE {
	return func(cfg *sseCfg) {
		cfg.agentAuth = a
	}
}

// OptSSEMetricsManager sets the metric manager to use to collect
// prometheus metrics.
func OptSSEMetricsManager(m *metrics.Manager) OptSSE {
	return func(cfg *sseCfg) {
		cfg.metricsManager = m
	}
}

// OptSSETracer sets the otel trace.Tracer to use to trace requests
func OptSSETracer(tracer trace.Tracer) OptSSE {
	return func(cfg *sseCfg) {
		if tracer == nil {
			tracer = noop.NewTracerProvider().Tracer("noop")
		}
		cfg.tracer = tracer
	}
}

type stdioCfg struct {
	in             io.Reader
	out            io.Writer
	metricsManager *metrics.Manager
}

func newStdioCfg() stdioCfg {
	return stdioCfg{
		in:  os.Stdin,
		out: os.Stdout,
	}
}

// OptStdio are options that can be given to NewStdio().
type OptStdio func(*stdioCfg)

// OptStdioStreams sets the streams to read requests from
// and write responses to. Defaults to os.Stdin and os.Stdout.
func OptStdioStreams(in io.Reader, out io.Writer) OptStdio {
	return func(cfg *stdioCfg) {
		cfg.in = in
		cfg.out = out
	}
}

// OptStdioMetricsManager sets the metric manager to use to collect
// prometheus metrics.
func OptStdioMetricsManager(m *metrics.Manager) OptStdio {
	return func(cfg *stdioCfg) {
		cfg.metricsManager = m
	}
}
