package tools

import (
	"context"
	"errors"
	"log/slog"

	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.acuvity.ai/minimcp/pkgs/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Outcomes of a tool invocation, as reported to metrics.
const (
	OutcomeSuccess         = "success"
	OutcomeUnknownTool     = "unknown_tool"
	OutcomeMissingArgument = "missing_argument"
	OutcomeInvalidArgument = "invalid_argument"
	OutcomeUpstreamError   = "upstream_error"
	OutcomeError           = "error"
)

type dispatcherCfg struct {
	tracer         trace.Tracer
	metricsManager *metrics.Manager
}

func newDispatcherCfg() dispatcherCfg {
	return dispatcherCfg{
		tracer: noop.NewTracerProvider().Tracer("noop"),
	}
}

// OptDispatcher are options that can be given to NewDispatcher().
type OptDispatcher func(*dispatcherCfg)

// OptDispatcherTracer sets the otel trace.Tracer used
// to trace invocations.
func OptDispatcherTracer(tracer trace.Tracer) OptDispatcher {
	return func(cfg *dispatcherCfg) {
		if tracer == nil {
			tracer = noop.NewTracerProvider().Tracer("noop")
		}
		cfg.tracer = tracer
	}
}

// OptDispatcherMetricsManager sets the metric manager used
// to count invocations.
func OptDispatcherMetricsManager(m *metrics.Manager) OptDispatcher {
	return func(cfg *dispatcherCfg) {
		cfg.metricsManager = m
	}
}

// A Dispatcher routes tool calls to the tool of a Registry.
// It holds no mutable state and can be shared between sessions.
type Dispatcher struct {
	registry *Registry
	cfg      dispatcherCfg
}

// NewDispatcher returns a new *Dispatcher over the given Registry.
func NewDispatcher(registry *Registry, opts ...OptDispatcher) *Dispatcher {

	cfg := newDispatcherCfg()
	for _, o := range opts {
		o(&cfg)
	}

	return &Dispatcher{
		registry: registry,
		cfg:      cfg,
	}
}

// Registry returns the underlying registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Invoke runs the tool with the given name.
//
// It returns an *UnknownToolError when the name does not match
// a registered tool, a *MissingArgumentError when a required
// argument is absent and an *InvalidArgumentError when the
// arguments do not validate against the tool input schema.
// Otherwise it returns whatever the tool handler returns.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) (out mcp.Contents, err error) {

	ctx, span := d.cfg.tracer.Start(ctx, "tools/call", trace.WithAttributes(attribute.String("tool", name)))
	defer span.End()

	if mm := d.cfg.metricsManager; mm != nil {
		m := mm.MeasureToolCall(name)
		defer func() { m(outcome(err)) }()
	}

	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if args == nil {
		args = map[string]any{}
	}

	e, ok := d.registry.lookup(name)
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	for _, key := range e.tool.InputSchema.Required {
		if _, ok := args[key]; !ok {
			return nil, &MissingArgumentError{Tool: name, Argument: key}
		}
	}

	if err := e.resolved.Validate(args); err != nil {
		return nil, &InvalidArgumentError{Tool: name, Err: err}
	}

	slog.Debug("Invoking tool", "tool", name)

	return e.tool.handler(ctx, args)
}

func outcome(err error) string {

	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrUnknownTool):
		return OutcomeUnknownTool
	case errors.Is(err, ErrMissingArgument):
		return OutcomeMissingArgument
	case errors.Is(err, ErrInvalidArgument):
		return OutcomeInvalidArgument
	case errors.Is(err, ErrUpstreamHTTP):
		return OutcomeUpstreamError
	default:
		return OutcomeError
	}
}
