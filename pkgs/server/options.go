package server

import (
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type cfg struct {
	instructions string
	tracer       trace.Tracer
}

func newCfg() cfg {
	return cfg{
		tracer: noop.NewTracerProvider().Tracer("noop"),
	}
}

// Option are options that can be given to New().
type Option func(*cfg)

// OptInstructions sets the instructions returned
// to clients during initialize.
func OptInstructions(instructions string) Option {
	return func(c *cfg) {
		c.instructions = instructions
	}
}

// OptTracer sets the otel trace.Tracer used to trace
// incoming requests.
func OptTracer(tracer trace.Tracer) Option {
	return func(c *cfg) {
		if tracer == nil {
			tracer = noop.NewTracerProvider().Tracer("noop")
		}
		c.tracer = tracer
	}
}
