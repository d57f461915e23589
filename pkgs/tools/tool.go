package tools

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/jsonschema-go/jsonschema"
	"go.acuvity.ai/minimcp/pkgs/mcp"
)

// A Name identifies a builtin tool.
type Name string

// Builtin tool names.
const (
	Fetch Name = "fetch"
	Echo  Name = "echo"
)

// A Descriptor describes a tool. It is immutable once
// registered.
type Descriptor struct {
	Name        Name
	Description string
	InputSchema *jsonschema.Schema
}

// MCP returns the wire representation of the descriptor.
func (d Descriptor) MCP() mcp.Tool {
	return mcp.Tool{
		Name:        string(d.Name),
		Description: d.Description,
		InputSchema: d.InputSchema,
	}
}

// A HandlerFunc runs a tool with raw arguments that already
// passed schema validation.
type HandlerFunc func(ctx context.Context, args map[string]any) (mcp.Contents, error)

// A Tool binds a Descriptor to its handler.
type Tool struct {
	Descriptor

	handler HandlerFunc
}

// New returns a Tool calling the given handler.
func New(d Descriptor, handler HandlerFunc) Tool {
	return Tool{
		Descriptor: d,
		handler:    handler,
	}
}

// NewTyped returns a Tool whose raw arguments are decoded into
// a value of type A before calling the given handler.
func NewTyped[A any](d Descriptor, handler func(context.Context, A) (mcp.Contents, error)) Tool {

	return New(d, func(ctx context.Context, raw map[string]any) (mcp.Contents, error) {

		var args A

		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &args,
			TagName:     "json",
			ErrorUnused: false,
		})
		if err != nil {
			return nil, fmt.Errorf("unable to build argument decoder: %w", err)
		}

		if err := dec.Decode(raw); err != nil {
			return nil, &InvalidArgumentError{Tool: string(d.Name), Err: err}
		}

		return handler(ctx, args)
	})
}

func stringProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: description,
	}
}
