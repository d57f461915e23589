package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"go.acuvity.ai/minimcp/pkgs/mcp"
)

// EchoArgs are the arguments of the echo tool.
type EchoArgs struct {
	Message string `json:"message"`
}

// NewEcho returns the echo tool.
func NewEcho() Tool {

	return NewTyped(
		Descriptor{
			Name:        Echo,
			Description: "Echo a message",
			InputSchema: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"message"},
				Properties: map[string]*jsonschema.Schema{
					"message": stringProperty("Message to echo"),
				},
			},
		},
		func(_ context.Context, args EchoArgs) (mcp.Contents, error) {
			return mcp.NewTextContents("Tool echo: " + args.Message), nil
		},
	)
}
