package scan

import (
	"context"
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/sourcegraph/jsonrpc2"
	"go.acuvity.ai/minimcp/pkgs/mcp"
)

// ListTools initializes a session over the given connection
// and returns the tools the server exposes.
func ListTools(ctx context.Context, conn *jsonrpc2.Conn, impl mcp.Implementation) (mcp.Tools, error) {

	ir := mcp.InitializeResult{}
	if err := conn.Call(
		ctx,
		"initialize",
		mcp.InitializeParams{ProtocolVersion: mcp.LatestProtocolVersion, ClientInfo: impl},
		&ir,
		jsonrpc2.PickID(newID()),
	); err != nil {
		return nil, fmt.Errorf("unable to send initialize request: %w", err)
	}

	if err := conn.Notify(ctx, "notifications/initialized", nil); err != nil {
		return nil, fmt.Errorf("unable to send initialized notification: %w", err)
	}

	res := mcp.ListToolsResult{}
	if err := conn.Call(ctx, "tools/list", struct{}{}, &res, jsonrpc2.PickID(newID())); err != nil {
		return nil, fmt.Errorf("unable to send tools/list request: %w", err)
	}

	return res.Tools, nil
}

// HashTools will generate Hashes for the given mcp.Tools.
// Tools and arguments are hashed by description.
func HashTools(tools mcp.Tools) (Hashes, error) {

	hashes := Hashes{}
	for _, tool := range tools {

		if tool.Name == "" {
			return nil, fmt.Errorf("unable to hash tool with no name")
		}

		h := Hash{
			Name: tool.Name,
			Hash: sum(tool.Description),
		}

		if tool.InputSchema != nil {
			for pk, pv := range tool.InputSchema.Properties {

				if pv == nil {
					continue
				}

				h.Params = append(h.Params, Hash{
					Name: pk,
					Hash: sum(pv.Description),
				})
			}
		}

		slices.SortFunc(h.Params, func(a Hash, b Hash) int {
			return strings.Compare(a.Name, b.Name)
		})

		hashes = append(hashes, h)
	}

	slices.SortFunc(hashes, func(a Hash, b Hash) int {
		return strings.Compare(a.Name, b.Name)
	})

	return hashes, nil
}

func sum(s string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(s)))
}

func newID() jsonrpc2.ID {
	return jsonrpc2.ID{Str: uuid.Must(uuid.NewV7()).String(), IsString: true}
}
