package tools

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"go.acuvity.ai/minimcp/pkgs/mcp"
)

type entry struct {
	tool     Tool
	resolved *jsonschema.Resolved
}

// A Registry holds an ordered, immutable set of tools.
// It is safe for concurrent use as nothing mutates it
// after construction.
type Registry struct {
	entries []entry
	index   map[Name]int
}

// NewRegistry returns a *Registry holding the given tools
// in the given order. It returns an error if two tools share
// the same name or if a schema cannot be resolved.
func NewRegistry(tools ...Tool) (*Registry, error) {

	r := &Registry{
		entries: make([]entry, 0, len(tools)),
		index:   make(map[Name]int, len(tools)),
	}

	for _, t := range tools {

		if t.Name == "" {
			return nil, fmt.Errorf("tool name must not be empty")
		}

		if _, ok := r.index[t.Name]; ok {
			return nil, fmt.Errorf("tool '%s' already registered", t.Name)
		}

		if t.InputSchema == nil {
			return nil, fmt.Errorf("tool '%s' has no input schema", t.Name)
		}

		resolved, err := t.InputSchema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve input schema of tool '%s': %w", t.Name, err)
		}

		r.index[t.Name] = len(r.entries)
		r.entries = append(r.entries, entry{tool: t, resolved: resolved})
	}

	return r, nil
}

// List returns the descriptors in registration order.
func (r *Registry) List() []Descriptor {

	out := make([]Descriptor, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.tool.Descriptor
	}

	return out
}

// MCPTools returns the wire representation of List.
func (r *Registry) MCPTools() mcp.Tools {

	out := make(mcp.Tools, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.tool.MCP()
	}

	return out
}

// Lookup returns the tool with the given name.
func (r *Registry) Lookup(name string) (Tool, bool) {

	e, ok := r.lookup(name)
	if !ok {
		return Tool{}, false
	}

	return e.tool, true
}

func (r *Registry) lookup(name string) (entry, bool) {

	i, ok := r.index[Name(name)]
	if !ok {
		return entry{}, false
	}

	return r.entries[i], true
}
