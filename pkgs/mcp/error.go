package mcp

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Kinds of tool invocation failures carried
// in ErrorData.Kind.
const (
	ErrorKindUnknownTool     = "unknown_tool"
	ErrorKindMissingArgument = "missing_argument"
	ErrorKindInvalidArgument = "invalid_argument"
	ErrorKindInternal        = "internal"
)

// ErrorData is the machine readable data attached
// to a JSON-RPC error returned by tools/call.
type ErrorData struct {
	Kind     string `json:"kind"`
	Tool     string `json:"tool,omitempty"`
	Argument string `json:"argument,omitempty"`
}
