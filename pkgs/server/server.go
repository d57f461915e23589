package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/sourcegraph/jsonrpc2"
	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.acuvity.ai/minimcp/pkgs/tools"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Methods handled by the Server.
const (
	MethodInitialize  = "initialize"
	MethodPing        = "ping"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
	MethodInitialized = "notifications/initialized"
)

// A Server speaks the MCP protocol over a jsonrpc2.ObjectStream
// and routes tool calls to a tools.Dispatcher.
type Server struct {
	dispatcher *tools.Dispatcher
	impl       mcp.Implementation
	cfg        cfg
}

// New returns a new *Server.
func New(dispatcher *tools.Dispatcher, impl mcp.Implementation, opts ...Option) *Server {

	c := newCfg()
	for _, o := range opts {
		o(&c)
	}

	return &Server{
		dispatcher: dispatcher,
		impl:       impl,
		cfg:        c,
	}
}

// Implementation returns the server implementation info.
func (s *Server) Implementation() mcp.Implementation {
	return s.impl
}

// ToolNames returns the names of the served tools.
func (s *Server) ToolNames() []string {

	descs := s.dispatcher.Registry().List()

	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = string(d.Name)
	}

	return out
}

// Serve runs a session over the given stream. Requests of a session
// are handled one at a time. It blocks until the stream closes or
// the given context is canceled, in which case the stream is closed.
func (s *Server) Serve(ctx context.Context, stream jsonrpc2.ObjectStream) error {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := jsonrpc2.NewConn(
		ctx,
		stream,
		jsonrpc2.HandlerWithError(s.handle).SuppressErrClosed(),
		jsonrpc2.SetLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug)),
	)

	select {
	case <-conn.DisconnectNotify():
		return nil
	case <-ctx.Done():
		if err := conn.Close(); err != nil && !errors.Is(err, jsonrpc2.ErrClosed) {
			return fmt.Errorf("unable to close session: %w", err)
		}
		return nil
	}
}

// Handle handles a single request and returns its result.
// A nil result with a nil error for a notification means
// nothing must be sent back.
func (s *Server) Handle(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	return s.handle(ctx, nil, req)
}

func (s *Server) handle(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (result any, err error) {

	ctx, span := s.cfg.tracer.Start(ctx, req.Method, trace.WithAttributes(attribute.String("rpc.method", req.Method)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered panic while handling request", "method", req.Method, "panic", r, "stack", string(debug.Stack()))
			result = nil
			err = &jsonrpc2.Error{Code: mcp.CodeInternalError, Message: fmt.Sprintf("internal error: %v", r)}
		}
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if req.Notif {
		slog.Debug("Received notification", "method", req.Method)
		return nil, nil
	}

	switch req.Method {

	case MethodInitialize:
		return s.initialize(req)

	case MethodPing:
		return struct{}{}, nil

	case MethodToolsList:
		return mcp.ListToolsResult{Tools: s.dispatcher.Registry().MCPTools()}, nil

	case MethodToolsCall:
		return s.callTool(ctx, req)

	default:
		return nil, &jsonrpc2.Error{
			Code:    mcp.CodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}
}

func (s *Server) initialize(req *jsonrpc2.Request) (any, error) {

	params := mcp.InitializeParams{}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}

	version := mcp.NegotiateProtocolVersion(params.ProtocolVersion)

	slog.Debug("Session initialized",
		"client", params.ClientInfo.Name,
		"client-version", params.ClientInfo.Version,
		"requested", params.ProtocolVersion,
		"negotiated", version,
	)

	return mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities: mcp.ServerCapabilities{
			Tools: &mcp.ToolsCapability{},
		},
		ServerInfo:   s.impl,
		Instructions: s.cfg.instructions,
	}, nil
}

func (s *Server) callTool(ctx context.Context, req *jsonrpc2.Request) (any, error) {

	params := mcp.CallToolParams{}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}

	slog.Debug("call_tool", "name", params.Name, "args", params.Arguments)

	content, err := s.dispatcher.Invoke(ctx, params.Name, params.Arguments)
	if err != nil {

		// Bad calls are protocol errors. Failures of the tool itself are
		// reported in the result so the model can see them.
		if isCallError(err) {
			slog.Debug("Tool call rejected", "name", params.Name, "err", err)
			return nil, toRPCError(params.Name, err)
		}

		slog.Debug("Tool call failed", "name", params.Name, "err", err)
		return mcp.CallToolResult{Content: mcp.NewTextContents(err.Error()), IsError: true}, nil
	}

	return mcp.CallToolResult{Content: content}, nil
}

func decodeParams(req *jsonrpc2.Request, out any) error {

	if req.Params == nil {
		return nil
	}

	if err := json.Unmarshal(*req.Params, out); err != nil {
		return &jsonrpc2.Error{
			Code:    mcp.CodeInvalidParams,
			Message: fmt.Sprintf("invalid params: %s", err),
		}
	}

	return nil
}

func isCallError(err error) bool {
	return errors.Is(err, tools.ErrUnknownTool) ||
		errors.Is(err, tools.ErrMissingArgument) ||
		errors.Is(err, tools.ErrInvalidArgument)
}

func toRPCError(tool string, err error) *jsonrpc2.Error {

	rpcErr := &jsonrpc2.Error{
		Code:    mcp.CodeInternalError,
		Message: err.Error(),
	}

	data := mcp.ErrorData{Kind: mcp.ErrorKindInternal, Tool: tool}

	var (
		unknown *tools.UnknownToolError
		missing *tools.MissingArgumentError
		invalid *tools.InvalidArgumentError
	)

	switch {

	case errors.As(err, &unknown):
		rpcErr.Code = mcp.CodeInvalidParams
		data.Kind = mcp.ErrorKindUnknownTool

	case errors.As(err, &missing):
		rpcErr.Code = mcp.CodeInvalidParams
		data.Kind = mcp.ErrorKindMissingArgument
		data.Argument = missing.Argument

	case errors.As(err, &invalid):
		rpcErr.Code = mcp.CodeInvalidParams
		data.Kind = mcp.ErrorKindInvalidArgument
	}

	rpcErr.SetError(data)

	return rpcErr
}
