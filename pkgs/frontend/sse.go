package frontend

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	"go.acuvity.ai/elemental"
	"go.acuvity.ai/minimcp/pkgs/auth"
	"go.acuvity.ai/minimcp/pkgs/frontend/internal/session"
	"go.acuvity.ai/minimcp/pkgs/info"
	"go.acuvity.ai/minimcp/pkgs/internal/cors"
	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.acuvity.ai/minimcp/pkgs/server"
	"go.acuvity.ai/wsc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Transport names.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportWS    = "ws"
)

var _ Frontend = (*sseFrontend)(nil)

type sseFrontend struct {
	server   *server.Server
	http     *http.Server
	sessions *session.Manager
	handler  http.Handler
	cfg      sseCfg
}

// NewSSE returns a new frontend.Frontend that will listen to the given addr
// and serve the given server.Server over HTTP.
//
// Agents open a session with GET on the sse endpoint. The first event
// sent is the endpoint event, holding the URL where the agent must POST
// its messages. Responses are then sent as message events until the
// agent disconnects. When enabled, every websocket opened on the
// websocket endpoint is a session on its own.
//
// If tlsConfig is nil, the server will run as plain HTTP.
func NewSSE(addr string, srv *server.Server, tlsConfig *tls.Config, opts ...OptSSE) Frontend {

	cfg := newSSECfg()
	for _, o := range opts {
		o(&cfg)
	}

	p := newSSE(srv, cfg)

	p.http = &http.Server{
		Addr:              addr,
		Handler:           p.handler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: time.Second,
	}

	return p
}

func newSSE(srv *server.Server, cfg sseCfg) *sseFrontend {

	p := &sseFrontend{
		server:   srv,
		sessions: session.NewManager(),
		cfg:      cfg,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(p.measure)
	r.Use(cors.Middleware(cfg.corsPolicy))

	r.Get(cfg.sseEndpoint, p.handleSSE)
	r.Post(strings.TrimSuffix(cfg.messagesEndpoint, "/")+"/*", p.handleMessages)
	r.Post(strings.TrimSuffix(cfg.messagesEndpoint, "/"), p.handleMessages)
	if cfg.wsEndpoint != "" {
		r.Get(cfg.wsEndpoint, p.handleWS)
	}
	r.Get("/_info", p.handleInfo)

	p.handler = otelhttp.NewHandler(r, "frontend")

	return p
}

// Start starts the frontend. It will block until the given context cancels or
// until the server returns an error.
func (p *sseFrontend) Start(ctx context.Context) error {

	errCh := make(chan error, 1)

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.http.BaseContext = func(net.Listener) context.Context { return sctx }
	p.http.RegisterOnShutdown(func() {
		cancel()
		p.sessions.CloseAll()
	})

	if mm := p.cfg.metricsManager; mm != nil {
		p.http.ConnState = func(conn net.Conn, state http.ConnState) {
			switch state {
			case http.StateNew:
				mm.RegisterTCPConnection()
			case http.StateClosed, http.StateHijacked:
				mm.UnregisterTCPConnection()
			}
		}
	}

	go func() {
		if p.http.TLSConfig == nil {
			err := p.http.ListenAndServe()
			if err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					slog.Error("unable to start server", "err", err)
				}
			}
			errCh <- err
		} else {
			err := p.http.ListenAndServeTLS("", "")
			if err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					slog.Error("unable to start tls server", "err", err)
				}
			}
			errCh <- err
		}
	}()

	select {
	case <-sctx.Done():
	case err := <-errCh:
		return err
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	return p.http.Shutdown(stopCtx)
}

// ServeHTTP is the main HTTP handler. If you decide to not start the built-in server
// you can use this function directly into your own *http.Server.
func (p *sseFrontend) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	p.handler.ServeHTTP(w, req)
}

func (p *sseFrontend) handleSSE(w http.ResponseWriter, req *http.Request) {

	ctx, span := p.cfg.tracer.Start(req.Context(), "sse")
	defer span.End()

	if !p.authenticate(req) {
		hErr(w, "Unauthorized", http.StatusUnauthorized, span)
		return
	}

	sid := uuid.Must(uuid.NewV6()).String()
	log := slog.With("sid", sid)

	log.Debug("Handling new SSE", "client", req.RemoteAddr)

	ch := make(chan []byte)

	s, err := p.sessions.Open(sid, session.HashCredentials(req.Header["Authorization"]), ch)
	if err != nil {
		hErr(w, fmt.Sprintf("Unable to open session: %s", err), http.StatusInternalServerError, span)
		return
	}
	defer p.sessions.Release(sid, ch)

	s.OnInvalidMessage(invalidMessageReply)

	if mm := p.cfg.metricsManager; mm != nil {
		mm.RegisterSession(TransportSSE)
		defer mm.UnregisterSession(TransportSSE)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	if req.ProtoMajor == 1 {
		w.Header().Set("Connection", "keep-alive")
	}

	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)

	if _, err := fmt.Fprintf(w, "event: endpoint\ndata: %s?session_id=%s\n\n", p.cfg.messagesEndpoint, sid); err != nil {
		log.Error("Unable to send endpoint event", "err", err)
		return
	}

	if err := rc.Flush(); err != nil {
		log.Error("Unable to flush endpoint event", "err", err)
		return
	}

	serveCh := make(chan error, 1)
	go func() { serveCh <- p.server.Serve(ctx, s) }()

	for {

		select {

		case <-ctx.Done():
			log.Debug("Client is gone")
			return

		case <-s.Done():
			log.Debug("Session is closed")
			return

		case err := <-serveCh:
			if err != nil {
				log.Error("Session ended with error", "err", err)
			}
			return

		case data := <-ch:

			log.Debug("Sending message", "data", string(data))

			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", string(data)); err != nil {
				log.Error("Unable to write event", "err", err)
				return
			}

			if err := rc.Flush(); err != nil {
				log.Error("Unable to flush event", "err", err)
				return
			}
		}
	}
}

func (p *sseFrontend) handleMessages(w http.ResponseWriter, req *http.Request) {

	ctx, span := p.cfg.tracer.Start(req.Context(), "message")
	defer span.End()

	sid := req.URL.Query().Get("session_id")
	if sid == "" {
		hErr(w, "session_id is required", http.StatusBadRequest, span)
		return
	}

	log := slog.With("sid", sid)

	s := p.sessions.Acquire(sid, nil)
	if s == nil {
		hErr(w, "Could not find session", http.StatusNotFound, span)
		return
	}
	defer p.sessions.Release(sid, nil)

	if !p.authenticate(req) || !s.ValidateHash(session.HashCredentials(req.Header["Authorization"])) {
		hErr(w, "Unauthorized", http.StatusUnauthorized, span)
		return
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		hErr(w, fmt.Sprintf("Unable to read body: %s", err), http.StatusBadRequest, span)
		return
	}
	defer func() { _ = req.Body.Close() }()

	if err := checkMessage(data); err != nil {
		hErr(w, fmt.Sprintf("Could not parse message: %s", err), http.StatusBadRequest, span)
		return
	}

	log.Debug("Message data", "msg", string(data))

	if err := s.Write(ctx, data); err != nil {
		hErr(w, fmt.Sprintf("Unable to deliver message: %s", err), http.StatusGone, span)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("Accepted"))
}

// rpcEnvelope holds the fields shared by JSON-RPC requests,
// notifications and responses.
type rpcEnvelope struct {
	JSONRPC string           `json:"jsonrpc"`
	Method  string           `json:"method"`
	ID      *json.RawMessage `json:"id"`
	Result  *json.RawMessage `json:"result"`
	Error   *json.RawMessage `json:"error"`
}

// checkMessage makes sure data is a single JSON-RPC 2.0 request,
// notification or response before it is handed to a session.
func checkMessage(data []byte) error {

	env := rpcEnvelope{}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("not a json-rpc object: %w", err)
	}

	if env.JSONRPC != "2.0" {
		return fmt.Errorf("unsupported jsonrpc version '%s'", env.JSONRPC)
	}

	switch {
	case env.Method != "":
		return nil
	case env.ID != nil && (env.Result != nil || env.Error != nil):
		return nil
	default:
		return fmt.Errorf("message is neither a request nor a response")
	}
}

func (p *sseFrontend) handleWS(w http.ResponseWriter, req *http.Request) {

	ctx, span := p.cfg.tracer.Start(req.Context(), "ws")
	defer span.End()

	if !p.authenticate(req) {
		hErr(w, "Unauthorized", http.StatusUnauthorized, span)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		slog.Error("Unable to upgrade to websocket", "err", err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	conn, err := wsc.Accept(ctx, ws, wsc.Config{WriteChanSize: 64, ReadChanSize: 16})
	if err != nil {
		slog.Error("Unable to accept websocket", "err", err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	if mm := p.cfg.metricsManager; mm != nil {
		mm.RegisterSession(TransportWS)
		defer mm.UnregisterSession(TransportWS)
	}

	slog.Debug("Handling new websocket", "client", req.RemoteAddr)

	if err := p.server.Serve(ctx, newWSStream(conn)); err != nil {
		slog.Error("Websocket session ended with error", "err", err)
	}
}

func (p *sseFrontend) handleInfo(w http.ResponseWriter, req *http.Request) {

	impl := p.server.Implementation()

	transports := []string{TransportSSE}
	if p.cfg.wsEndpoint != "" {
		transports = append(transports, TransportWS)
	}

	inf := info.Info{
		Server:           impl.Name,
		Version:          impl.Version,
		Transports:       transports,
		Tools:            p.server.ToolNames(),
		ProtocolVersions: slices.Clone(mcp.SupportedProtocolVersions),
		AuthRequired:     p.cfg.agentAuth != nil,
	}

	data, err := elemental.Encode(elemental.EncodingTypeJSON, inf)
	if err != nil {
		http.Error(w, fmt.Sprintf("unable to encode info: %s", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (p *sseFrontend) authenticate(req *http.Request) bool {

	if p.cfg.agentAuth == nil {
		return true
	}

	a, ok := auth.FromRequest(req)
	if !ok {
		return false
	}

	return a.Equal(p.cfg.agentAuth)
}

func (p *sseFrontend) measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {

		mm := p.cfg.metricsManager
		if mm == nil {
			next.ServeHTTP(w, req)
			return
		}

		m := mm.MeasureRequest(req.Method, req.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		m(code)
	})
}

func hErr(w http.ResponseWriter, message string, code int, span trace.Span) {
	http.Error(w, message, code)
	span.SetStatus(codes.Error, message)
}
