package frontend

import (
	"context"
	"io"
	"log/slog"

	"go.acuvity.ai/minimcp/pkgs/server"
)

var _ Frontend = (*stdioFrontend)(nil)

type stdioFrontend struct {
	server *server.Server
	cfg    stdioCfg
}

// NewStdio returns a new Frontend serving a single session.
// Agents write requests to stdin, one JSON message per line, and
// read responses from stdout. Nothing else must be written to stdout.
func NewStdio(srv *server.Server, opts ...OptStdio) Frontend {

	cfg := newStdioCfg()
	for _, o := range opts {
		o(&cfg)
	}

	return &stdioFrontend{
		server: srv,
		cfg:    cfg,
	}
}

// Start starts the session. It will run until the given context is canceled
// or until stdin closes.
func (p *stdioFrontend) Start(ctx context.Context) error {

	var closer io.Closer
	if c, ok := p.cfg.in.(io.Closer); ok {
		closer = c
	}

	if mm := p.cfg.metricsManager; mm != nil {
		mm.RegisterSession("stdio")
		defer mm.UnregisterSession("stdio")
	}

	slog.Debug("Stdio session started")
	defer slog.Debug("Stdio session ended")

	return p.server.Serve(ctx, newLineStream(p.cfg.in, p.cfg.out, closer))
}
