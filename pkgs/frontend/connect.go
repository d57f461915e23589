package frontend

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sourcegraph/jsonrpc2"
	"go.acuvity.ai/minimcp/pkgs/auth"
	"go.acuvity.ai/wsc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// ConnectWS connects to the websocket endpoint at the given URL
// and returns a jsonrpc2.ObjectStream to talk to the server.
func ConnectWS(ctx context.Context, wsURL string, tlsConfig *tls.Config, a *auth.Auth) (jsonrpc2.ObjectStream, error) {

	slog.Debug("New websocket connection",
		"url", wsURL,
		"using-auth", a != nil,
		"tls", strings.HasPrefix(wsURL, "wss://"),
		"tls-config", tlsConfig != nil,
	)

	if a != nil && !strings.HasPrefix(wsURL, "wss://") {
		slog.Warn("Security: sending credentials over the network in clear-text")
	}

	wsconfig := wsc.Config{
		WriteChanSize: 64,
		ReadChanSize:  16,
		TLSConfig:     tlsConfig,
		Headers:       http.Header{},
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(wsconfig.Headers))

	a.Apply(wsconfig.Headers)

	ws, resp, err := wsc.Connect(ctx, wsURL, wsconfig)

	if err != nil {

		var data []byte
		var code int
		status := "<empty>"

		if resp != nil {
			data, _ = io.ReadAll(resp.Body)
			_ = resp.Body.Close()

			code = resp.StatusCode
			status = resp.Status
		}

		slog.Debug("WS connection failed", "code", code, "status", status, "data", strings.TrimSpace(string(data)), "err", err)

		return nil, fmt.Errorf("unable to connect to the websocket. code: %d, status: %s: %w", code, status, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		return nil, fmt.Errorf("invalid response from the server (must be 101): %s", resp.Status)
	}

	return newWSStream(ws), nil
}
