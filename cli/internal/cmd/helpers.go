package cmd

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.acuvity.ai/bahamut"
	"go.acuvity.ai/elemental"
	"go.acuvity.ai/minimcp/pkgs/auth"
	"go.acuvity.ai/minimcp/pkgs/frontend"
	"go.acuvity.ai/minimcp/pkgs/info"
	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.acuvity.ai/minimcp/pkgs/metrics"
	"go.acuvity.ai/minimcp/pkgs/scan"
	"go.acuvity.ai/minimcp/pkgs/server"
	"go.acuvity.ai/minimcp/pkgs/tools"
	"go.acuvity.ai/tg/tglib"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

func tlsConfigFromFlags(flags *pflag.FlagSet) (*tls.Config, error) {

	var hasTLS bool

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS13,
	}

	var certPath, keyPath, keyPass string
	var skipVerify bool

	if flags.Name() == "tlsclient" {
		certPath = viper.GetString("tls-client-cert")
		keyPath = viper.GetString("tls-client-key")
		keyPass = viper.GetString("tls-client-key-pass")
		skipVerify = viper.GetBool("tls-client-insecure-skip-verify")
	}
	serverCAPath := viper.GetString("tls-client-server-ca")

	if flags.Name() == "tlsserver" {
		certPath = viper.GetString("tls-server-cert")
		keyPath = viper.GetString("tls-server-key")
		keyPass = viper.GetString("tls-server-key-pass")
	}
	clientCAPath := viper.GetString("tls-server-client-ca")

	if skipVerify {
		slog.Warn("Server certificates validation deactivated. Connection will not be secure")
		tlsConfig.InsecureSkipVerify = true
		hasTLS = true
	}

	if certPath != "" && keyPath != "" {
		x509Cert, x509Key, err := tglib.ReadCertificatePEM(certPath, keyPath, keyPass)
		if err != nil {
			return nil, fmt.Errorf("unable to read server certificate: %w", err)
		}

		tlsCert, err := tglib.ToTLSCertificate(x509Cert, x509Key)
		if err != nil {
			return nil, fmt.Errorf("unable to convert X509 certificate: %w", err)
		}

		tlsConfig.Certificates = []tls.Certificate{tlsCert}
		hasTLS = true
	}

	if serverCAPath != "" && flags.Name() == "tlsclient" {
		data, err := os.ReadFile(serverCAPath) // #nosec: G304
		if err != nil {
			return nil, fmt.Errorf("unable to read trusted ca: %w", err)
		}
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(data)

		tlsConfig.RootCAs = pool
		hasTLS = true
	}

	if clientCAPath != "" && flags.Name() == "tlsserver" {
		data, err := os.ReadFile(clientCAPath) // #nosec: G304
		if err != nil {
			return nil, fmt.Errorf("unable to read client ca: %w", err)
		}
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(data)

		tlsConfig.ClientCAs = pool
		hasTLS = true
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}

	if !hasTLS {
		return nil, nil
	}

	return tlsConfig, nil
}

func startHealthServer(ctx context.Context, g *errgroup.Group) (manager *metrics.Manager) {

	healthListen := viper.GetString("health-listen")

	if healthListen == "" {
		return nil
	}

	manager = metrics.NewManager(healthListen)

	g.Go(func() error {
		if err := manager.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to start metrics manager: %w", err)
		}
		return nil
	})

	slog.Info("Metrics manager configured", "listen", healthListen, "health", "/", "metrics", "/metrics")

	return manager
}

func makeAgentAuth() (a *auth.Auth, err error) {

	user := viper.GetString("agent-user")
	pass := viper.GetString("agent-pass")
	token := viper.GetString("agent-token")

	if (user != "" && pass == "") || (user == "" && pass != "") {
		return a, fmt.Errorf("you must set both --agent-user --agent-pass")
	}

	if user != "" && token != "" {
		return a, fmt.Errorf("if you set --agent-token, you cannot set --agent-user and --agent-pass")
	}

	if token != "" {
		a = auth.NewBearerAuth(token)
	} else if user != "" && pass != "" {
		a = auth.NewBasicAuth(user, pass)
	}

	if a != nil {
		slog.Info("Agent credential configured", "auth", a)
	}

	return a, nil
}

func makeCORSPolicy() *bahamut.CORSPolicy {

	origin := viper.GetString("cors-origin")

	if origin == "mirror" {
		origin = bahamut.CORSOriginMirror
	}

	return &bahamut.CORSPolicy{
		AllowOrigin:      origin,
		AllowCredentials: true,
		MaxAge:           1500,
		AllowHeaders: []string{
			"Authorization",
			"Accept",
			"Content-Type",
			"Cache-Control",
			"Cookie",
		},
		AllowMethods: []string{
			"GET",
			"POST",
			"OPTIONS",
		},
	}
}

func mtlsMode(tlsCfg *tls.Config) string {

	if tlsCfg == nil {
		return "NoClientCert"
	}

	return tlsCfg.ClientAuth.String()
}

func makeSBOM() (scan.SBOM, error) {

	sbomFile := viper.GetString("sbom")

	if sbomFile == "" {
		return scan.SBOM{}, nil
	}

	sbom, err := scan.LoadSBOM(sbomFile)
	if err != nil {
		return sbom, fmt.Errorf("unable load sbom file: %w", err)
	}

	slog.Info("SBOM configured", "tools", len(sbom.Tools))

	return sbom, nil
}

func makeTracer(ctx context.Context, name string) (trace.Tracer, error) {

	var err error
	var exp sdktrace.SpanExporter

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if e := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); e != "" {
		endpoint = e
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(
			resource.NewSchemaless(
				attribute.String("service.name", "minimcp"),
			),
		),
	}

	if endpoint != "" {
		proto := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")
		if p := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"); p != "" {
			proto = p
		}

		if proto == "" {
			proto = "http/protobuf"
		}

		if proto == "grpc" {
			exp, err = otlptracegrpc.New(ctx)
		} else {
			exp, err = otlptracehttp.New(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OTEL %s exporter: %w", proto, err)
		}

		slog.Info("OTEL exporter configured", "proto", proto)
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = tp.Shutdown(sctx)
	}()

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Tracer(name), nil
}

func makeServer(name string, mm *metrics.Manager, tracer trace.Tracer) *server.Server {

	var fetchOpts []tools.OptFetch
	if ua := viper.GetString("fetch-user-agent"); ua != "" {
		fetchOpts = append(fetchOpts, tools.OptFetchUserAgent(ua))
	}

	dispatcher := tools.NewDispatcher(
		tools.Builtin(fetchOpts...),
		tools.OptDispatcherMetricsManager(mm),
		tools.OptDispatcherTracer(tracer),
	)

	return server.New(
		dispatcher,
		mcp.Implementation{Name: name, Version: Version()},
		server.OptTracer(tracer),
	)
}

func printJSON(v any) error {

	data, err := elemental.Encode(elemental.EncodingTypeJSON, v)
	if err != nil {
		return fmt.Errorf("unable to encode output: %w", err)
	}

	fmt.Println(string(data))

	return nil
}

// authTransport adds the Authorization header
// to every request.
type authTransport struct {
	auth *auth.Auth
	next http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	t.auth.Apply(req.Header)
	return t.next.RoundTrip(req)
}

func makeHTTPClient(tlsConfig *tls.Config, a *auth.Auth) *http.Client {

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	var rt http.RoundTripper = otelhttp.NewTransport(transport)
	if a != nil {
		rt = &authTransport{auth: a, next: rt}
	}

	return &http.Client{Transport: rt}
}

func serverInfo(ctx context.Context, cl *http.Client, baseURL string) info.Info {

	inf, err := frontend.GetInfo(ctx, cl, baseURL)
	if err != nil {
		slog.Debug("Unable to retrieve server info", "err", err)
		return info.Info{}
	}

	slog.Debug("Server info", "server", inf.Server, "version", inf.Version, "tools", inf.Tools, "auth", inf.AuthRequired)

	return inf
}
