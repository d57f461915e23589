package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"go.acuvity.ai/minimcp/pkgs/mcp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultUserAgent is the User-Agent sent by fetch.
const DefaultUserAgent = "MCP Test Server (github.com/modelcontextprotocol/python-sdk)"

// FetchArgs are the arguments of the fetch tool.
type FetchArgs struct {
	URL string `json:"url"`
}

type fetchCfg struct {
	client    *http.Client
	userAgent string
}

func newFetchCfg() fetchCfg {
	return fetchCfg{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		userAgent: DefaultUserAgent,
	}
}

// OptFetch are options that can be given to NewFetch().
type OptFetch func(*fetchCfg)

// OptFetchHTTPClient sets the *http.Client used to fetch.
// The client redirect policy is used as is.
func OptFetchHTTPClient(client *http.Client) OptFetch {
	return func(cfg *fetchCfg) {
		if client != nil {
			cfg.client = client
		}
	}
}

// OptFetchUserAgent sets the User-Agent sent with every request.
func OptFetchUserAgent(ua string) OptFetch {
	return func(cfg *fetchCfg) {
		cfg.userAgent = ua
	}
}

// NewFetch returns the fetch tool.
func NewFetch(opts ...OptFetch) Tool {

	cfg := newFetchCfg()
	for _, o := range opts {
		o(&cfg)
	}

	return NewTyped(
		Descriptor{
			Name:        Fetch,
			Description: "Fetches a website and returns its content",
			InputSchema: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"url"},
				Properties: map[string]*jsonschema.Schema{
					"url": stringProperty("URL to fetch"),
				},
			},
		},
		func(ctx context.Context, args FetchArgs) (mcp.Contents, error) {
			return fetch(ctx, cfg, args.URL)
		},
	)
}

func fetch(ctx context.Context, cfg fetchCfg, url string) (mcp.Contents, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build request: %w", err)
	}

	req.Header.Set("User-Agent", cfg.userAgent)

	resp, err := cfg.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch '%s': %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Debug("Fetched url", "url", url, "final", resp.Request.URL.String(), "status", resp.StatusCode)

	// Redirects are followed by the client. Anything left outside of 2xx,
	// such as a 300 without Location or a 304, is an upstream failure.
	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return nil, &UpstreamHTTPError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}

	return mcp.NewTextContents(string(data)), nil
}
