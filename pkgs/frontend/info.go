package frontend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.acuvity.ai/elemental"
	"go.acuvity.ai/minimcp/pkgs/info"
)

// GetInfo retrieves the info.Info of the HTTP server
// running at the given base URL.
func GetInfo(ctx context.Context, cl *http.Client, baseURL string) (info.Info, error) {

	inf := info.Info{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/_info", strings.TrimSuffix(baseURL, "/")), nil)
	if err != nil {
		return inf, fmt.Errorf("unable to build info request: %w", err)
	}

	resp, err := cl.Do(req)
	if err != nil {
		return inf, fmt.Errorf("unable to make info request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return inf, fmt.Errorf("invalid info response status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return inf, fmt.Errorf("unable to read info response body: %w", err)
	}

	if err := elemental.Decode(elemental.EncodingTypeJSON, data, &inf); err != nil {
		return inf, fmt.Errorf("unable to decode info response body: %w", err)
	}

	return inf, nil
}
