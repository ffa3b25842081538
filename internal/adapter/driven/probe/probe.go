// Package probe implements the ConnectivityProbe port with a plain HTTP GET.
package probe

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ConnectivityProbe = (*HTTPProbe)(nil)

const probeTimeout = 8 * time.Second

// HTTPProbe checks connectivity by fetching a well-known URL. Behind an
// unauthenticated captive portal the request either fails or is answered by
// the portal with a redirect, so only 2xx counts as connected. Redirects are
// not followed.
type HTTPProbe struct {
	http *http.Client
	url  string
}

// New creates an HTTPProbe against url with a bounded timeout.
func New(url string) *HTTPProbe {
	return NewWithHTTPClient(&http.Client{Timeout: probeTimeout}, url)
}

// NewWithHTTPClient creates an HTTPProbe using a copy of httpClient with
// redirect following disabled. Intended for tests.
func NewWithHTTPClient(httpClient *http.Client, url string) *HTTPProbe {
	c := *httpClient
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &HTTPProbe{http: &c, url: url}
}

// URL returns the probed address.
func (p *HTTPProbe) URL() string {
	return p.url
}

// IsConnected reports whether the probe URL answered with a 2xx status.
func (p *HTTPProbe) IsConnected(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		slog.Debug("connectivity probe request invalid", "url", p.url, "error", err)
		return false
	}

	resp, err := p.http.Do(req)
	if err != nil {
		slog.Debug("connectivity probe failed", "url", p.url, "error", err)
		return false
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()

	connected := resp.StatusCode >= 200 && resp.StatusCode < 300
	slog.Debug("connectivity probe", "url", p.url, "status", resp.StatusCode, "connected", connected)
	return connected
}
