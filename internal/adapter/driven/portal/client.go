// Package portal implements the PortalClient port as a form POST against the
// captive portal's login page.
package portal

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PortalClient = (*Client)(nil)

// DefaultUserAgent is sent with every login POST.
const DefaultUserAgent = "Mozilla/5.0 (Linux; Android 13; Mobile) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"

const (
	requestTimeout  = 12 * time.Second
	maxBodyRead     = 16 << 10
	maxSummaryRunes = 200
)

// Client posts credentials to a fixed login URL.
type Client struct {
	http      *http.Client
	loginURL  string
	userAgent string
	sanitizer *bluemonday.Policy
}

// NewClient creates a Client with a bounded per-request timeout. Redirects are
// followed, so a portal answering 302 -> 200 counts as success.
func NewClient(loginURL string) *Client {
	return NewClientWithHTTPClient(&http.Client{Timeout: requestTimeout}, loginURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, loginURL string) *Client {
	return &Client{
		http:      httpClient,
		loginURL:  loginURL,
		userAgent: DefaultUserAgent,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// LoginURL returns the endpoint this client posts to.
func (c *Client) LoginURL() string {
	return c.loginURL
}

// Submit performs a single login POST. Only HTTP 200 is success.
func (c *Client) Submit(ctx context.Context, creds model.Credentials) error {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post login form to %s: %w", c.loginURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyRead))
	if err != nil {
		slog.Debug("read portal response body failed",
			"url", c.loginURL, "status", resp.StatusCode, "read_bytes", len(body), "error", err)
	}
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	return &driven.PortalStatusError{
		StatusCode: resp.StatusCode,
		Summary:    c.summarize(body),
	}
}

// summarize strips markup from a portal error page and keeps the leading text.
func (c *Client) summarize(body []byte) string {
	text := html.UnescapeString(string(c.sanitizer.SanitizeBytes(body)))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxSummaryRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxSummaryRunes]) + "…"
}
