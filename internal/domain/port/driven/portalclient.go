package driven

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
)

// PortalStatusError is returned by PortalClient.Submit when the portal answered
// with anything other than HTTP 200. Summary is a short, tag-free excerpt of the
// response body suitable for log lines.
type PortalStatusError struct {
	StatusCode int
	Summary    string
}

func (e *PortalStatusError) Error() string {
	if e.Summary == "" {
		return fmt.Sprintf("portal returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("portal returned HTTP %d: %s", e.StatusCode, e.Summary)
}

// PortalClient defines the driven port for the captive portal login form.
type PortalClient interface {
	// Submit performs exactly one login POST. It returns nil only when the
	// portal answered 200, a *PortalStatusError for any other status, and a
	// wrapped transport error when no response was received.
	Submit(ctx context.Context, creds model.Credentials) error
}
