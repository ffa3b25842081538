package driven

import (
	"context"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
)

// SessionStore defines the driven port for the last-successful-login record.
type SessionStore interface {
	// Save replaces the stored record. LastLogin is stamped by the store.
	Save(ctx context.Context, rec model.SessionRecord) error

	// Load returns (nil, nil) when nothing usable is stored, including when
	// the stored data cannot be parsed.
	Load(ctx context.Context) (*model.SessionRecord, error)

	// Describe renders the stored record for humans, or "never logged in".
	Describe(ctx context.Context) string
}
