package driven

import (
	"context"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
)

// ProfileSource yields the current credentials and settings. Callers invoke it
// before each login so configuration edits take effect without a restart.
type ProfileSource interface {
	Profile(ctx context.Context) (model.Profile, error)
}
