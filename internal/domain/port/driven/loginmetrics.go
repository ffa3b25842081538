package driven

import (
	"time"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
)

// LoginMetrics records attempt and outcome counters. A nil LoginMetrics is
// never passed to services; use a no-op implementation instead.
type LoginMetrics interface {
	ObserveAttempt(err error, duration time.Duration)
	ObserveOutcome(outcome model.LoginOutcome)
}
