package driven

import "context"

// ConnectivityProbe reports whether the device currently reaches the internet.
// Implementations never fail: every error collapses to false.
type ConnectivityProbe interface {
	IsConnected(ctx context.Context) bool
}
