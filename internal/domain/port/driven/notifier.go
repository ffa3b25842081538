package driven

import "context"

// Notifier surfaces a login result to the user outside the terminal, for
// example as an Android notification. Errors are informational only.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}
