// Package notify implements the Notifier port.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

// TermuxCommand is the Termux:API binary that posts Android notifications.
const TermuxCommand = "termux-notification"

const notifyTimeout = 10 * time.Second

// Compile-time interface satisfaction checks.
var (
	_ driven.Notifier = (*Termux)(nil)
	_ driven.Notifier = Log{}
)

// runFunc executes a command and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Termux posts notifications through termux-notification.
type Termux struct {
	bin string
	run runFunc
}

// NewTermux creates a Termux notifier that invokes bin.
func NewTermux(bin string) *Termux {
	return &Termux{bin: bin, run: execRun}
}

// Notify posts one notification. The command is bounded by a short timeout.
func (n *Termux) Notify(ctx context.Context, title, message string) error {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	out, err := n.run(ctx, n.bin, "--title", title, "--content", message)
	if err != nil {
		if detail := strings.TrimSpace(string(out)); detail != "" {
			return fmt.Errorf("run %s: %w: %s", n.bin, err, detail)
		}
		return fmt.Errorf("run %s: %w", n.bin, err)
	}
	return nil
}

// Log writes notifications to slog. It is the fallback outside Termux.
type Log struct{}

// Notify logs the notification at info level.
func (Log) Notify(_ context.Context, title, message string) error {
	slog.Info("notification", "title", title, "message", message)
	return nil
}

// Detect returns a Termux notifier when termux-notification is on PATH and a
// Log notifier otherwise.
func Detect() driven.Notifier {
	return detect(exec.LookPath)
}

func detect(lookPath func(string) (string, error)) driven.Notifier {
	bin, err := lookPath(TermuxCommand)
	if err != nil {
		slog.Debug("termux-notification not found, notifications go to the log")
		return Log{}
	}
	return NewTermux(bin)
}
