// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

const (
	// MaxAttempts is the attempt budget of one login invocation.
	MaxAttempts = 3
	// RetryDelay is the fixed pause between failed attempts.
	RetryDelay = 5 * time.Second
	// EventTimeLayout is the bracketed timestamp prefix of event log lines.
	EventTimeLayout = "1/2/2006, 3:04:05 PM"

	notificationTitle = "Hotspot Login"
)

// LoginOption customizes a LoginService.
type LoginOption func(*LoginService)

// WithRetryDelay overrides the pause between attempts.
func WithRetryDelay(d time.Duration) LoginOption {
	return func(s *LoginService) { s.retryDelay = d }
}

// WithClock overrides the clock used for outcome and event timestamps.
func WithClock(now func() time.Time) LoginOption {
	return func(s *LoginService) { s.now = now }
}

// WithNotifier sets the notifier used when notifications are enabled.
func WithNotifier(n driven.Notifier) LoginOption {
	return func(s *LoginService) { s.notifier = n }
}

// WithMetrics sets the attempt and outcome recorder.
func WithMetrics(m driven.LoginMetrics) LoginOption {
	return func(s *LoginService) { s.metrics = m }
}

// LoginService runs the bounded login procedure against the portal and
// records what happened. Concurrent callers share one in-flight run.
type LoginService struct {
	portal   driven.PortalClient
	probe    driven.ConnectivityProbe
	sessions driven.SessionStore
	events   driven.EventLog
	notifier driven.Notifier
	metrics  driven.LoginMetrics

	retryDelay time.Duration
	now        func() time.Time

	group singleflight.Group
}

// NewLoginService creates a LoginService with the required collaborators.
func NewLoginService(
	portal driven.PortalClient,
	probe driven.ConnectivityProbe,
	sessions driven.SessionStore,
	events driven.EventLog,
	opts ...LoginOption,
) *LoginService {
	s := &LoginService{
		portal:     portal,
		probe:      probe,
		sessions:   sessions,
		events:     events,
		notifier:   nopNotifier{},
		metrics:    nopMetrics{},
		retryDelay: RetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login performs up to MaxAttempts form submissions (one when AutoRetry is
// off) and returns the outcome. Failures are reported in the outcome, never as
// errors. A call made while another with the same settings is in flight waits
// for and returns that call's outcome.
func (s *LoginService) Login(ctx context.Context, creds model.Credentials, settings model.Settings) model.LoginOutcome {
	v, _, shared := s.group.Do(runKey(settings), func() (any, error) {
		return s.login(ctx, creds, settings), nil
	})
	outcome := v.(model.LoginOutcome)
	if shared {
		slog.Debug("joined in-flight login", "run_id", outcome.RunID)
	}
	return outcome
}

// runKey groups concurrent calls whose settings lead to the same procedure.
// A run that skips the connectivity check never joins one that performs it.
func runKey(settings model.Settings) string {
	return fmt.Sprintf("login:check=%t:retry=%t", settings.CheckConnection, settings.AutoRetry)
}

func (s *LoginService) login(ctx context.Context, creds model.Credentials, settings model.Settings) model.LoginOutcome {
	runID := uuid.NewString()
	log := slog.With("run_id", runID, "username", creds.Username)

	if settings.CheckConnection && !s.probe.IsConnected(ctx) {
		log.Warn("no internet connectivity, login skipped")
		s.event(settings, "No internet connection detected, skipping login")
		return s.finish(ctx, log, settings, model.LoginOutcome{
			Message:   "no internet connectivity",
			Timestamp: s.now(),
			Reason:    model.ReasonNoConnectivity,
			RunID:     runID,
		})
	}

	maxAttempts := MaxAttempts
	if !settings.AutoRetry {
		maxAttempts = 1
	}

	var (
		attempt int
		lastErr error
	)
	operation := func() error {
		attempt++
		s.event(settings, fmt.Sprintf("Login attempt %d/%d for %s", attempt, maxAttempts, creds.Username))

		start := time.Now()
		err := s.portal.Submit(ctx, creds)
		s.metrics.ObserveAttempt(err, time.Since(start))
		if err != nil {
			lastErr = err
			log.Warn("login attempt failed", "attempt", attempt, "error", err)
			s.event(settings, fmt.Sprintf("Attempt %d failed: %v", attempt, err))
			return err
		}
		return nil
	}
	onRetry := func(_ error, wait time.Duration) {
		s.event(settings, fmt.Sprintf("Retrying in %s", wait))
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryDelay), uint64(maxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotify(operation, policy, onRetry); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		reason := model.ReasonTransport
		var statusErr *driven.PortalStatusError
		if errors.As(lastErr, &statusErr) {
			reason = model.ReasonPortalRejected
		}
		s.event(settings, fmt.Sprintf("Login failed after %d attempt(s)", attempt))
		return s.finish(ctx, log, settings, model.LoginOutcome{
			Message:   fmt.Sprintf("login failed after %d attempt(s): %v", attempt, lastErr),
			Attempt:   attempt,
			Timestamp: s.now(),
			Reason:    reason,
			RunID:     runID,
		})
	}

	outcome := model.LoginOutcome{
		Success:   true,
		Message:   fmt.Sprintf("logged in as %s", creds.Username),
		Attempt:   attempt,
		Timestamp: s.now(),
		Reason:    model.ReasonSuccess,
		RunID:     runID,
	}
	s.event(settings, fmt.Sprintf("Login successful on attempt %d", attempt))

	rec := model.SessionRecord{Username: creds.Username, LoginTime: outcome.Timestamp, Attempt: attempt}
	if err := s.sessions.Save(ctx, rec); err != nil {
		log.Warn("session save failed", "error", err)
	}

	return s.finish(ctx, log, settings, outcome)
}

// finish reports a final outcome to metrics, slog and, when enabled, the notifier.
func (s *LoginService) finish(ctx context.Context, log *slog.Logger, settings model.Settings, outcome model.LoginOutcome) model.LoginOutcome {
	s.metrics.ObserveOutcome(outcome)

	if outcome.Success {
		log.Info("login succeeded", "attempt", outcome.Attempt)
	} else {
		log.Warn("login failed", "attempt", outcome.Attempt, "reason", outcome.Reason, "message", outcome.Message)
	}

	if settings.EnableNotifications {
		if err := s.notifier.Notify(ctx, notificationTitle, notificationText(outcome)); err != nil {
			log.Debug("notification failed", "error", err)
		}
	}
	return outcome
}

// event appends a timestamped line to the event log when logging to file is enabled.
func (s *LoginService) event(settings model.Settings, msg string) {
	if !settings.LogToFile {
		return
	}
	s.events.Append(FormatEvent(s.now(), msg))
}

// FormatEvent renders an event log line.
func FormatEvent(t time.Time, msg string) string {
	return "[" + t.Local().Format(EventTimeLayout) + "] " + msg
}

func notificationText(outcome model.LoginOutcome) string {
	if outcome.Success {
		return fmt.Sprintf("Login successful (attempt %d)", outcome.Attempt)
	}
	return "Login failed: " + outcome.Message
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string) error { return nil }

type nopMetrics struct{}

func (nopMetrics) ObserveAttempt(error, time.Duration) {}
func (nopMetrics) ObserveOutcome(model.LoginOutcome)   {}
