package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

// Default scheduler timings.
const (
	DefaultLoginInterval = 15 * time.Minute
	DefaultCheckInterval = 5 * time.Minute
	DefaultRestartDelay  = 2 * time.Second
)

// Authenticator runs one login invocation. *LoginService satisfies it.
type Authenticator interface {
	Login(ctx context.Context, creds model.Credentials, settings model.Settings) model.LoginOutcome
}

// SchedulerConfig holds the timer intervals. Zero values fall back to the
// defaults; a negative RestartDelay disables the restart pause.
type SchedulerConfig struct {
	LoginInterval time.Duration
	CheckInterval time.Duration
	RestartDelay  time.Duration

	// OnPanic receives a panic recovered from a loop goroutine. The loop that
	// panicked has already exited when it is called.
	OnPanic func(*PanicError)
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.LoginInterval <= 0 {
		c.LoginInterval = DefaultLoginInterval
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = DefaultCheckInterval
	}
	if c.RestartDelay < 0 {
		c.RestartDelay = 0
	} else if c.RestartDelay == 0 {
		c.RestartDelay = DefaultRestartDelay
	}
	return c
}

// SchedulerStatus is a point-in-time view of the scheduler.
type SchedulerStatus struct {
	State       model.ServiceState
	StartedAt   time.Time
	NextLoginAt time.Time
	LastOutcome *model.LoginOutcome
}

// Scheduler owns the periodic re-login loop and the connectivity watch loop.
// It is either stopped or running; at most one of each loop exists at a time.
type Scheduler struct {
	auth     Authenticator
	profiles driven.ProfileSource
	probe    driven.ConnectivityProbe
	cfg      SchedulerConfig

	mu          sync.Mutex
	state       model.ServiceState
	cancel      context.CancelFunc
	startedAt   time.Time
	nextLoginAt time.Time
	lastOutcome *model.LoginOutcome
	lastProfile model.Profile

	wg sync.WaitGroup
}

// NewScheduler creates a stopped Scheduler.
func NewScheduler(
	auth Authenticator,
	profiles driven.ProfileSource,
	probe driven.ConnectivityProbe,
	cfg SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		auth:     auth,
		profiles: profiles,
		probe:    probe,
		cfg:      cfg.withDefaults(),
		state:    model.StateStopped,
	}
}

// Start loads the profile and launches the loops. The first login runs
// immediately in the background. A profile error leaves the scheduler stopped
// and is returned. Calling Start while running only logs a warning.
//
// The loops are detached from ctx; only Stop ends them.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == model.StateRunning {
		slog.Warn("scheduler already running")
		return nil
	}

	profile, err := s.profiles.Profile(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	s.lastProfile = profile

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.state = model.StateRunning
	s.startedAt = time.Now()
	s.nextLoginAt = s.startedAt

	s.wg.Add(1)
	go s.loginLoop(loopCtx)

	if profile.Settings.CheckConnection {
		s.wg.Add(1)
		go s.connectivityLoop(loopCtx)
	}

	slog.Info("scheduler started",
		"login_interval", s.cfg.LoginInterval,
		"check_connection", profile.Settings.CheckConnection,
		"check_interval", s.cfg.CheckInterval,
	)
	return nil
}

// Stop cancels both loops. A login already in progress runs to completion.
// Stop on a stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == model.StateStopped {
		return
	}
	s.cancel()
	s.cancel = nil
	s.state = model.StateStopped
	s.nextLoginAt = time.Time{}
	slog.Info("scheduler stopped")
}

// Restart stops the scheduler, pauses for the restart delay and starts it again.
func (s *Scheduler) Restart(ctx context.Context) error {
	s.Stop()

	t := time.NewTimer(s.cfg.RestartDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	return s.Start(ctx)
}

// LoginNow runs one login outside the timers with a freshly loaded profile.
func (s *Scheduler) LoginNow(ctx context.Context) (model.LoginOutcome, error) {
	profile, err := s.profiles.Profile(ctx)
	if err != nil {
		return model.LoginOutcome{}, fmt.Errorf("load profile: %w", err)
	}

	s.wg.Add(1)
	defer s.wg.Done()

	outcome := s.auth.Login(ctx, profile.Credentials, profile.Settings)
	s.recordOutcome(outcome)
	return outcome, nil
}

// Wait blocks until loops and in-flight logins have returned or the timeout
// elapses. It reports whether everything finished.
func (s *Scheduler) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SchedulerStatus{
		State:       s.state,
		StartedAt:   s.startedAt,
		NextLoginAt: s.nextLoginAt,
	}
	if s.lastOutcome != nil {
		o := *s.lastOutcome
		st.LastOutcome = &o
	}
	return st
}

// Running reports whether the loops are active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == model.StateRunning
}

// loginLoop logs in immediately, then once per login interval until ctx is canceled.
func (s *Scheduler) loginLoop(ctx context.Context) {
	defer s.wg.Done()
	defer s.recoverPanic("login loop")

	s.runLogin(ctx, "startup", nil)

	ticker := time.NewTicker(s.cfg.LoginInterval)
	defer ticker.Stop()
	s.setNextLogin(time.Now().Add(s.cfg.LoginInterval))

	for {
		select {
		case <-ctx.Done():
			slog.Debug("login loop stopped")
			return
		case <-ticker.C:
			s.setNextLogin(time.Now().Add(s.cfg.LoginInterval))
			s.runLogin(ctx, "interval", nil)
		}
	}
}

// connectivityLoop probes on every check interval and logs in when the
// device is offline.
func (s *Scheduler) connectivityLoop(ctx context.Context) {
	defer s.wg.Done()
	defer s.recoverPanic("connectivity loop")

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("connectivity loop stopped")
			return
		case <-ticker.C:
			profile := s.currentProfile(ctx)
			if !profile.Settings.CheckConnection {
				continue
			}
			if s.probe.IsConnected(ctx) {
				slog.Debug("connectivity check passed")
				continue
			}
			slog.Info("connectivity lost, logging in")
			// Login must not probe again: the probe just failed.
			s.runLogin(ctx, "connectivity", func(st *model.Settings) { st.CheckConnection = false })
		}
	}
}

// runLogin performs one login that outlives cancellation of ctx.
func (s *Scheduler) runLogin(ctx context.Context, trigger string, adjust func(*model.Settings)) {
	profile := s.currentProfile(ctx)
	settings := profile.Settings
	if adjust != nil {
		adjust(&settings)
	}

	slog.Debug("scheduled login", "trigger", trigger)
	outcome := s.auth.Login(context.WithoutCancel(ctx), profile.Credentials, settings)
	s.recordOutcome(outcome)
}

// currentProfile reloads the profile, falling back to the last good one.
func (s *Scheduler) currentProfile(ctx context.Context) model.Profile {
	profile, err := s.profiles.Profile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		slog.Warn("profile reload failed, using last good profile", "error", err)
		return s.lastProfile
	}
	s.lastProfile = profile
	return profile
}

func (s *Scheduler) recordOutcome(outcome model.LoginOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOutcome = &outcome
}

func (s *Scheduler) setNextLogin(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == model.StateRunning {
		s.nextLoginAt = t
	}
}
