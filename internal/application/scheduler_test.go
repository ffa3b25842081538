package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/hotspotlogin/internal/application"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
)

const eventually = 2 * time.Second

func testProfile() model.Profile {
	return model.Profile{
		Credentials: model.Credentials{Username: "alice", Password: "s3cret"},
		Settings:    model.DefaultSettings(),
	}
}

func stopAndWait(t *testing.T, s *application.Scheduler) {
	t.Helper()
	s.Stop()
	require.True(t, s.Wait(eventually), "scheduler goroutines did not exit")
}

func TestScheduler_StartLogsInImmediately(t *testing.T) {
	auth := &fakeAuth{}
	s := application.NewScheduler(auth, staticProfile(testProfile()), newMockProbe(true),
		application.SchedulerConfig{LoginInterval: time.Hour, CheckInterval: time.Hour})

	require.NoError(t, s.Start(context.Background()))
	defer stopAndWait(t, s)

	assert.Eventually(t, func() bool { return auth.count() == 1 }, eventually, 5*time.Millisecond)
	calls := auth.snapshot()
	assert.Equal(t, "alice", calls[0].creds.Username)

	st := s.Status()
	assert.Equal(t, model.StateRunning, st.State)
	assert.False(t, st.StartedAt.IsZero())
	assert.True(t, s.Running())
}

func TestScheduler_StartProfileErrorStaysStopped(t *testing.T) {
	auth := &fakeAuth{}
	wantErr := errors.New("config file not found")
	profiles := &mockProfileSource{profile: func(int) (model.Profile, error) { return model.Profile{}, wantErr }}
	s := application.NewScheduler(auth, profiles, newMockProbe(true), application.SchedulerConfig{})

	err := s.Start(context.Background())

	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, model.StateStopped, s.Status().State)
	assert.True(t, s.Wait(eventually))
	assert.Equal(t, 0, auth.count())
}

func TestScheduler_StartWhileRunningIsNoop(t *testing.T) {
	auth := &fakeAuth{}
	probe := newMockProbe(true)
	s := application.NewScheduler(auth, staticProfile(testProfile()), probe,
		application.SchedulerConfig{LoginInterval: time.Hour, CheckInterval: time.Hour})

	require.NoError(t, s.Start(context.Background()))
	defer stopAndWait(t, s)
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return auth.count() >= 1 }, eventually, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, auth.count(), "second Start must not launch another login loop")
}

func TestScheduler_StopTwice(t *testing.T) {
	s := application.NewScheduler(&fakeAuth{}, staticProfile(testProfile()), newMockProbe(true),
		application.SchedulerConfig{LoginInterval: time.Hour, CheckInterval: time.Hour})
	require.NoError(t, s.Start(context.Background()))

	assert.NotPanics(t, func() {
		s.Stop()
		s.Stop()
	})
	assert.Equal(t, model.StateStopped, s.Status().State)
	assert.True(t, s.Wait(eventually))
}

func TestScheduler_StopWhenNeverStarted(t *testing.T) {
	s := application.NewScheduler(&fakeAuth{}, staticProfile(testProfile()), newMockProbe(true), application.SchedulerConfig{})

	assert.NotPanics(t, s.Stop)
	assert.Equal(t, model.StateStopped, s.Status().State)
}

func TestScheduler_LoginIntervalTicks(t *testing.T) {
	auth := &fakeAuth{}
	s := application.NewScheduler(auth, staticProfile(testProfile()), newMockProbe(true),
		application.SchedulerConfig{LoginInterval: 15 * time.Millisecond, CheckInterval: time.Hour})

	require.NoError(t, s.Start(context.Background()))
	defer stopAndWait(t, s)

	assert.Eventually(t, func() bool { return auth.count() >= 3 }, eventually, 5*time.Millisecond)
	assert.False(t, s.Status().NextLoginAt.IsZero())
}

func TestScheduler_ConnectivityLoopLogsInWhenOffline(t *testing.T) {
	auth := &fakeAuth{}
	probe := newMockProbe(false)
	s := application.NewScheduler(auth, staticProfile(testProfile()), probe,
		application.SchedulerConfig{LoginInterval: time.Hour, CheckInterval: 10 * time.Millisecond})

	require.NoError(t, s.Start(context.Background()))
	defer stopAndWait(t, s)

	assert.Eventually(t, func() bool { return auth.count() >= 3 }, eventually, 5*time.Millisecond)

	var probing, reactive int
	for _, c := range auth.snapshot() {
		if c.settings.CheckConnection {
			probing++
		} else {
			reactive++
		}
	}
	assert.Equal(t, 1, probing, "only the startup login keeps the configured settings")
	assert.GreaterOrEqual(t, reactive, 2, "connectivity logins do not probe twice")
	assert.GreaterOrEqual(t, probe.calls.Load(), int32(2))
}

func TestScheduler_ConnectivityLoopIdleWhenOnline(t *testing.T) {
	auth := &fakeAuth{}
	probe := newMockProbe(true)
	s := application.NewScheduler(auth, staticProfile(testProfile()), probe,
		application.SchedulerConfig{LoginInterval: time.Hour, CheckInterval: 10 * time.Millisecond})

	require.NoError(t, s.Start(context.Background()))
	defer stopAndWait(t, s)

	assert.Eventually(t, func() bool { return probe.calls.Load() >= 3 }, eventually, 5*time.Millisecond)
	assert.Equal(t, 1, auth.count())
}

func TestScheduler_NoConnectivityLoopWhenDisabled(t *testing.T) {
	profile := testProfile()
	profile.Settings.CheckConnection = false
	probe := newMockProbe(false)
	auth := &fakeAuth{}
	s := application.NewScheduler(auth, staticProfile(profile), probe,
		application.SchedulerConfig{LoginInterval: time.Hour, CheckInterval: 5 * time.Millisecond})

	require.NoError(t, s.Start(context.Background()))
	defer stopAndWait(t, s)

	assert.Eventually(t, func() bool { return auth.count() == 1 }, eventually, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), probe.calls.Load())
}

func TestScheduler_StopDoesNotCancelInFlightLogin(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	ctxErr := make(chan error, 1)
	auth := &fakeAuth{login: func(ctx context.Context) model.LoginOutcome {
		close(entered)
		<-release
		ctxErr <- ctx.Err()
		return model.LoginOutcome{Success: true, Attempt: 1, Reason: model.ReasonSuccess}
	}}
	s := application.NewScheduler(auth, staticProfile(testProfile()), newMockProbe(true),
		application.SchedulerConfig{LoginInterval: time.Hour, CheckInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	<-entered

	cancel()
	s.Stop()
	assert.False(t, s.Wait(20*time.Millisecond), "in-flight login still running")

	close(release)
	require.True(t, s.Wait(eventually))
	assert.NoError(t, <-ctxErr)

	st := s.Status()
	require.NotNil(t, st.LastOutcome)
	assert.True(t, st.LastOutcome.Success, "outcome of a login finishing after Stop is still recorded")
}

func TestScheduler_Restart(t *testing.T) {
	auth := &fakeAuth{}
	s := application.NewScheduler(auth, staticProfile(testProfile()), newMockProbe(true),
		application.SchedulerConfig{LoginInterval: time.Hour, CheckInterval: time.Hour, RestartDelay: 10 * time.Millisecond})

	require.NoError(t, s.Start(context.Background()))
	defer stopAndWait(t, s)
	assert.Eventually(t, func() bool { return auth.count() == 1 }, eventually, 5*time.Millisecond)

	start := time.Now()
	require.NoError(t, s.Restart(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.True(t, s.Running())
	assert.Eventually(t, func() bool { return auth.count() == 2 }, eventually, 5*time.Millisecond)
}

func TestScheduler_RestartCanceled(t *testing.T) {
	s := application.NewScheduler(&fakeAuth{}, staticProfile(testProfile()), newMockProbe(true),
		application.SchedulerConfig{LoginInterval: time.Hour, CheckInterval: time.Hour, RestartDelay: time.Hour})
	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Restart(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.Running())
	assert.True(t, s.Wait(eventually))
}

func TestScheduler_ProfileReloadFallsBackToLastGood(t *testing.T) {
	auth := &fakeAuth{}
	profiles := &mockProfileSource{profile: func(call int) (model.Profile, error) {
		if call == 1 {
			return testProfile(), nil
		}
		return model.Profile{}, errors.New("parse config: unexpected end of JSON input")
	}}
	s := application.NewScheduler(auth, profiles, newMockProbe(true),
		application.SchedulerConfig{LoginInterval: 10 * time.Millisecond, CheckInterval: time.Hour})

	require.NoError(t, s.Start(context.Background()))
	defer stopAndWait(t, s)

	assert.Eventually(t, func() bool { return auth.count() >= 3 }, eventually, 5*time.Millisecond)
	for _, c := range auth.snapshot() {
		assert.Equal(t, "alice", c.creds.Username)
	}
}

func TestScheduler_LoginNow(t *testing.T) {
	auth := &fakeAuth{login: func(context.Context) model.LoginOutcome {
		return model.LoginOutcome{Success: false, Attempt: 3, Reason: model.ReasonTransport, Message: "login failed after 3 attempt(s)"}
	}}
	s := application.NewScheduler(auth, staticProfile(testProfile()), newMockProbe(true), application.SchedulerConfig{})

	outcome, err := s.LoginNow(context.Background())

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, 1, auth.count())
	st := s.Status()
	assert.Equal(t, model.StateStopped, st.State)
	require.NotNil(t, st.LastOutcome)
	assert.Equal(t, 3, st.LastOutcome.Attempt)
}

func TestScheduler_LoginNowProfileError(t *testing.T) {
	profiles := &mockProfileSource{profile: func(int) (model.Profile, error) {
		return model.Profile{}, errors.New("missing credentials")
	}}
	auth := &fakeAuth{}
	s := application.NewScheduler(auth, profiles, newMockProbe(true), application.SchedulerConfig{})

	_, err := s.LoginNow(context.Background())

	require.Error(t, err)
	assert.Equal(t, 0, auth.count())
}

func TestScheduler_LoopPanicIsRecoveredAndReported(t *testing.T) {
	auth := &fakeAuth{login: func(context.Context) model.LoginOutcome { panic("portal exploded") }}
	faults := make(chan *application.PanicError, 1)
	s := application.NewScheduler(auth, staticProfile(testProfile()), newMockProbe(true),
		application.SchedulerConfig{
			LoginInterval: time.Hour,
			CheckInterval: time.Hour,
			OnPanic:       func(perr *application.PanicError) { faults <- perr },
		})

	require.NoError(t, s.Start(context.Background()))

	select {
	case perr := <-faults:
		assert.Equal(t, "login loop", perr.Where)
		assert.Equal(t, "portal exploded", perr.Value)
		assert.NotEmpty(t, perr.Stack)
		assert.Contains(t, perr.Error(), "portal exploded")
	case <-time.After(eventually):
		t.Fatal("panic was not reported")
	}

	stopAndWait(t, s)
	assert.Equal(t, model.StateStopped, s.Status().State)
}

func TestPanicCause(t *testing.T) {
	assert.Nil(t, application.PanicCause(context.Background()))

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(nil)
	assert.Nil(t, application.PanicCause(ctx))

	perr := &application.PanicError{Where: "login loop", Value: "boom"}
	ctx, cancel = context.WithCancelCause(context.Background())
	cancel(perr)
	assert.Same(t, perr, application.PanicCause(ctx))
}
