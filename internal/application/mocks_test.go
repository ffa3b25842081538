package application_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
)

// --- Mock implementations ---

type mockPortal struct {
	mu     sync.Mutex
	times  []time.Time
	submit func(ctx context.Context, call int) error
}

func (m *mockPortal) Submit(ctx context.Context, _ model.Credentials) error {
	m.mu.Lock()
	m.times = append(m.times, time.Now())
	call := len(m.times)
	m.mu.Unlock()

	if m.submit == nil {
		return nil
	}
	return m.submit(ctx, call)
}

func (m *mockPortal) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.times)
}

func (m *mockPortal) callTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.times...)
}

type mockProbe struct {
	connected atomic.Bool
	calls     atomic.Int32
	delay     time.Duration
}

func newMockProbe(connected bool) *mockProbe {
	p := &mockProbe{}
	p.connected.Store(connected)
	return p
}

func (m *mockProbe) IsConnected(_ context.Context) bool {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.connected.Load()
}

type mockSessionStore struct {
	mu       sync.Mutex
	saved    []model.SessionRecord
	saveErr  error
	describe string
}

func (m *mockSessionStore) Save(_ context.Context, rec model.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, rec)
	return nil
}

func (m *mockSessionStore) Load(_ context.Context) (*model.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil, nil
	}
	rec := m.saved[len(m.saved)-1]
	return &rec, nil
}

func (m *mockSessionStore) Describe(_ context.Context) string {
	return m.describe
}

func (m *mockSessionStore) records() []model.SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.SessionRecord(nil), m.saved...)
}

type mockEventLog struct {
	mu    sync.Mutex
	lines []string
}

func (m *mockEventLog) Append(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, line)
}

func (m *mockEventLog) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

type notification struct {
	title   string
	message string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (m *mockNotifier) Notify(_ context.Context, title, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, notification{title: title, message: message})
	return m.err
}

type mockMetrics struct {
	mu       sync.Mutex
	attempts []error
	outcomes []model.LoginOutcome
}

func (m *mockMetrics) ObserveAttempt(err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, err)
}

func (m *mockMetrics) ObserveOutcome(outcome model.LoginOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

type mockProfileSource struct {
	mu      sync.Mutex
	calls   int
	profile func(call int) (model.Profile, error)
}

func staticProfile(p model.Profile) *mockProfileSource {
	return &mockProfileSource{profile: func(int) (model.Profile, error) { return p, nil }}
}

func (m *mockProfileSource) Profile(_ context.Context) (model.Profile, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.profile(call)
}

type loginCall struct {
	creds    model.Credentials
	settings model.Settings
}

type fakeAuth struct {
	mu    sync.Mutex
	calls []loginCall
	login func(ctx context.Context) model.LoginOutcome
}

func (f *fakeAuth) Login(ctx context.Context, creds model.Credentials, settings model.Settings) model.LoginOutcome {
	f.mu.Lock()
	f.calls = append(f.calls, loginCall{creds: creds, settings: settings})
	f.mu.Unlock()

	if f.login != nil {
		return f.login(ctx)
	}
	return model.LoginOutcome{Success: true, Attempt: 1, Timestamp: time.Now(), Reason: model.ReasonSuccess}
}

func (f *fakeAuth) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAuth) snapshot() []loginCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]loginCall(nil), f.calls...)
}
