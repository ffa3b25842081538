// Package jsonfile implements the SessionStore port as a single JSON document
// that is replaced whole on every write.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionStore)(nil)

// NeverLoggedIn is what Describe reports for an empty store.
const NeverLoggedIn = "never logged in"

// sessionFile is the on-disk JSON shape.
type sessionFile struct {
	Username  string    `json:"username"`
	LoginTime time.Time `json:"loginTime"`
	Attempt   int       `json:"attempt"`
	LastLogin time.Time `json:"lastLogin"`
}

// SessionStore persists the most recent successful login to path.
type SessionStore struct {
	path string
	now  func() time.Time
}

// NewSessionStore creates a SessionStore using the wall clock.
func NewSessionStore(path string) *SessionStore {
	return NewSessionStoreWithClock(path, time.Now)
}

// NewSessionStoreWithClock creates a SessionStore with an injected clock, used
// for the LastLogin stamp and for elapsed-time reporting.
func NewSessionStoreWithClock(path string, now func() time.Time) *SessionStore {
	return &SessionStore{path: path, now: now}
}

// Save atomically replaces the stored record, stamping LastLogin with the current time.
func (s *SessionStore) Save(_ context.Context, rec model.SessionRecord) error {
	data, err := json.MarshalIndent(sessionFile{
		Username:  rec.Username,
		LoginTime: rec.LoginTime,
		Attempt:   rec.Attempt,
		LastLogin: s.now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write session %s: %w", s.path, err)
	}
	return nil
}

// Load returns the stored record. A missing or unparsable file yields (nil, nil).
func (s *SessionStore) Load(_ context.Context) (*model.SessionRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", s.path, err)
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("ignoring unreadable session file", "path", s.path, "error", err)
		return nil, nil
	}

	return &model.SessionRecord{
		Username:  f.Username,
		LoginTime: f.LoginTime,
		Attempt:   f.Attempt,
		LastLogin: f.LastLogin,
	}, nil
}

// Describe renders the last login and whole minutes elapsed since it.
func (s *SessionStore) Describe(ctx context.Context) string {
	rec, err := s.Load(ctx)
	if err != nil {
		slog.Warn("session load failed", "path", s.path, "error", err)
		return NeverLoggedIn
	}
	if rec == nil {
		return NeverLoggedIn
	}

	minutes := rec.MinutesSince(s.now())
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Last login: %s (%d %s ago)",
		rec.LoginTime.Local().Format(time.DateTime), minutes, unit)
}
