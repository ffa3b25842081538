// Package logfile implements the EventLog port on top of a size-rotated text file.
package logfile

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EventLog = (*EventLog)(nil)

const (
	maxSizeMB  = 5
	maxBackups = 3
)

// EventLog appends one line per event to a rotating log file.
type EventLog struct {
	w io.WriteCloser
}

// New creates an EventLog writing to path. The file and its directory are
// created on the first Append.
func New(path string) *EventLog {
	return &EventLog{w: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB, // megabytes
		MaxBackups: maxBackups,
		LocalTime:  true,
		Compress:   true,
	}}
}

// NewWithWriter creates an EventLog over an arbitrary writer.
func NewWithWriter(w io.WriteCloser) *EventLog {
	return &EventLog{w: w}
}

// Append writes line followed by a newline. Write failures are reported
// through slog and otherwise ignored.
func (l *EventLog) Append(line string) {
	line = strings.TrimRight(line, "\r\n")
	if _, err := io.WriteString(l.w, line+"\n"); err != nil {
		slog.Warn("event log write failed", "error", err)
	}
}

// Close releases the underlying file.
func (l *EventLog) Close() error {
	return l.w.Close()
}
