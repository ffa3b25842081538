// Package console renders scheduler, session and login results for terminal
// front ends.
package console

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/ericfisherdev/hotspotlogin/internal/application"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
	"github.com/ericfisherdev/hotspotlogin/internal/preflight"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	headColor = color.New(color.FgCyan, color.Bold)
)

// Success prints a green line.
func Success(w io.Writer, format string, args ...any) {
	okColor.Fprintf(w, format+"\n", args...)
}

// Warn prints a yellow line.
func Warn(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, format+"\n", args...)
}

// Error prints a red line.
func Error(w io.Writer, format string, args ...any) {
	errColor.Fprintf(w, format+"\n", args...)
}

// Heading prints a bold cyan line.
func Heading(w io.Writer, text string) {
	headColor.Fprintln(w, text)
}

// Outcome prints a login outcome.
func Outcome(w io.Writer, o model.LoginOutcome) {
	switch {
	case o.Success:
		Success(w, "Login successful (attempt %d)", o.Attempt)
	case o.Reason == model.ReasonNoConnectivity:
		Warn(w, "No internet connection, login skipped")
	default:
		Error(w, "Login failed: %s", o.Message)
	}
}

// Status prints a status report. serviceState is the OS service manager's
// view and may be empty when unknown.
func Status(w io.Writer, r application.StatusReport, serviceState string, now time.Time) {
	Heading(w, "Hotspot Login Status")

	state := string(r.Scheduler.State)
	if r.Scheduler.State == model.StateRunning {
		okColor.Fprintf(w, "  Scheduler:     %s", state)
		fmt.Fprintf(w, " (started %s)\n", humanize.RelTime(r.Scheduler.StartedAt, now, "ago", "from now"))
	} else {
		fmt.Fprintf(w, "  Scheduler:     %s\n", state)
	}
	if serviceState != "" {
		fmt.Fprintf(w, "  Service:       %s\n", serviceState)
	}
	if !r.Scheduler.NextLoginAt.IsZero() {
		fmt.Fprintf(w, "  Next login:    %s\n", humanize.RelTime(r.Scheduler.NextLoginAt, now, "ago", "from now"))
	}
	fmt.Fprintf(w, "  Session:       %s\n", r.Session)

	if o := r.Scheduler.LastOutcome; o != nil {
		fmt.Fprintf(w, "  Last outcome:  %s (%s)\n", describeOutcome(*o), humanize.Time(o.Timestamp))
	}

	if r.ProfileErr != nil {
		errColor.Fprintf(w, "  Config:        %v\n", r.ProfileErr)
		return
	}
	if r.Profile != nil {
		s := r.Profile.Settings
		fmt.Fprintf(w, "  User:          %s\n", r.Profile.Credentials.Username)
		fmt.Fprintf(w, "  Notifications: %s\n", onOff(s.EnableNotifications))
		fmt.Fprintf(w, "  Auto retry:    %s\n", onOff(s.AutoRetry))
		fmt.Fprintf(w, "  Check conn.:   %s\n", onOff(s.CheckConnection))
		fmt.Fprintf(w, "  Log to file:   %s\n", onOff(s.LogToFile))
	}
}

// Preflight prints failed environment checks. Nothing is printed when all pass.
func Preflight(w io.Writer, r preflight.Report) {
	for _, c := range r.Warnings() {
		Warn(w, "  ! %s: %s", c.Name, c.Detail)
	}
}

func describeOutcome(o model.LoginOutcome) string {
	if o.Success {
		return fmt.Sprintf("success on attempt %d", o.Attempt)
	}
	return string(o.Reason)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
