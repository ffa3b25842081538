// Package menu is the interactive front end: a numbered menu over the
// scheduler plus a first-run setup wizard.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driving/console"
	"github.com/ericfisherdev/hotspotlogin/internal/application"
	"github.com/ericfisherdev/hotspotlogin/internal/config"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
	"github.com/ericfisherdev/hotspotlogin/internal/preflight"
)

const drainTimeout = 30 * time.Second

// errInputClosed means stdin reached EOF.
var errInputClosed = errors.New("input closed")

// Menu drives the scheduler from a terminal.
type Menu struct {
	out       io.Writer
	lines     <-chan string
	cfg       config.Config
	scheduler *application.Scheduler
	status    *application.StatusService
	now       func() time.Time
}

// New creates a Menu reading from in and writing to out.
func New(in io.Reader, out io.Writer, cfg config.Config, scheduler *application.Scheduler, status *application.StatusService) *Menu {
	return &Menu{
		out:       out,
		lines:     readLines(in),
		cfg:       cfg,
		scheduler: scheduler,
		status:    status,
		now:       time.Now,
	}
}

// readLines feeds trimmed input lines to a channel that is closed on EOF.
func readLines(in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			ch <- strings.TrimSpace(sc.Text())
		}
	}()
	return ch
}

// Run shows the menu until the user exits, input ends or ctx is canceled.
// The scheduler is stopped on the way out.
func (m *Menu) Run(ctx context.Context) error {
	defer m.shutdown()

	console.Heading(m.out, "Hotspot Auto Login")
	console.Preflight(m.out, preflight.Run(preflight.Options{
		ConfigPath: m.cfg.ConfigPath,
		DataDir:    m.cfg.DataDir,
	}))

	if _, err := os.Stat(m.cfg.ConfigPath); errors.Is(err, fs.ErrNotExist) {
		console.Warn(m.out, "No configuration found at %s", m.cfg.ConfigPath)
		if err := m.Setup(ctx); err != nil {
			return m.ignoreClosed(err)
		}
	}

	for {
		m.printOptions()
		choice, err := m.prompt(ctx, "Choose an option: ")
		if err != nil {
			return m.ignoreClosed(err)
		}

		switch choice {
		case "1":
			m.start(ctx)
		case "2":
			m.stop()
		case "3":
			m.restart(ctx)
		case "4":
			console.Status(m.out, m.status.Report(ctx), "", m.now())
		case "5":
			m.loginNow(ctx)
		case "6", "q", "exit":
			console.Success(m.out, "Goodbye")
			return nil
		default:
			console.Error(m.out, "Invalid option %q", choice)
		}
	}
}

func (m *Menu) printOptions() {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "  1) Start auto-login")
	fmt.Fprintln(m.out, "  2) Stop auto-login")
	fmt.Fprintln(m.out, "  3) Restart auto-login")
	fmt.Fprintln(m.out, "  4) Status")
	fmt.Fprintln(m.out, "  5) Login now")
	fmt.Fprintln(m.out, "  6) Exit")
}

func (m *Menu) start(ctx context.Context) {
	if m.scheduler.Running() {
		console.Warn(m.out, "Auto-login is already running")
		return
	}
	if err := m.scheduler.Start(ctx); err != nil {
		m.reportConfigError(ctx, err)
		return
	}
	console.Success(m.out, "Auto-login started")
}

func (m *Menu) stop() {
	if !m.scheduler.Running() {
		console.Warn(m.out, "Auto-login is not running")
		return
	}
	m.scheduler.Stop()
	console.Success(m.out, "Auto-login stopped")
}

func (m *Menu) restart(ctx context.Context) {
	console.Warn(m.out, "Restarting...")
	if err := m.scheduler.Restart(ctx); err != nil {
		m.reportConfigError(ctx, err)
		return
	}
	console.Success(m.out, "Auto-login restarted")
}

func (m *Menu) loginNow(ctx context.Context) {
	console.Warn(m.out, "Logging in...")
	outcome, err := m.scheduler.LoginNow(context.WithoutCancel(ctx))
	if err != nil {
		m.reportConfigError(ctx, err)
		return
	}
	console.Outcome(m.out, outcome)
}

// reportConfigError prints err and offers the setup wizard for configuration problems.
func (m *Menu) reportConfigError(ctx context.Context, err error) {
	console.Error(m.out, "%v", err)
	if !errors.Is(err, config.ErrConfigNotFound) && !errors.Is(err, config.ErrMissingCredentials) {
		return
	}
	ok, perr := m.confirm(ctx, "Run setup now?", true)
	if perr != nil || !ok {
		return
	}
	if err := m.Setup(ctx); err != nil && !errors.Is(err, errInputClosed) {
		console.Error(m.out, "Setup failed: %v", err)
	}
}

// Setup asks for credentials and settings and saves them.
func (m *Menu) Setup(ctx context.Context) error {
	console.Heading(m.out, "Setup")

	var creds model.Credentials
	for !creds.Valid() {
		var err error
		if creds.Username, err = m.prompt(ctx, "Username: "); err != nil {
			return err
		}
		if creds.Password, err = m.prompt(ctx, "Password: "); err != nil {
			return err
		}
		if !creds.Valid() {
			console.Error(m.out, "Username and password are required")
		}
	}

	settings := model.DefaultSettings()
	toggles := []struct {
		question string
		value    *bool
	}{
		{"Enable notifications?", &settings.EnableNotifications},
		{"Retry failed logins?", &settings.AutoRetry},
		{"Check connectivity before logging in?", &settings.CheckConnection},
		{"Write events to the log file?", &settings.LogToFile},
	}
	for _, tg := range toggles {
		v, err := m.confirm(ctx, tg.question, *tg.value)
		if err != nil {
			return err
		}
		*tg.value = v
	}

	if err := config.SaveProfile(m.cfg.ConfigPath, model.Profile{Credentials: creds, Settings: settings}); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}
	console.Success(m.out, "Configuration saved to %s", m.cfg.ConfigPath)
	return nil
}

func (m *Menu) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(m.out, label)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-m.lines:
		if !ok {
			return "", errInputClosed
		}
		return line, nil
	}
}

func (m *Menu) confirm(ctx context.Context, question string, def bool) (bool, error) {
	hint := "[Y/n]"
	if !def {
		hint = "[y/N]"
	}
	for {
		answer, err := m.prompt(ctx, question+" "+hint+" ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		console.Error(m.out, "Please answer y or n")
	}
}

func (m *Menu) ignoreClosed(err error) error {
	if errors.Is(err, errInputClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (m *Menu) shutdown() {
	m.scheduler.Stop()
	if !m.scheduler.Wait(drainTimeout) {
		console.Warn(m.out, "Exiting with a login still in progress")
	}
}
