// Package cli is the batch front end: a cobra command tree over the scheduler
// and the OS service manager.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driving/console"
	"github.com/ericfisherdev/hotspotlogin/internal/application"
	"github.com/ericfisherdev/hotspotlogin/internal/config"
	"github.com/ericfisherdev/hotspotlogin/internal/preflight"
)

var (
	// ErrUnknownCommand is returned for arguments that name no command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoCommand is returned when no command is given outside a terminal.
	ErrNoCommand = errors.New("no command given")
	// ErrLoginFailed is returned by "login" when the outcome is a failure.
	ErrLoginFailed = errors.New("login failed")
	// ErrNoServiceManager is returned by service commands when no service manager is available.
	ErrNoServiceManager = errors.New("no service manager available")
)

// App holds what the commands operate on.
type App struct {
	Config    config.Config
	Scheduler *application.Scheduler
	Status    *application.StatusService

	// Service is nil when the platform has no supported service manager.
	Service service.Service

	// RunMenu opens the interactive menu. It is used when no command is given on a terminal.
	RunMenu     func(ctx context.Context) error
	Interactive bool

	Out io.Writer
	Now func() time.Time
}

// NewRootCommand builds the command tree.
func NewRootCommand(app *App) *cobra.Command {
	if app.Now == nil {
		app.Now = time.Now
	}

	root := &cobra.Command{
		Use:   "hotspotlogin",
		Short: "Keep a captive-portal hotspot session logged in",
		Long: `hotspotlogin submits stored credentials to a captive-portal login form,
re-logs in every 15 minutes and whenever connectivity is lost.

Run without arguments on a terminal to open the interactive menu.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				_ = cmd.Usage()
				return fmt.Errorf("%w %q", ErrUnknownCommand, args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !app.Interactive || app.RunMenu == nil {
				_ = cmd.Usage()
				return ErrNoCommand
			}
			return app.RunMenu(cmd.Context())
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Out)

	root.AddCommand(
		app.startCommand(),
		app.serviceCommand("stop", "Stop the installed service", "Service stopped"),
		app.serviceCommand("restart", "Restart the installed service", "Service restarted"),
		app.statusCommand(),
		app.loginCommand(),
		app.serviceCommand("install", "Register hotspotlogin with the OS service manager", "Service installed"),
		app.serviceCommand("uninstall", "Remove hotspotlogin from the OS service manager", "Service uninstalled"),
	)
	return root
}

func (a *App) startCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the login scheduler until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.Service != nil && !service.Interactive() {
				return a.runService(cmd.Context())
			}
			return a.runForeground(cmd.Context())
		},
	}
}

// runService hands control to the service manager. It returns early when ctx
// is canceled by a scheduler panic; on a signal the manager stops first.
func (a *App) runService(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- a.Service.Run() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if perr := application.PanicCause(ctx); perr != nil {
			return perr
		}
		return <-errc
	}
}

// runForeground starts the scheduler and blocks until ctx is canceled.
func (a *App) runForeground(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		a.configHint(err)
		return err
	}
	console.Success(a.Out, "Auto-login started, press Ctrl+C to stop")

	<-ctx.Done()

	a.Scheduler.Stop()
	drained := a.Scheduler.Wait(drainTimeout)
	if perr := application.PanicCause(ctx); perr != nil {
		console.Error(a.Out, "Auto-login stopped after an internal error: %v", perr)
		return perr
	}
	if !drained {
		console.Warn(a.Out, "Stopped with a login still in progress")
		return nil
	}
	console.Success(a.Out, "Auto-login stopped")
	return nil
}

func (a *App) serviceCommand(action, short, done string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.Service == nil {
				return fmt.Errorf("%s service: %w", action, ErrNoServiceManager)
			}
			if err := service.Control(a.Service, action); err != nil {
				return fmt.Errorf("%s service: %w", action, err)
			}
			console.Success(a.Out, "%s", done)
			return nil
		},
	}
}

func (a *App) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service, session and configuration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := a.Status.Report(cmd.Context())
			console.Status(a.Out, report, ServiceState(a.Service), a.Now())
			console.Preflight(a.Out, preflight.Run(preflight.Options{
				ConfigPath: a.Config.ConfigPath,
				DataDir:    a.Config.DataDir,
			}))
			return nil
		},
	}
}

func (a *App) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			// A signal lets the running attempt finish and then exits cleanly.
			outcome, err := a.Scheduler.LoginNow(context.WithoutCancel(ctx))
			if err != nil {
				a.configHint(err)
				return err
			}
			console.Outcome(a.Out, outcome)
			if ctx.Err() != nil {
				return nil
			}
			if !outcome.Success {
				return ErrLoginFailed
			}
			return nil
		},
	}
}

// configHint writes a template when the configuration file is missing and
// tells the user what to fix.
func (a *App) configHint(err error) {
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		if werr := config.WriteTemplate(a.Config.ConfigPath); werr != nil {
			console.Error(a.Out, "Could not write config template: %v", werr)
			return
		}
		console.Warn(a.Out, "Config template written to %s; fill in username and password", a.Config.ConfigPath)
	case errors.Is(err, config.ErrMissingCredentials):
		console.Warn(a.Out, "Set username and password in %s", a.Config.ConfigPath)
	}
}

// ServiceState describes the OS service for status output.
func ServiceState(s service.Service) string {
	if s == nil {
		return ""
	}
	st, err := s.Status()
	switch {
	case errors.Is(err, service.ErrNotInstalled):
		return "not installed"
	case err != nil:
		return "unknown"
	case st == service.StatusRunning:
		return "running"
	case st == service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
