package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/kardianos/service"
	"github.com/mattn/go-isatty"
	"go.uber.org/multierr"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for minimal Android/Termux images

	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driven/jsonfile"
	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driven/logfile"
	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driven/metrics"
	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driven/notify"
	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driven/portal"
	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driven/probe"
	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driving/cli"
	"github.com/ericfisherdev/hotspotlogin/internal/adapter/driving/menu"
	"github.com/ericfisherdev/hotspotlogin/internal/application"
	"github.com/ericfisherdev/hotspotlogin/internal/config"
)

const drainTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() (err error) {
	// 1. Load configuration and set up logging.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Debug("config loaded",
		"config_path", cfg.ConfigPath,
		"session_path", cfg.SessionPath,
		"log_path", cfg.LogPath,
		"login_interval", cfg.LoginInterval,
		"check_interval", cfg.CheckInterval,
	)

	if err := os.MkdirAll(filepath.Dir(cfg.ConfigPath), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM, SIGQUIT). A panic in a
	// scheduler loop cancels it too, with the panic as cause.
	base, fail := context.WithCancelCause(context.Background())
	defer fail(nil)
	ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	// 3. Wire driven adapters.
	portalClient := portal.NewClient(cfg.LoginURL)
	connProbe := probe.New(cfg.ProbeURL)
	sessions := jsonfile.NewSessionStore(cfg.SessionPath)
	events := logfile.New(cfg.LogPath)
	loginMetrics := metrics.NewTextfile(cfg.MetricsPath)
	slog.Debug("adapters wired", "login_url", portalClient.LoginURL(), "probe_url", connProbe.URL())
	defer func() {
		if closeErr := multierr.Combine(events.Close(), loginMetrics.Flush()); closeErr != nil {
			slog.Warn("error closing outputs", "error", closeErr)
		}
	}()

	// 4. Follow the configuration file for edits made while running.
	watcher := config.NewWatcher(cfg.ConfigPath)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			slog.Warn("config watcher disabled", "error", err)
		}
	}()

	// 5. Create services.
	loginSvc := application.NewLoginService(portalClient, connProbe, sessions, events,
		application.WithNotifier(notify.Detect()),
		application.WithMetrics(loginMetrics),
	)
	scheduler := application.NewScheduler(loginSvc, watcher, connProbe, application.SchedulerConfig{
		LoginInterval: cfg.LoginInterval,
		CheckInterval: cfg.CheckInterval,
		OnPanic:       func(perr *application.PanicError) { fail(perr) },
	})
	statusSvc := application.NewStatusService(scheduler, sessions, watcher)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("unexpected panic", "panic", r, "stack", string(debug.Stack()))
			scheduler.Stop()
			scheduler.Wait(drainTimeout)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	// 6. Register with the OS service manager when one is available.
	svc, svcErr := service.New(cli.NewProgram(scheduler), cli.ServiceConfig(cfg.DataDir))
	if svcErr != nil {
		slog.Debug("no service manager", "error", svcErr)
		svc = nil
	}

	// 7. Dispatch the command line.
	app := &cli.App{
		Config:      *cfg,
		Scheduler:   scheduler,
		Status:      statusSvc,
		Service:     svc,
		Interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
		RunMenu: func(ctx context.Context) error {
			return menu.New(os.Stdin, os.Stdout, *cfg, scheduler, statusSvc).Run(ctx)
		},
		Out: os.Stdout,
	}
	cmdErr := cli.NewRootCommand(app).ExecuteContext(ctx)
	if perr := application.PanicCause(base); perr != nil {
		scheduler.Stop()
		scheduler.Wait(drainTimeout)
		return perr
	}
	if cmdErr != nil {
		return cmdErr
	}

	slog.Debug("shutdown complete")
	return nil
}
