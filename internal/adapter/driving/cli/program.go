package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/kardianos/service"

	"github.com/ericfisherdev/hotspotlogin/internal/application"
)

// ServiceName is the name registered with the OS service manager.
const ServiceName = "hotspotlogin"

// drainTimeout bounds how long shutdown waits for an in-flight login.
const drainTimeout = 30 * time.Second

// Compile-time interface satisfaction check.
var _ service.Interface = (*Program)(nil)

// Program adapts the Scheduler to the service manager's start/stop callbacks.
type Program struct {
	scheduler *application.Scheduler
	logger    service.Logger
}

// NewProgram creates a Program driving scheduler.
func NewProgram(scheduler *application.Scheduler) *Program {
	return &Program{scheduler: scheduler}
}

// Start is called by the service manager. It must not block.
func (p *Program) Start(s service.Service) error {
	p.logger, _ = s.Logger(nil)
	if err := p.scheduler.Start(context.Background()); err != nil {
		p.logf("hotspotlogin failed to start: %v", err)
		return fmt.Errorf("start scheduler: %w", err)
	}
	p.logf("hotspotlogin started")
	return nil
}

// Stop is called by the service manager on shutdown.
func (p *Program) Stop(_ service.Service) error {
	p.scheduler.Stop()
	if !p.scheduler.Wait(drainTimeout) {
		p.logf("hotspotlogin stopped with a login still in flight")
		return nil
	}
	p.logf("hotspotlogin stopped")
	return nil
}

func (p *Program) logf(format string, args ...any) {
	if p.logger != nil {
		_ = p.logger.Infof(format, args...)
	}
}

// ServiceConfig describes the daemon to the OS service manager. The data
// directory is passed through so the service reads the same files as the CLI.
func ServiceConfig(dataDir string) *service.Config {
	return &service.Config{
		Name:        ServiceName,
		DisplayName: "Hotspot Auto Login",
		Description: "Keeps a captive-portal hotspot session logged in.",
		Arguments:   []string{"start"},
		EnvVars: map[string]string{
			"HOTSPOTLOGIN_DATA_DIR": dataDir,
		},
		Option: service.KeyValue{
			"UserService": true,

			// Linux systemd options
			"Restart":           "on-failure",
			"RestartSec":        5,
			"SuccessExitStatus": "0 SIGTERM",

			// macOS launchd options
			"RunAtLoad": true,
			"KeepAlive": true,
		},
	}
}
