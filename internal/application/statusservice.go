package application

import (
	"context"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

// StatusReport is what the front ends print for "status".
type StatusReport struct {
	Scheduler SchedulerStatus
	Session   string
	Profile   *model.Profile
	// ProfileErr is set when the configuration could not be loaded.
	ProfileErr error
}

// StatusService assembles a StatusReport from the scheduler, the session
// store and the current profile.
type StatusService struct {
	scheduler *Scheduler
	sessions  driven.SessionStore
	profiles  driven.ProfileSource
}

// NewStatusService creates a StatusService. scheduler may be nil when the
// caller is not hosting one, for example a batch "status" command.
func NewStatusService(scheduler *Scheduler, sessions driven.SessionStore, profiles driven.ProfileSource) *StatusService {
	return &StatusService{
		scheduler: scheduler,
		sessions:  sessions,
		profiles:  profiles,
	}
}

// Report gathers the current status. It never fails; load errors are carried
// in the report.
func (s *StatusService) Report(ctx context.Context) StatusReport {
	report := StatusReport{
		Scheduler: SchedulerStatus{State: model.StateStopped},
		Session:   s.sessions.Describe(ctx),
	}
	if s.scheduler != nil {
		report.Scheduler = s.scheduler.Status()
	}

	profile, err := s.profiles.Profile(ctx)
	if err != nil {
		report.ProfileErr = err
		return report
	}
	report.Profile = &profile
	return report
}
