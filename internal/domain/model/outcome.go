package model

import "time"

// LoginOutcome is the result of one LoginService invocation. It is handed back
// to the caller and written to the event log, never persisted as a record.
type LoginOutcome struct {
	Success   bool
	Message   string
	Attempt   int
	Timestamp time.Time
	Reason    OutcomeReason
	RunID     string
}
