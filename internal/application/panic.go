package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// PanicError carries a value recovered from a panicking background goroutine.
type PanicError struct {
	Where string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Where, e.Value)
}

// PanicCause returns the PanicError ctx was canceled with, or nil when ctx is
// live or was canceled for another reason.
func PanicCause(ctx context.Context) *PanicError {
	var perr *PanicError
	if errors.As(context.Cause(ctx), &perr) {
		return perr
	}
	return nil
}

// recoverPanic must be deferred directly by the goroutine it guards.
func (s *Scheduler) recoverPanic(where string) {
	r := recover()
	if r == nil {
		return
	}
	perr := &PanicError{Where: where, Value: r, Stack: debug.Stack()}
	slog.Error("background panic", "where", where, "panic", r, "stack", string(perr.Stack))
	if s.cfg.OnPanic != nil {
		s.cfg.OnPanic(perr)
	}
}
