package model

import "time"

// SessionRecord describes the most recent successful login. It is replaced
// wholesale on every success and only read otherwise.
type SessionRecord struct {
	Username  string
	LoginTime time.Time
	Attempt   int
	LastLogin time.Time // Stamped by the session store at save time.
}

// MinutesSince returns the whole minutes elapsed between the last login and now,
// rounded down. LoginTime is used when LastLogin was never stamped.
func (r SessionRecord) MinutesSince(now time.Time) int {
	last := r.LastLogin
	if last.IsZero() {
		last = r.LoginTime
	}
	elapsed := now.Sub(last)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / time.Minute)
}
