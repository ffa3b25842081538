package driven

// EventLog is the best-effort, human-readable event trail. Lines arrive already
// prefixed with a bracketed timestamp. Append must never block for long or panic;
// failures are swallowed by the implementation.
type EventLog interface {
	Append(line string)
}
