package taskwatch

import "time"

// AsyncOp is the immutable, static record created by an
// AsyncResourceOpEvent.
type AsyncOp struct {
	ID     SpanId
	Meta   Metadata
	Source string
}

// AsyncOpStats is the mutable record of an async operation's lifecycle and
// poll timing. ResourceID and TaskID are filled in lazily, from the first
// PollOpEvent to reference this op (see iddata.go's UpdateOrDefault).
type AsyncOpStats struct {
	CreatedAt  time.Time
	ClosedAt   time.Time
	ResourceID SpanId
	TaskID     SpanId
	HasIDs     bool
	Poll       PollStats
}

// ClosedAtTime implements closable.
func (a *AsyncOpStats) ClosedAtTime() time.Time { return a.ClosedAt }

// PollOp is one logged poll invocation against a (resource, async op, task)
// triple. Kept in two lists on the Aggregator: AllPollOps (for initial
// snapshots) and NewPollOps (emptied each publish).
type PollOp struct {
	Meta       Metadata
	ResourceID SpanId
	OpName     string
	AsyncOpID  SpanId
	TaskID     SpanId
	Readiness  Readiness
}
