package taskwatch

import "time"

// Task is the immutable, static record created by a SpawnEvent.
type Task struct {
	ID     SpanId
	Meta   Metadata
	Fields []FieldSchema
}

// TaskStats is the mutable record of a task's lifecycle, waker traffic, and
// poll timing. ClosedAt is set at most once, by a CloseEvent; once set, the
// entry becomes eligible for retention-based GC.
type TaskStats struct {
	CreatedAt time.Time
	ClosedAt  time.Time

	Wakes       uint64
	WakerClones uint64
	WakerDrops  uint64
	LastWake    time.Time

	PollTimes *Histogram
	Poll      PollStats
}

// newTaskStats builds a zero-value TaskStats with a fresh poll-time
// histogram (precision 2, per spec.md section 3) and CreatedAt set.
func newTaskStats(at time.Time) *TaskStats {
	return &TaskStats{
		CreatedAt: at,
		PollTimes: NewHistogram(),
	}
}

// ClosedAtTime implements closable.
func (t *TaskStats) ClosedAtTime() time.Time { return t.ClosedAt }

// recordWake applies one waker lifecycle operation. Wake (by value)
// additionally increments WakerDrops, since a wake-by-value consumes the
// waker without a separate Drop event; see WakeOpWake's doc comment and
// spec.md's testable property 3.
func (t *TaskStats) recordWake(op WakeOp, at time.Time) {
	switch op {
	case WakeOpWake:
		t.Wakes++
		t.LastWake = at
		t.WakerDrops++
	case WakeOpWakeByRef:
		t.Wakes++
		t.LastWake = at
	case WakeOpClone:
		t.WakerClones++
	case WakeOpDrop:
		t.WakerDrops++
	}
}
