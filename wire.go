package taskwatch

import "time"

// This file defines the egress contract named in spec.md section 6: the
// shape of data handed to an out-of-scope RPC transport. These are plain Go
// types, not protoc-generated messages - the transport (gRPC wire codec,
// authentication, connection management) is explicitly out of scope for
// this package; see doc.go and SPEC_FULL.md section 6.

// RegisteredMetadata carries newly (or, for a snapshot, all) registered
// callsite metadata.
type RegisteredMetadata struct {
	Metadata []Metadata
}

// TaskUpdate is the task-shaped slice of an InstrumentUpdate.
type TaskUpdate struct {
	NewTasks  []Task
	StatsByID map[SpanId]TaskStats
}

// ResourceUpdate is the resource-shaped slice of an InstrumentUpdate.
type ResourceUpdate struct {
	NewResources []Resource
	StatsByID    map[SpanId]ResourceStats
	NewPollOps   []PollOp
}

// AsyncOpUpdate is the async-op-shaped slice of an InstrumentUpdate.
type AsyncOpUpdate struct {
	NewAsyncOps []AsyncOp
	StatsByID   map[SpanId]AsyncOpStats
}

// InstrumentUpdate is one delta (or, for the first message on a new
// subscription, full snapshot) published to every instrument watcher. See
// spec.md section 6 for field semantics; NewMetadata is nil rather than an
// empty slice when there is nothing new to report, matching the "only
// present when non-empty" contract.
type InstrumentUpdate struct {
	Now            time.Time
	NewMetadata    *RegisteredMetadata
	TaskUpdate     TaskUpdate
	ResourceUpdate ResourceUpdate
	AsyncOpUpdate  AsyncOpUpdate
}

// TaskDetails is published to a task-detail subscription: its initial
// message and every subsequent publish tick. PollTimesHistogram is nil when
// serialization fails - never an error - per spec.md section 7.
type TaskDetails struct {
	TaskID             SpanId
	Now                time.Time
	PollTimesHistogram []byte
}
