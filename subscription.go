package taskwatch

// instrumentWatcher is one active instrument subscription: a non-blocking
// sink for InstrumentUpdate deltas. A watcher that cannot accept an update
// (buffer full or receiver gone) is dropped silently at the next publish -
// see publish in aggregator.go.
type instrumentWatcher struct {
	ch chan *InstrumentUpdate
}

// send attempts a non-blocking delivery, reporting whether the watcher
// survives.
func (w *instrumentWatcher) send(update *InstrumentUpdate) (alive bool) {
	select {
	case w.ch <- update:
		return true
	default:
		return false
	}
}

// InstrumentSubscription is returned to a caller of
// Aggregator.AddInstrumentSubscription. Updates is closed once the
// aggregator stops; it is never closed merely because the subscriber was
// dropped for being slow (there is nothing further to deliver to a dropped
// channel, so the aggregator simply stops sending to it).
type InstrumentSubscription struct {
	Updates <-chan *InstrumentUpdate
}

// taskDetailWatcher is one active task-detail subscription for a single
// task id.
type taskDetailWatcher struct {
	ch chan *TaskDetails
}

func (w *taskDetailWatcher) send(details *TaskDetails) (alive bool) {
	select {
	case w.ch <- details:
		return true
	default:
		return false
	}
}

// TaskDetailSubscription is returned to a caller of
// Aggregator.WatchTaskDetail.
type TaskDetailSubscription struct {
	Details <-chan *TaskDetails
}

// watchTaskDetailRequest carries a task-detail subscription request across
// the control channel. resultCh is a one-shot: if TaskID is unknown, it is
// closed unsent, which the caller of WatchTaskDetail reports as
// ErrTaskNotFound - mirroring spec.md section 4.4's "drop the one-shot"
// rule.
type watchTaskDetailRequest struct {
	TaskID     SpanId
	BufferSize int
	resultCh   chan *TaskDetailSubscription
}

// controlMsg is the control-channel payload's tagged union - every request
// the Aggregator's Run loop services outside of ordinary event processing:
// new subscriptions, and the advisory Pause/Resume commands from spec.md
// section 6.
type controlMsg interface {
	isControlMsg()
}

// instrumentRequest carries an instrument subscription request across the
// control channel.
type instrumentRequest struct {
	bufferSize int
	resultCh   chan *InstrumentSubscription
}

// ControlCommand is the advisory Pause/Resume signal named in spec.md
// section 6. The core implementation defers publish while paused, per the
// "deferring publish" option spec.md offers; it never drops events while
// paused.
type ControlCommand uint8

const (
	ControlPause ControlCommand = iota
	ControlResume
)

// controlCommandMsg wraps a ControlCommand for transit over the control
// channel.
type controlCommandMsg struct {
	cmd ControlCommand
}

func (instrumentRequest) isControlMsg()      {}
func (watchTaskDetailRequest) isControlMsg() {}
func (controlCommandMsg) isControlMsg()      {}
