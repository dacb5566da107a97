package taskwatch

import (
	"sync/atomic"
	"time"
)

// Aggregator is the single-threaded state accumulator described in doc.go.
// Every field below is owned exclusively by the goroutine running Run; the
// only fields touched from other goroutines are intake (already internally
// synchronized), control, done, and stopped.
type Aggregator struct {
	intake *intake
	burst  *BurstDetector
	logger Logger

	publishInterval      time.Duration
	retention            time.Duration
	clientBufferCapacity int
	serverAddr           string

	allMetadata  []Metadata
	newMetadata  []Metadata
	seenMetadata map[uint64]bool

	allPollOps []PollOp
	newPollOps []PollOp

	tasks     *IdData[Task]
	taskStats *IdData[*TaskStats]

	resources     *IdData[Resource]
	resourceStats *IdData[*ResourceStats]

	asyncOps     *IdData[AsyncOp]
	asyncOpStats *IdData[*AsyncOpStats]

	instrumentWatchers []*instrumentWatcher
	taskDetailWatchers map[SpanId][]*taskDetailWatcher

	lastDropCounts DropCounts
	paused         bool

	control chan controlMsg
	done    chan struct{}
	stopped atomic.Bool
}

// newAggregator builds an Aggregator from a validated Builder. It is not yet
// running; Run must be called exactly once, typically from a dedicated
// goroutine.
func newAggregator(b *Builder) *Aggregator {
	return &Aggregator{
		intake: newIntake(b.eventBufferCapacity),
		burst:  NewBurstDetector(b.burstRates),
		logger: b.logger,

		publishInterval:      b.publishInterval,
		retention:            b.retention,
		clientBufferCapacity: b.clientBufferCapacity,
		serverAddr:           b.serverAddr,

		seenMetadata: make(map[uint64]bool),

		tasks:     NewIdData[Task](),
		taskStats: NewIdData[*TaskStats](),

		resources:     NewIdData[Resource](),
		resourceStats: NewIdData[*ResourceStats](),

		asyncOps:     NewIdData[AsyncOp](),
		asyncOpStats: NewIdData[*AsyncOpStats](),

		taskDetailWatchers: make(map[SpanId][]*taskDetailWatcher),

		control: make(chan controlMsg),
		done:    make(chan struct{}),
	}
}

// Submit enqueues ev for processing without blocking. See intake.Submit for
// the shedding policy; the only error this can return is
// ErrAggregatorStopped, once Run has returned.
func (a *Aggregator) Submit(ev Event) error {
	if a.stopped.Load() {
		return ErrAggregatorStopped
	}
	a.intake.Submit(ev)
	return nil
}

// DropCounts reports the lifetime per-category counts of events shed by
// Submit because the intake channel was full.
func (a *Aggregator) DropCounts() DropCounts {
	return a.intake.drops.Snapshot()
}

// ServerAddr returns the address configured via Builder.WithServerAddr, for
// an out-of-scope RPC transport to bind to. The Aggregator itself never
// dials or listens on it.
func (a *Aggregator) ServerAddr() string {
	return a.serverAddr
}

// Close signals Run to stop once every already-submitted event has been
// processed, by closing the intake channel. The caller is responsible for
// ensuring no goroutine calls Submit concurrently with or after Close - a
// send to a closed channel panics, and Submit's ErrAggregatorStopped check
// only covers the window after Run has actually returned, not the window
// during Close itself.
func (a *Aggregator) Close() {
	close(a.intake.ch)
}

// AddInstrumentSubscription registers a new instrument watcher and returns
// its subscription. bufferSize <= 0 uses the Builder's configured client
// buffer capacity. The first update delivered is always a full snapshot of
// every live entity, exactly as if everything had just been marked dirty.
func (a *Aggregator) AddInstrumentSubscription(bufferSize int) (*InstrumentSubscription, error) {
	if bufferSize <= 0 {
		bufferSize = a.clientBufferCapacity
	}
	resultCh := make(chan *InstrumentSubscription, 1)
	req := &instrumentRequest{bufferSize: bufferSize, resultCh: resultCh}

	select {
	case a.control <- req:
	case <-a.done:
		return nil, ErrAggregatorStopped
	}

	select {
	case sub := <-resultCh:
		return sub, nil
	case <-a.done:
		return nil, ErrAggregatorStopped
	}
}

// WatchTaskDetail registers a task-detail watcher for taskID. It fails with
// ErrTaskNotFound if taskID names no currently tracked task (live or within
// retention). bufferSize <= 0 uses the Builder's configured client buffer
// capacity.
func (a *Aggregator) WatchTaskDetail(taskID SpanId, bufferSize int) (*TaskDetailSubscription, error) {
	if bufferSize <= 0 {
		bufferSize = a.clientBufferCapacity
	}
	resultCh := make(chan *TaskDetailSubscription, 1)
	req := &watchTaskDetailRequest{TaskID: taskID, BufferSize: bufferSize, resultCh: resultCh}

	select {
	case a.control <- req:
	case <-a.done:
		return nil, ErrAggregatorStopped
	}

	select {
	case sub, ok := <-resultCh:
		if !ok {
			return nil, ErrTaskNotFound
		}
		return sub, nil
	case <-a.done:
		return nil, ErrAggregatorStopped
	}
}

// Pause and Resume send the advisory control commands named in spec.md
// section 6: while paused, Run keeps draining and updating state (events
// are never dropped because of pause) but skips publish ticks. Both are
// best-effort; once the aggregator has stopped they are silently no-ops.
func (a *Aggregator) Pause()  { a.sendControlCommand(ControlPause) }
func (a *Aggregator) Resume() { a.sendControlCommand(ControlResume) }

func (a *Aggregator) sendControlCommand(cmd ControlCommand) {
	select {
	case a.control <- controlCommandMsg{cmd: cmd}:
	case <-a.done:
	}
}

// Run drives the aggregator's main loop until stop is closed, or (if stop is
// nil) until Close is called and the intake channel has been fully drained.
// It never blocks on receiving an event: every branch of the select below is
// either instantaneous or itself non-blocking, so the aggregator's own
// instrumented activity (publishing, logging) can never wake itself into a
// busy loop.
func (a *Aggregator) Run(stop <-chan struct{}) {
	defer func() {
		a.stopped.Store(true)
		close(a.done)
	}()

	ticker := time.NewTicker(a.publishInterval)
	defer ticker.Stop()

	for {
		shouldSend := false
		select {
		case <-stop:
			return
		case req := <-a.control:
			a.handleControl(req)
		case <-a.intake.flush.ch:
			a.intake.flush.triggered.Store(false)
		case <-ticker.C:
			shouldSend = true
			a.checkBursts()
		}

		// Drain runs after the select resolves, never before it blocks, so
		// every publish is built from events submitted up to this instant -
		// not whatever the previous iteration's drain happened to pull in.
		if !a.intake.drain(a.updateState) {
			return
		}

		if shouldSend && !a.paused {
			a.publish()
		}
		a.cleanupClosed()
	}
}

// handleControl services one control-channel request: a new subscription,
// or a Pause/Resume command.
func (a *Aggregator) handleControl(msg controlMsg) {
	switch req := msg.(type) {
	case *instrumentRequest:
		w := &instrumentWatcher{ch: make(chan *InstrumentUpdate, req.bufferSize)}
		w.send(a.snapshotInstrumentUpdate())
		a.instrumentWatchers = append(a.instrumentWatchers, w)
		req.resultCh <- &InstrumentSubscription{Updates: w.ch}

	case *watchTaskDetailRequest:
		stats, ok := a.taskStats.Get(req.TaskID)
		if !ok {
			close(req.resultCh)
			return
		}
		w := &taskDetailWatcher{ch: make(chan *TaskDetails, req.BufferSize)}
		w.send(a.taskDetailsFor(req.TaskID, *stats))
		a.taskDetailWatchers[req.TaskID] = append(a.taskDetailWatchers[req.TaskID], w)
		req.resultCh <- &TaskDetailSubscription{Details: w.ch}

	case controlCommandMsg:
		switch req.cmd {
		case ControlPause:
			a.paused = true
		case ControlResume:
			a.paused = false
		}
	}
}

// updateState applies one Event to the entity tables. It is the single
// dispatch point named in spec.md section 4.3; every variant of Event is
// handled exactly once.
func (a *Aggregator) updateState(ev Event) {
	switch e := ev.(type) {
	case MetadataEvent:
		a.recordMetadata(e.Metadata)

	case SpawnEvent:
		a.tasks.Insert(e.ID, Task{ID: e.ID, Meta: e.Meta, Fields: e.Fields})
		a.taskStats.Insert(e.ID, newTaskStats(e.At))
		a.recordMetadata(e.Meta)

	case EnterEvent:
		a.updatePollStats(e.ID, func(p *PollStats) { p.updateOnEnter(e.At) })

	case ExitEvent:
		a.applyExit(e.ID, e.At)

	case CloseEvent:
		a.closeEntity(e.ID, e.At)

	case WakerEvent:
		if h, ok := a.taskStats.Update(e.ID); ok {
			(*h.Value()).recordWake(e.Op, e.At)
			h.Release()
		}
		// Wakers for an already-closed or never-seen task are dropped
		// silently, per spec.md section 7.

	case ResourceEvent:
		a.resources.Insert(e.ID, Resource{
			ID:           e.ID,
			Meta:         e.Meta,
			ConcreteType: e.ConcreteType,
			Kind:         e.Kind,
		})
		a.resourceStats.Insert(e.ID, newResourceStats(e.At))
		a.recordMetadata(e.Meta)

	case PollOpEvent:
		op := PollOp{
			Meta:       e.Meta,
			ResourceID: e.ResourceID,
			OpName:     e.OpName,
			AsyncOpID:  e.AsyncOpID,
			TaskID:     e.TaskID,
			Readiness:  e.Readiness,
		}
		a.allPollOps = append(a.allPollOps, op)
		a.newPollOps = append(a.newPollOps, op)
		a.recordMetadata(e.Meta)

		h := a.asyncOpStats.UpdateOrDefault(e.AsyncOpID)
		stats := *h.Value()
		if stats == nil {
			stats = &AsyncOpStats{}
			*h.Value() = stats
		}
		if !stats.HasIDs {
			stats.ResourceID = e.ResourceID
			stats.TaskID = e.TaskID
			stats.HasIDs = true
		}
		stats.Poll.Polls++
		if e.Readiness == ReadinessPending && stats.Poll.FirstPoll.IsZero() {
			stats.Poll.FirstPoll = e.At
		}
		h.Release()

	case StateUpdateEvent:
		if h, ok := a.resourceStats.Update(e.ResourceID); ok {
			if (*h.Value()).applyStateUpdate(e) {
				a.logger.Warn().
					Str("field", e.FieldName).
					Uint64("resource_id", uint64(e.ResourceID)).
					Log("state update kind mismatch, ignoring")
			}
			h.Release()
		}

	case AsyncResourceOpEvent:
		a.asyncOps.Insert(e.ID, AsyncOp{ID: e.ID, Meta: e.Meta, Source: e.Source})
		h := a.asyncOpStats.UpdateOrDefault(e.ID)
		stats := *h.Value()
		if stats == nil {
			stats = &AsyncOpStats{}
			*h.Value() = stats
		}
		if stats.CreatedAt.IsZero() {
			stats.CreatedAt = e.At
		}
		h.Release()
		a.recordMetadata(e.Meta)
	}
}

// recordMetadata registers md the first time its MetaID is seen.
func (a *Aggregator) recordMetadata(md Metadata) {
	if a.seenMetadata[md.MetaID] {
		return
	}
	a.seenMetadata[md.MetaID] = true
	a.allMetadata = append(a.allMetadata, md)
	a.newMetadata = append(a.newMetadata, md)
}

// updatePollStats applies fn to whichever of taskStats or asyncOpStats owns
// id - a span being entered/exited may belong to either table, per spec.md
// section 4.3.
func (a *Aggregator) updatePollStats(id SpanId, fn func(*PollStats)) {
	if h, ok := a.taskStats.Update(id); ok {
		fn(&(*h.Value()).Poll)
		h.Release()
		return
	}
	if h, ok := a.asyncOpStats.Update(id); ok {
		fn(&(*h.Value()).Poll)
		h.Release()
	}
}

// applyExit mirrors updatePollStats for Exit specifically: it also feeds
// the elapsed outermost-poll duration into a task's poll-time histogram,
// per spec.md section 4.3's Exit row ("if task, record into histogram").
// Async ops get the same PollStats bookkeeping but carry no histogram.
func (a *Aggregator) applyExit(id SpanId, at time.Time) {
	if h, ok := a.taskStats.Update(id); ok {
		stats := *h.Value()
		if elapsed, recorded := stats.Poll.updateOnExit(at); recorded && stats.PollTimes != nil {
			stats.PollTimes.RecordDuration(elapsed)
		}
		h.Release()
		return
	}
	if h, ok := a.asyncOpStats.Update(id); ok {
		(*h.Value()).Poll.updateOnExit(at)
		h.Release()
	}
}

// closeEntity marks id closed in whichever stats table currently contains
// it. A Close for an id tracked nowhere is dropped silently.
func (a *Aggregator) closeEntity(id SpanId, at time.Time) {
	if h, ok := a.taskStats.Update(id); ok {
		(*h.Value()).ClosedAt = at
		h.Release()
		return
	}
	if h, ok := a.resourceStats.Update(id); ok {
		(*h.Value()).ClosedAt = at
		h.Release()
		return
	}
	if h, ok := a.asyncOpStats.Update(id); ok {
		(*h.Value()).ClosedAt = at
		h.Release()
	}
}

// publish delivers one InstrumentUpdate to every live instrument watcher,
// and one TaskDetails update to every live task-detail watcher. Watchers
// that can't accept the non-blocking send are dropped, per doc.go's
// subscription semantics.
func (a *Aggregator) publish() {
	if len(a.instrumentWatchers) > 0 {
		update := a.deltaInstrumentUpdate()
		kept := a.instrumentWatchers[:0]
		for _, w := range a.instrumentWatchers {
			if w.send(update) {
				kept = append(kept, w)
			}
		}
		a.instrumentWatchers = kept
	}
	a.newMetadata = nil
	a.newPollOps = nil

	for id, watchers := range a.taskDetailWatchers {
		stats, ok := a.taskStats.Get(id)
		if !ok {
			delete(a.taskDetailWatchers, id)
			continue
		}
		details := a.taskDetailsFor(id, *stats)
		kept := watchers[:0]
		for _, w := range watchers {
			if w.send(details) {
				kept = append(kept, w)
			}
		}
		if len(kept) == 0 {
			delete(a.taskDetailWatchers, id)
		} else {
			a.taskDetailWatchers[id] = kept
		}
	}
}

// deltaInstrumentUpdate builds an InstrumentUpdate from everything dirtied
// since the last publish, draining the new-metadata and new-poll-op lists
// in the process.
func (a *Aggregator) deltaInstrumentUpdate() *InstrumentUpdate {
	now := time.Now()
	update := &InstrumentUpdate{
		Now: now,
		TaskUpdate: TaskUpdate{
			StatsByID: make(map[SpanId]TaskStats),
		},
		ResourceUpdate: ResourceUpdate{
			StatsByID: make(map[SpanId]ResourceStats),
		},
		AsyncOpUpdate: AsyncOpUpdate{
			StatsByID: make(map[SpanId]AsyncOpStats),
		},
	}

	if len(a.newMetadata) > 0 {
		update.NewMetadata = &RegisteredMetadata{Metadata: append([]Metadata(nil), a.newMetadata...)}
	}

	a.tasks.SinceLastUpdate(func(id SpanId, t *Task) bool {
		update.TaskUpdate.NewTasks = append(update.TaskUpdate.NewTasks, *t)
		return true
	})
	a.taskStats.SinceLastUpdate(func(id SpanId, s **TaskStats) bool {
		update.TaskUpdate.StatsByID[id] = **s
		return true
	})

	a.resources.SinceLastUpdate(func(id SpanId, r *Resource) bool {
		update.ResourceUpdate.NewResources = append(update.ResourceUpdate.NewResources, *r)
		return true
	})
	a.resourceStats.SinceLastUpdate(func(id SpanId, s **ResourceStats) bool {
		update.ResourceUpdate.StatsByID[id] = **s
		return true
	})
	update.ResourceUpdate.NewPollOps = append([]PollOp(nil), a.newPollOps...)

	a.asyncOps.SinceLastUpdate(func(id SpanId, o *AsyncOp) bool {
		update.AsyncOpUpdate.NewAsyncOps = append(update.AsyncOpUpdate.NewAsyncOps, *o)
		return true
	})
	a.asyncOpStats.SinceLastUpdate(func(id SpanId, s **AsyncOpStats) bool {
		update.AsyncOpUpdate.StatsByID[id] = **s
		return true
	})

	return update
}

// snapshotInstrumentUpdate builds the full-state InstrumentUpdate delivered
// to a newly-registered instrument watcher: every currently tracked entity,
// regardless of dirty state.
func (a *Aggregator) snapshotInstrumentUpdate() *InstrumentUpdate {
	now := time.Now()
	update := &InstrumentUpdate{
		Now: now,
		TaskUpdate: TaskUpdate{
			StatsByID: make(map[SpanId]TaskStats),
		},
		ResourceUpdate: ResourceUpdate{
			StatsByID: make(map[SpanId]ResourceStats),
		},
		AsyncOpUpdate: AsyncOpUpdate{
			StatsByID: make(map[SpanId]AsyncOpStats),
		},
	}

	if len(a.allMetadata) > 0 {
		update.NewMetadata = &RegisteredMetadata{Metadata: append([]Metadata(nil), a.allMetadata...)}
	}

	a.tasks.All(func(id SpanId, t *Task) bool {
		update.TaskUpdate.NewTasks = append(update.TaskUpdate.NewTasks, *t)
		return true
	})
	a.taskStats.All(func(id SpanId, s **TaskStats) bool {
		update.TaskUpdate.StatsByID[id] = **s
		return true
	})

	a.resources.All(func(id SpanId, r *Resource) bool {
		update.ResourceUpdate.NewResources = append(update.ResourceUpdate.NewResources, *r)
		return true
	})
	a.resourceStats.All(func(id SpanId, s **ResourceStats) bool {
		update.ResourceUpdate.StatsByID[id] = **s
		return true
	})
	update.ResourceUpdate.NewPollOps = append([]PollOp(nil), a.allPollOps...)

	a.asyncOps.All(func(id SpanId, o *AsyncOp) bool {
		update.AsyncOpUpdate.NewAsyncOps = append(update.AsyncOpUpdate.NewAsyncOps, *o)
		return true
	})
	a.asyncOpStats.All(func(id SpanId, s **AsyncOpStats) bool {
		update.AsyncOpUpdate.StatsByID[id] = **s
		return true
	})

	return update
}

// taskDetailsFor builds a TaskDetails message for id from its current
// stats. A histogram serialization failure yields a nil
// PollTimesHistogram rather than an error, per spec.md section 7.
func (a *Aggregator) taskDetailsFor(id SpanId, stats *TaskStats) *TaskDetails {
	details := &TaskDetails{TaskID: id, Now: time.Now()}
	if stats.PollTimes != nil {
		if bs, err := stats.PollTimes.SerializeV2(); err == nil {
			details.PollTimesHistogram = bs
		} else {
			a.logger.Warn().
				Uint64("task_id", uint64(id)).
				Err(err).
				Log("failed to serialize poll-time histogram")
		}
	}
	return details
}

// cleanupClosed runs the retention-based GC pass from spec.md section 4.6
// across all three entity kinds: stats tables are pruned first, then their
// paired static tables, keeping the two always in lockstep.
func (a *Aggregator) cleanupClosed() {
	now := time.Now()

	droppedTasks := dropClosedStats(a.taskStats, now, a.retention, len(a.instrumentWatchers) > 0)
	pruneStatic(a.tasks, droppedTasks)
	for _, id := range droppedTasks {
		delete(a.taskDetailWatchers, id)
	}

	droppedResources := dropClosedStats(a.resourceStats, now, a.retention, len(a.instrumentWatchers) > 0)
	pruneStatic(a.resources, droppedResources)

	droppedAsyncOps := dropClosedStats(a.asyncOpStats, now, a.retention, len(a.instrumentWatchers) > 0)
	pruneStatic(a.asyncOps, droppedAsyncOps)
}

// checkBursts samples the lifetime drop counters and feeds the delta since
// the last tick through BurstDetector, logging once per Allowed -> bursting
// transition. This runs on the aggregator's own goroutine rather than
// inside Submit: BurstDetector, like the logger, is single-owner state per
// spec.md section 5's "exactly three items cross the thread boundary" rule,
// so it only ever observes the shared atomic drop counters, never the
// producer side directly.
func (a *Aggregator) checkBursts() {
	counts := a.intake.drops.Snapshot()
	a.recordBurstDelta(DropCategoryTasks, counts.Tasks, &a.lastDropCounts.Tasks)
	a.recordBurstDelta(DropCategoryResources, counts.Resources, &a.lastDropCounts.Resources)
	a.recordBurstDelta(DropCategoryAsyncOps, counts.AsyncOps, &a.lastDropCounts.AsyncOps)
}

func (a *Aggregator) recordBurstDelta(cat DropCategory, current uint64, last *uint64) {
	delta := current - *last
	*last = current
	for i := uint64(0); i < delta; i++ {
		if a.burst.Record(cat) {
			a.logger.Warn().Str("category", cat.String()).Log("sustained event shedding detected")
			break
		}
	}
}
