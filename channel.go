package taskwatch

import "sync/atomic"

// DropCategory names which per-category counter a shed event increments.
type DropCategory uint8

const (
	DropCategoryTasks DropCategory = iota
	DropCategoryResources
	DropCategoryAsyncOps
)

func (c DropCategory) String() string {
	switch c {
	case DropCategoryTasks:
		return "tasks"
	case DropCategoryResources:
		return "resources"
	case DropCategoryAsyncOps:
		return "async_ops"
	default:
		return "unknown"
	}
}

// eventOf maps an Event to the DropCategory it is accounted against when
// shed. StateUpdateEvent always carries a ResourceID and targets a
// resource's attribute map, so it routes to DropCategoryResources like
// ResourceEvent itself. Variants with no natural per-category home
// (Metadata, Waker) fall back to DropCategoryTasks - mirroring the
// upstream dropped_tasks/dropped_resources/dropped_async_ops counters,
// which are likewise coarse-grained.
func eventOf(ev Event) DropCategory {
	switch ev.(type) {
	case ResourceEvent, StateUpdateEvent:
		return DropCategoryResources
	case AsyncResourceOpEvent, PollOpEvent:
		return DropCategoryAsyncOps
	default:
		return DropCategoryTasks
	}
}

// dropCounters holds the lifetime per-category counts of events shed
// because the intake channel was full. Shared between arbitrary producer
// goroutines (atomic increments) and the aggregator goroutine (plain
// reads), per spec.md section 5's "shared state" list.
type dropCounters struct {
	tasks     atomic.Uint64
	resources atomic.Uint64
	asyncOps  atomic.Uint64
}

func (c *dropCounters) incr(cat DropCategory) {
	switch cat {
	case DropCategoryTasks:
		c.tasks.Add(1)
	case DropCategoryResources:
		c.resources.Add(1)
	case DropCategoryAsyncOps:
		c.asyncOps.Add(1)
	}
}

// Snapshot reports the current lifetime drop counts.
func (c *dropCounters) Snapshot() DropCounts {
	return DropCounts{
		Tasks:     c.tasks.Load(),
		Resources: c.resources.Load(),
		AsyncOps:  c.asyncOps.Load(),
	}
}

// DropCounts is a point-in-time read of the lifetime shed counters.
type DropCounts struct {
	Tasks     uint64
	Resources uint64
	AsyncOps  uint64
}

// flushSignal is a single-slot wake-up, armed by producers approaching
// capacity and consumed by the aggregator's main loop. The CAS-guarded
// triggered flag collapses concurrent arms into a single wake, the same
// coalescing idiom the teacher's eventloop package uses for its own
// wake-up channel (see eventloop's wakeup_linux.go and the Flush/triggered
// pairing named explicitly in spec.md sections 4.1 and 9).
type flushSignal struct {
	triggered atomic.Bool
	ch        chan struct{}
}

func newFlushSignal() *flushSignal {
	return &flushSignal{ch: make(chan struct{}, 1)}
}

// arm requests a flush wake-up. It is a no-op if one is already pending.
func (f *flushSignal) arm() {
	if f.triggered.CompareAndSwap(false, true) {
		select {
		case f.ch <- struct{}{}:
		default:
		}
	}
}

// intake is the bounded event channel plus the bookkeeping around it: the
// channel capacity is a bounded MPSC queue, as specified in spec.md section
// 4.1 - a buffered Go channel already provides try-send (via select with a
// default case) and a thread-safe capacity check (via len/cap), so no
// custom ring buffer is needed for this role (contrast with eventloop's
// MicrotaskRing, built by hand because Rust's mpsc lacks this).
type intake struct {
	ch    chan Event
	drops dropCounters
	flush *flushSignal
}

func newIntake(capacity int) *intake {
	return &intake{
		ch:    make(chan Event, capacity),
		flush: newFlushSignal(),
	}
}

// Submit attempts to enqueue ev without blocking. On success it also arms
// the flush signal once remaining capacity drops below half, so the
// aggregator can react before events are lost when it is merely behind
// schedule. On a full channel, ev is dropped and the matching category
// counter is incremented. Submit must never be called concurrently with
// or after Close.
func (in *intake) Submit(ev Event) {
	select {
	case in.ch <- ev:
		if cap(in.ch) > 0 && len(in.ch) >= cap(in.ch)/2 {
			in.flush.arm()
		}
	default:
		// Full. Go channels panic on send to a closed channel rather than
		// dropping silently, so Submit must never be called concurrently
		// with or after Close - see Close's doc comment in aggregator.go.
		in.drops.incr(eventOf(ev))
	}
}

// drain pulls every currently-queued event, calling handle for each, until
// the channel is empty. It never blocks on a receive - the critical rule
// from spec.md section 4.5: awaiting a single event would let the
// aggregator's own instrumented activity wake itself into a busy loop.
// drain returns false once the channel has been closed and fully drained,
// signaling the aggregator to terminate.
func (in *intake) drain(handle func(Event)) (open bool) {
	for {
		select {
		case ev, ok := <-in.ch:
			if !ok {
				return false
			}
			handle(ev)
		default:
			return true
		}
	}
}
