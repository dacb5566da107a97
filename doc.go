// Package taskwatch implements an in-process async-runtime observability
// subscriber: it consumes a stream of lifecycle and scheduling events
// emitted by an asynchronous task runtime (task spawns, waker operations,
// poll enter/exit, resource creation, async-operation poll outcomes,
// resource-attribute updates), maintains a normalized in-memory model of
// live and recently-closed entities, and multiplexes that model out to two
// kinds of subscribers: a global instrument stream of periodic delta
// updates, and per-task detail streams carrying poll-time histograms.
//
// # Architecture
//
// The package centers on [Aggregator], a single-threaded state accumulator
// that owns all entity tables exclusively - no locks guard them. Producers
// on arbitrary goroutines push [Event] values onto a bounded channel via
// [Aggregator.Submit]; a single call to [Aggregator.Run] drains that channel
// non-blockingly inside a four-way select loop (publish tick, capacity-flush
// notify, new subscription, or drain), so the aggregator's own instrumented
// activity can never wake itself into a busy loop.
//
// # Shedding
//
// The event channel has finite capacity. When full, [Aggregator.Submit]
// drops the event and increments a per-category counter rather than
// blocking a runtime-critical producer thread. When remaining capacity
// falls below half, a single-slot flush signal is armed so the aggregator
// drains promptly without waiting for the next publish tick.
//
// # Subscriptions
//
// An instrument subscription receives an initial full snapshot followed by
// periodic deltas of everything dirtied since the last publish. A task
// detail subscription receives an initial snapshot followed by periodic
// updates to a single task's poll-time histogram. Both kinds use
// non-blocking delivery: a subscriber that cannot keep up is dropped
// silently rather than stalling the others.
package taskwatch
