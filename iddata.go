package taskwatch

import "time"

// closable is implemented by every *Stats type so drop_closed (dropClosed)
// can be written once, generically, rather than once per entity kind.
type closable interface {
	ClosedAtTime() time.Time
}

// idEntry is one (value, dirty) pair tracked by IdData.
type idEntry[T any] struct {
	value T
	dirty bool
}

// IdData is a mapping from SpanId to a (T, dirty-bit) pair. It is owned
// exclusively by the Aggregator's single goroutine and is therefore
// deliberately not safe for concurrent use - see spec.md section 5.
//
// Writes made through Update/UpdateOrDefault set dirty=true only when the
// returned Handle is released, coalescing multiple field writes inside one
// event handler into a single dirty transition (spec.md section 4.2's
// design note).
type IdData[T any] struct {
	data map[SpanId]*idEntry[T]
}

// NewIdData constructs an empty table.
func NewIdData[T any]() *IdData[T] {
	return &IdData[T]{data: make(map[SpanId]*idEntry[T])}
}

// Handle is a scoped mutable reference into an IdData entry. Release must
// be called after the mutation is complete; it is what actually sets the
// dirty bit. A Handle obtained from a lookup that failed (ok=false from
// Update) is the zero value and Release is a no-op on it.
type Handle[T any] struct {
	e *idEntry[T]
}

// Value returns a pointer to the entry's value for in-place mutation.
func (h Handle[T]) Value() *T {
	return &h.e.value
}

// Release marks the entry dirty. It is safe to call multiple times.
func (h Handle[T]) Release() {
	if h.e != nil {
		h.e.dirty = true
	}
}

// Insert sets the entry for id, marking it dirty. Any previous value is
// discarded.
func (d *IdData[T]) Insert(id SpanId, value T) {
	d.data[id] = &idEntry[T]{value: value, dirty: true}
}

// Update returns a Handle for in-place mutation of an existing entry. ok is
// false if id is absent, in which case the returned Handle must not be
// used.
func (d *IdData[T]) Update(id SpanId) (h Handle[T], ok bool) {
	e, ok := d.data[id]
	if !ok {
		return Handle[T]{}, false
	}
	return Handle[T]{e: e}, true
}

// UpdateOrDefault returns a Handle for id, inserting a zero-value T first
// if absent.
func (d *IdData[T]) UpdateOrDefault(id SpanId) Handle[T] {
	e, ok := d.data[id]
	if !ok {
		e = &idEntry[T]{}
		d.data[id] = e
	}
	return Handle[T]{e: e}
}

// Get performs a read-only lookup; it never mutates the dirty bit.
func (d *IdData[T]) Get(id SpanId) (*T, bool) {
	e, ok := d.data[id]
	if !ok {
		return nil, false
	}
	return &e.value, true
}

// Len returns the number of tracked entries.
func (d *IdData[T]) Len() int {
	return len(d.data)
}

// SinceLastUpdate yields every dirty entry, clearing its dirty bit as it is
// yielded. Each entry is yielded at most once per call - a subsequent call
// with no intervening writes yields nothing, matching spec.md section 8's
// idempotence property.
func (d *IdData[T]) SinceLastUpdate(yield func(SpanId, *T) bool) {
	for id, e := range d.data {
		if !e.dirty {
			continue
		}
		e.dirty = false
		if !yield(id, &e.value) {
			return
		}
	}
}

// All yields every entry regardless of dirty state, without clearing dirty
// bits. Used for initial subscription snapshots.
func (d *IdData[T]) All(yield func(SpanId, *T) bool) {
	for id, e := range d.data {
		if !yield(id, &e.value) {
			return
		}
	}
}

// dropClosed implements the retention GC rule from spec.md section 4.6: an
// entry is dropped iff it is closed, and neither (hasWatchers && dirty) nor
// (closedFor <= retention) holds. statsDropped reports which ids were
// removed from the stats table, so the caller can prune the matching static
// table afterwards - stats are always pruned before or with their static
// partner, per the invariant in spec.md section 3.
func dropClosedStats[T closable](d *IdData[T], now time.Time, retention time.Duration, hasWatchers bool) (dropped []SpanId) {
	for id, e := range d.data {
		closedAt := e.value.ClosedAtTime()
		if closedAt.IsZero() {
			continue
		}

		closedFor := now.Sub(closedAt)
		if hasWatchers && e.dirty {
			continue
		}
		if closedFor <= retention {
			continue
		}

		delete(d.data, id)
		dropped = append(dropped, id)
	}
	return dropped
}

// pruneStatic removes the given ids (freshly dropped from a stats table) from
// the paired static table, so the two tables stay in lockstep per spec.md
// section 4.6: "retain static-table entries only for ids still present in
// stats".
func pruneStatic[S any](static *IdData[S], ids []SpanId) {
	for _, id := range ids {
		delete(static.data, id)
	}
}
