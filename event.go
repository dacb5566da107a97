package taskwatch

import "time"

// Event is the tagged union consumed by the Aggregator. The instrumentation
// front-end (out of scope) is the only producer; see the concrete event
// types below for the full variant set named in spec.md section 4.3.
type Event interface {
	// isEvent is unexported so Event can only be implemented by the
	// variants declared in this file.
	isEvent()
}

// MetadataEvent registers a callsite descriptor. Metadata references are
// assumed live for the process lifetime.
type MetadataEvent struct {
	Metadata Metadata
}

// SpawnEvent records the creation of a task.
type SpawnEvent struct {
	ID     SpanId
	Meta   Metadata
	At     time.Time
	Fields []FieldSchema
}

// EnterEvent records entry into a poll of a task or async op. Spans may be
// re-entered while still entered (nested polls); see PollStats.
type EnterEvent struct {
	ID SpanId
	At time.Time
}

// ExitEvent mirrors EnterEvent, marking the end of one poll invocation.
type ExitEvent struct {
	ID SpanId
	At time.Time
}

// CloseEvent marks an entity (task, resource, or async op) as finished. It
// is applied to whichever stats table currently contains ID.
type CloseEvent struct {
	ID SpanId
	At time.Time
}

// WakeOp enumerates the waker lifecycle operations that WakerEvent reports.
type WakeOp uint8

const (
	// WakeOpWake is a wake-by-value, which implicitly drops the waker (the
	// wake call consumes it). See update_state in the teacher's aggregator
	// for why this also increments waker_drops.
	WakeOpWake WakeOp = iota
	// WakeOpWakeByRef wakes without consuming the waker.
	WakeOpWakeByRef
	// WakeOpClone increments the live-waker count.
	WakeOpClone
	// WakeOpDrop decrements the live-waker count.
	WakeOpDrop
)

// WakerEvent reports one waker lifecycle operation against a task. Wakers
// arriving after the task has closed are dropped silently by the
// aggregator.
type WakerEvent struct {
	ID SpanId
	Op WakeOp
	At time.Time
}

// ResourceKind classifies a Resource's origin - a timer, a synchronization
// primitive, an I/O handle, and so on. The concrete set is defined by the
// instrumentation front-end; this package only stores and forwards it.
type ResourceKind string

// ResourceEvent records the creation of a resource.
type ResourceEvent struct {
	ID           SpanId
	Meta         Metadata
	At           time.Time
	ConcreteType string
	Kind         ResourceKind

	// IsInternal and InheritChildAttrs are accepted by the ingress schema
	// but do not affect the aggregator's state machine in this core; they
	// are reserved for future use (see spec.md section 9).
	IsInternal        bool
	InheritChildAttrs bool
}

// Readiness is the outcome of one poll invocation against an async
// operation.
type Readiness uint8

const (
	ReadinessPending Readiness = iota
	ReadinessReady
)

// PollOpEvent records one poll invocation against a (resource, async op,
// task) triple.
type PollOpEvent struct {
	Meta        Metadata
	At          time.Time
	ResourceID  SpanId
	OpName      string
	AsyncOpID   SpanId
	TaskID      SpanId
	Readiness   Readiness
}

// AttributeValueKind discriminates the variant stored in an AttributeValue.
type AttributeValueKind uint8

const (
	AttributeValueBool AttributeValueKind = iota
	AttributeValueStr
	AttributeValueDebug
	AttributeValueU64
	AttributeValueI64
)

// AttributeValue is a typed field value, permissively typed per variant -
// mixing variants on update is a documented no-op (see StateUpdateEvent).
type AttributeValue struct {
	Kind  AttributeValueKind
	Bool  bool
	Str   string
	Debug string
	U64   uint64
	I64   int64
}

// SameVariant reports whether v and other carry the same Kind.
func (v AttributeValue) SameVariant(other AttributeValue) bool {
	return v.Kind == other.Kind
}

// Attribute is a resource's field value with an optional unit string.
type Attribute struct {
	Value AttributeValue
	Unit  string // empty means "no unit"
}

// FieldKey identifies one resource attribute slot: the callsite metadata it
// was declared against, plus its field name.
type FieldKey struct {
	MetaID    uint64
	FieldName string
}

// AttributeUpdateOp is the arithmetic operation StateUpdateEvent applies to
// an existing attribute.
type AttributeUpdateOp uint8

const (
	AttributeUpdateAdd AttributeUpdateOp = iota
	AttributeUpdateSub
	AttributeUpdateOverride
)

// StateUpdateEvent applies an arithmetic update to one field of a
// resource's attribute map, identified by FieldKey. If no attribute exists
// yet at that key, the update is inserted as a new attribute instead of
// applied. Mismatched value types (Op against an existing attribute of a
// different AttributeValueKind) are a no-op with a warning.
type StateUpdateEvent struct {
	ResourceID SpanId
	MetaID     uint64
	FieldName  string
	Op         AttributeUpdateOp
	Value      AttributeValue
	Unit       string
}

// AsyncResourceOpEvent records the creation of an async operation, naming
// the resource and operation it belongs to.
type AsyncResourceOpEvent struct {
	ID     SpanId
	Source string
	Meta   Metadata
	At     time.Time
}

func (MetadataEvent) isEvent()        {}
func (SpawnEvent) isEvent()           {}
func (EnterEvent) isEvent()           {}
func (ExitEvent) isEvent()            {}
func (CloseEvent) isEvent()           {}
func (WakerEvent) isEvent()           {}
func (ResourceEvent) isEvent()        {}
func (PollOpEvent) isEvent()          {}
func (StateUpdateEvent) isEvent()     {}
func (AsyncResourceOpEvent) isEvent() {}
