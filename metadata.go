package taskwatch

// SpanId is the opaque entity handle allocated by the upstream tracing
// layer. It is unique within the process lifetime and stable for the
// lifetime of the entity it names.
type SpanId uint64

// FieldSchema describes one field of a callsite's record, as captured by
// the instrumentation front-end (out of scope for this package).
type FieldSchema struct {
	Name string
	Unit string
}

// Metadata is an immutable descriptor of a callsite: a span or event
// definition fixed at compile time by the instrumented program. Metadata
// records are never mutated after creation; they are identified by MetaID,
// an opaque handle assigned by the same upstream layer that allocates
// SpanIds.
type Metadata struct {
	MetaID  uint64
	Name    string
	Target  string
	Level   string
	File    string
	Line    uint32
	Fields  []FieldSchema
}
