package taskwatch

import "time"

// Resource is the immutable, static record created by a ResourceEvent.
type Resource struct {
	ID           SpanId
	Meta         Metadata
	ConcreteType string
	Kind         ResourceKind
}

// ResourceStats is the mutable record of a resource's lifecycle and
// attribute state.
type ResourceStats struct {
	CreatedAt  time.Time
	ClosedAt   time.Time
	Attributes map[FieldKey]Attribute
}

func newResourceStats(at time.Time) *ResourceStats {
	return &ResourceStats{
		CreatedAt:  at,
		Attributes: make(map[FieldKey]Attribute),
	}
}

// ClosedAtTime implements closable.
func (r *ResourceStats) ClosedAtTime() time.Time { return r.ClosedAt }

// applyStateUpdate applies ev to r's attribute map. If no attribute exists
// yet at ev's FieldKey, ev is inserted as a new attribute outright,
// regardless of Op - there is nothing to add/subtract/override against. If
// one does exist and its AttributeValueKind doesn't match ev.Value.Kind,
// the update is a no-op; the caller is expected to log a warning in that
// case (see spec.md section 7).
func (r *ResourceStats) applyStateUpdate(ev StateUpdateEvent) (warn bool) {
	key := FieldKey{MetaID: ev.MetaID, FieldName: ev.FieldName}
	existing, ok := r.Attributes[key]
	if !ok {
		r.Attributes[key] = Attribute{Value: ev.Value, Unit: ev.Unit}
		return false
	}

	if !existing.Value.SameVariant(ev.Value) {
		return true
	}

	updated := existing.Value
	switch existing.Value.Kind {
	case AttributeValueU64:
		switch ev.Op {
		case AttributeUpdateAdd:
			updated.U64 += ev.Value.U64
		case AttributeUpdateSub:
			updated.U64 -= ev.Value.U64
		case AttributeUpdateOverride:
			updated.U64 = ev.Value.U64
		}
	case AttributeValueI64:
		switch ev.Op {
		case AttributeUpdateAdd:
			updated.I64 += ev.Value.I64
		case AttributeUpdateSub:
			updated.I64 -= ev.Value.I64
		case AttributeUpdateOverride:
			updated.I64 = ev.Value.I64
		}
	case AttributeValueBool, AttributeValueStr, AttributeValueDebug:
		// Add/Sub are meaningless for these variants; only Override applies.
		// Anything else leaves the value unchanged, matching the
		// permissive semantics spec.md section 9 calls for.
		if ev.Op == AttributeUpdateOverride {
			updated = ev.Value
		}
	}

	existing.Value = updated
	if ev.Unit != "" {
		existing.Unit = ev.Unit
	}
	r.Attributes[key] = existing
	return false
}
