package taskwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceStats_applyStateUpdate(t *testing.T) {
	t.Parallel()

	key := FieldKey{MetaID: 1, FieldName: "count"}

	t.Run(`new attribute is inserted regardless of op`, func(t *testing.T) {
		t.Parallel()

		r := newResourceStats(time.Unix(0, 0))
		warn := r.applyStateUpdate(StateUpdateEvent{
			MetaID:    key.MetaID,
			FieldName: key.FieldName,
			Op:        AttributeUpdateSub,
			Value:     AttributeValue{Kind: AttributeValueU64, U64: 3},
		})
		require.False(t, warn)
		assert.Equal(t, uint64(3), r.Attributes[key].Value.U64)
	})

	t.Run(`add and sub accumulate for u64`, func(t *testing.T) {
		t.Parallel()

		r := newResourceStats(time.Unix(0, 0))
		r.Attributes[key] = Attribute{Value: AttributeValue{Kind: AttributeValueU64, U64: 10}}

		warn := r.applyStateUpdate(StateUpdateEvent{
			MetaID: key.MetaID, FieldName: key.FieldName,
			Op: AttributeUpdateAdd, Value: AttributeValue{Kind: AttributeValueU64, U64: 5},
		})
		require.False(t, warn)
		assert.Equal(t, uint64(15), r.Attributes[key].Value.U64)

		warn = r.applyStateUpdate(StateUpdateEvent{
			MetaID: key.MetaID, FieldName: key.FieldName,
			Op: AttributeUpdateSub, Value: AttributeValue{Kind: AttributeValueU64, U64: 4},
		})
		require.False(t, warn)
		assert.Equal(t, uint64(11), r.Attributes[key].Value.U64)
	})

	t.Run(`mismatched variant warns and leaves value unchanged`, func(t *testing.T) {
		t.Parallel()

		r := newResourceStats(time.Unix(0, 0))
		r.Attributes[key] = Attribute{Value: AttributeValue{Kind: AttributeValueU64, U64: 10}}

		warn := r.applyStateUpdate(StateUpdateEvent{
			MetaID: key.MetaID, FieldName: key.FieldName,
			Op: AttributeUpdateOverride, Value: AttributeValue{Kind: AttributeValueBool, Bool: true},
		})
		assert.True(t, warn)
		assert.Equal(t, uint64(10), r.Attributes[key].Value.U64)
	})

	t.Run(`add/sub are no-ops for string attributes, override applies`, func(t *testing.T) {
		t.Parallel()

		r := newResourceStats(time.Unix(0, 0))
		r.Attributes[key] = Attribute{Value: AttributeValue{Kind: AttributeValueStr, Str: "a"}}

		warn := r.applyStateUpdate(StateUpdateEvent{
			MetaID: key.MetaID, FieldName: key.FieldName,
			Op: AttributeUpdateAdd, Value: AttributeValue{Kind: AttributeValueStr, Str: "b"},
		})
		require.False(t, warn)
		assert.Equal(t, "a", r.Attributes[key].Value.Str, "add is meaningless for strings")

		warn = r.applyStateUpdate(StateUpdateEvent{
			MetaID: key.MetaID, FieldName: key.FieldName,
			Op: AttributeUpdateOverride, Value: AttributeValue{Kind: AttributeValueStr, Str: "b"},
		})
		require.False(t, warn)
		assert.Equal(t, "b", r.Attributes[key].Value.Str)
	})

	t.Run(`unit is updated only when non-empty`, func(t *testing.T) {
		t.Parallel()

		r := newResourceStats(time.Unix(0, 0))
		r.Attributes[key] = Attribute{Value: AttributeValue{Kind: AttributeValueU64}, Unit: "bytes"}

		r.applyStateUpdate(StateUpdateEvent{
			MetaID: key.MetaID, FieldName: key.FieldName,
			Op: AttributeUpdateOverride, Value: AttributeValue{Kind: AttributeValueU64, U64: 1},
		})
		assert.Equal(t, "bytes", r.Attributes[key].Unit)

		r.applyStateUpdate(StateUpdateEvent{
			MetaID: key.MetaID, FieldName: key.FieldName,
			Op: AttributeUpdateOverride, Value: AttributeValue{Kind: AttributeValueU64, U64: 2}, Unit: "kb",
		})
		assert.Equal(t, "kb", r.Attributes[key].Unit)
	})
}
