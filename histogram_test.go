package taskwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogram_recordDuration(t *testing.T) {
	t.Parallel()

	t.Run(`negative durations clamp to a minimum sample`, func(t *testing.T) {
		t.Parallel()

		h := NewHistogram()
		h.RecordDuration(-time.Second)
		assert.Equal(t, int64(1), h.TotalCount())
	})

	t.Run(`over-max durations saturate rather than error`, func(t *testing.T) {
		t.Parallel()

		h := NewHistogram()
		h.RecordDuration(48 * time.Hour)
		assert.Equal(t, int64(1), h.TotalCount())
	})

	t.Run(`ordinary durations accumulate`, func(t *testing.T) {
		t.Parallel()

		h := NewHistogram()
		h.RecordDuration(time.Millisecond)
		h.RecordDuration(2 * time.Millisecond)
		h.RecordDuration(3 * time.Millisecond)
		assert.Equal(t, int64(3), h.TotalCount())
	})
}

func TestHistogram_serializeRoundTrip(t *testing.T) {
	t.Parallel()

	h := NewHistogram()
	h.RecordDuration(time.Millisecond)
	h.RecordDuration(5 * time.Millisecond)
	h.RecordDuration(10 * time.Millisecond)

	bs, err := h.SerializeV2()
	require.NoError(t, err)
	require.NotEmpty(t, bs)

	h2, err := DeserializeHistogramV2(bs)
	require.NoError(t, err)
	assert.Equal(t, h.TotalCount(), h2.TotalCount())
}
