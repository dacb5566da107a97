package taskwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollStats_enterExit(t *testing.T) {
	t.Parallel()

	t0 := time.Unix(0, 0)

	t.Run(`single poll`, func(t *testing.T) {
		t.Parallel()

		var p PollStats
		p.updateOnEnter(t0)
		assert.Equal(t, int64(1), p.CurrentPolls)
		assert.Equal(t, uint64(1), p.Polls)
		assert.Equal(t, t0, p.FirstPoll)

		elapsed, recorded := p.updateOnExit(t0.Add(10 * time.Millisecond))
		assert.Equal(t, int64(0), p.CurrentPolls)
		assert.Equal(t, 10*time.Millisecond, p.BusyTime)
		assert.Equal(t, t0.Add(10*time.Millisecond), p.LastPollEnded)
		assert.True(t, recorded)
		assert.Equal(t, 10*time.Millisecond, elapsed)
	})

	t.Run(`nested poll only counts outermost busy time`, func(t *testing.T) {
		t.Parallel()

		var p PollStats
		p.updateOnEnter(t0)
		p.updateOnEnter(t0.Add(time.Millisecond))
		assert.Equal(t, int64(2), p.CurrentPolls)
		// Polls and FirstPoll only move on the 0->1 transition.
		assert.Equal(t, uint64(1), p.Polls)

		_, recorded := p.updateOnExit(t0.Add(5 * time.Millisecond))
		assert.Equal(t, int64(1), p.CurrentPolls)
		assert.Zero(t, p.BusyTime, "busy time must not accrue until the outermost exit")
		assert.False(t, recorded, "an inner exit is not the histogram-recording transition")

		elapsed, recorded := p.updateOnExit(t0.Add(8 * time.Millisecond))
		assert.Equal(t, int64(0), p.CurrentPolls)
		assert.Equal(t, 8*time.Millisecond, p.BusyTime)
		assert.True(t, recorded)
		assert.Equal(t, 8*time.Millisecond, elapsed, "elapsed is measured from the outermost Enter, not the inner one")
	})

	t.Run(`exit without enter is ignored`, func(t *testing.T) {
		t.Parallel()

		var p PollStats
		_, recorded := p.updateOnExit(t0)
		assert.Equal(t, int64(0), p.CurrentPolls)
		assert.Zero(t, p.BusyTime)
		assert.False(t, recorded)
	})

	t.Run(`clock skew clamps busy time accrual to zero`, func(t *testing.T) {
		t.Parallel()

		var p PollStats
		p.updateOnEnter(t0)
		elapsed, recorded := p.updateOnExit(t0.Add(-time.Second))
		assert.Zero(t, p.BusyTime)
		assert.True(t, recorded)
		assert.Zero(t, elapsed, "negative duration from clock skew is clamped to zero")
	})
}
