package taskwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntake_submitAndDrain(t *testing.T) {
	t.Parallel()

	in := newIntake(4)
	in.Submit(SpawnEvent{ID: 1, At: time.Now()})
	in.Submit(SpawnEvent{ID: 2, At: time.Now()})

	var got []SpanId
	open := in.drain(func(ev Event) {
		got = append(got, ev.(SpawnEvent).ID)
	})
	assert.True(t, open)
	assert.Equal(t, []SpanId{1, 2}, got)

	// A second drain with nothing queued returns immediately, without
	// blocking - the non-blocking contract under test.
	called := false
	open = in.drain(func(Event) { called = true })
	assert.True(t, open)
	assert.False(t, called)
}

func TestIntake_shedsOnFullCapacity(t *testing.T) {
	t.Parallel()

	in := newIntake(2)
	in.Submit(ResourceEvent{ID: 1})
	in.Submit(ResourceEvent{ID: 2})
	in.Submit(ResourceEvent{ID: 3}) // shed: channel full

	counts := in.drops.Snapshot()
	assert.Equal(t, uint64(1), counts.Resources)
	assert.Zero(t, counts.Tasks)
}

func TestIntake_drainReportsClosed(t *testing.T) {
	t.Parallel()

	in := newIntake(2)
	in.Submit(SpawnEvent{ID: 1})
	close(in.ch)

	var got []SpanId
	open := in.drain(func(ev Event) {
		got = append(got, ev.(SpawnEvent).ID)
	})
	assert.False(t, open)
	assert.Equal(t, []SpanId{1}, got)
}

func TestFlushSignal_coalescesConcurrentArms(t *testing.T) {
	t.Parallel()

	f := newFlushSignal()
	f.arm()
	f.arm() // no-op: already armed

	select {
	case <-f.ch:
	default:
		t.Fatal("expected a pending signal")
	}

	select {
	case <-f.ch:
		t.Fatal("expected only one coalesced signal")
	default:
	}
}

func TestEventOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ev   Event
		want DropCategory
	}{
		{"spawn", SpawnEvent{}, DropCategoryTasks},
		{"resource", ResourceEvent{}, DropCategoryResources},
		{"async op", AsyncResourceOpEvent{}, DropCategoryAsyncOps},
		{"poll op", PollOpEvent{}, DropCategoryAsyncOps},
		{"waker", WakerEvent{}, DropCategoryTasks},
		{"state update", StateUpdateEvent{}, DropCategoryResources},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, eventOf(tc.ev))
		})
	}
}
