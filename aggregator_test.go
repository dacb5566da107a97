package taskwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_spawnPollClose(t *testing.T) {
	t.Parallel()

	agg := newAggregator(NewBuilder())
	meta := Metadata{MetaID: 1, Name: "task"}
	now := time.Unix(100, 0)

	agg.updateState(MetadataEvent{Metadata: meta})
	agg.updateState(SpawnEvent{ID: 1, Meta: meta, At: now})
	agg.updateState(EnterEvent{ID: 1, At: now})
	agg.updateState(ExitEvent{ID: 1, At: now.Add(time.Millisecond)})
	agg.updateState(CloseEvent{ID: 1, At: now.Add(2 * time.Millisecond)})

	statsPtr, ok := agg.taskStats.Get(1)
	require.True(t, ok)
	stats := *statsPtr
	assert.Equal(t, uint64(1), stats.Poll.Polls)
	assert.Equal(t, time.Millisecond, stats.Poll.BusyTime)
	assert.False(t, stats.ClosedAt.IsZero())
	assert.Len(t, agg.allMetadata, 1)
	assert.EqualValues(t, 1, stats.PollTimes.TotalCount(), "the outermost Exit must record a histogram sample")
}

func TestAggregator_nestedEnter(t *testing.T) {
	t.Parallel()

	agg := newAggregator(NewBuilder())
	now := time.Unix(0, 0)
	agg.updateState(SpawnEvent{ID: 1, At: now})
	agg.updateState(EnterEvent{ID: 1, At: now})
	agg.updateState(EnterEvent{ID: 1, At: now.Add(time.Millisecond)})
	agg.updateState(ExitEvent{ID: 1, At: now.Add(2 * time.Millisecond)})

	statsPtr, _ := agg.taskStats.Get(1)
	assert.Equal(t, int64(1), (*statsPtr).Poll.CurrentPolls, "still one level of entry remaining")
	assert.EqualValues(t, 0, (*statsPtr).PollTimes.TotalCount(), "no histogram sample until the outermost exit")

	agg.updateState(ExitEvent{ID: 1, At: now.Add(3 * time.Millisecond)})
	statsPtr, _ = agg.taskStats.Get(1)
	assert.Equal(t, int64(0), (*statsPtr).Poll.CurrentPolls)
	assert.Equal(t, uint64(1), (*statsPtr).Poll.Polls, "Polls only counts the outermost entry")
	assert.EqualValues(t, 1, (*statsPtr).PollTimes.TotalCount(), "one sample, measured from the outermost Enter")
}

func TestAggregator_wakerAccounting(t *testing.T) {
	t.Parallel()

	agg := newAggregator(NewBuilder())
	now := time.Unix(0, 0)
	agg.updateState(SpawnEvent{ID: 1, At: now})
	agg.updateState(WakerEvent{ID: 1, Op: WakeOpWake, At: now})

	statsPtr, _ := agg.taskStats.Get(1)
	stats := *statsPtr
	assert.EqualValues(t, 1, stats.Wakes)
	assert.EqualValues(t, 1, stats.WakerDrops, "wake-by-value also counts as a waker drop")
}

func TestAggregator_wakerForUnknownTaskIsDropped(t *testing.T) {
	t.Parallel()

	agg := newAggregator(NewBuilder())
	assert.NotPanics(t, func() {
		agg.updateState(WakerEvent{ID: 999, Op: WakeOpWake, At: time.Now()})
	})
	_, ok := agg.taskStats.Get(999)
	assert.False(t, ok)
}

func TestAggregator_resourceAndStateUpdate(t *testing.T) {
	t.Parallel()

	agg := newAggregator(NewBuilder())
	meta := Metadata{MetaID: 2, Name: "resource"}
	agg.updateState(ResourceEvent{ID: 10, Meta: meta, ConcreteType: "Mutex", Kind: "sync"})
	agg.updateState(StateUpdateEvent{
		ResourceID: 10, MetaID: meta.MetaID, FieldName: "count",
		Op: AttributeUpdateAdd, Value: AttributeValue{Kind: AttributeValueU64, U64: 1},
	})

	statsPtr, ok := agg.resourceStats.Get(10)
	require.True(t, ok)
	key := FieldKey{MetaID: 2, FieldName: "count"}
	assert.Equal(t, uint64(1), (*statsPtr).Attributes[key].Value.U64)
}

func TestAggregator_asyncOpPollOp(t *testing.T) {
	t.Parallel()

	agg := newAggregator(NewBuilder())
	meta := Metadata{MetaID: 3, Name: "poll"}
	agg.updateState(PollOpEvent{
		Meta: meta, ResourceID: 10, AsyncOpID: 20, TaskID: 1,
		OpName: "poll", Readiness: ReadinessReady,
	})

	statsPtr, ok := agg.asyncOpStats.Get(20)
	require.True(t, ok)
	stats := *statsPtr
	assert.True(t, stats.HasIDs)
	assert.Equal(t, SpanId(10), stats.ResourceID)
	assert.Equal(t, uint64(1), stats.Poll.Polls)
	assert.True(t, stats.Poll.FirstPoll.IsZero(), "Ready readiness must not stamp first_poll")
	assert.Len(t, agg.allPollOps, 1)
	assert.Len(t, agg.newPollOps, 1)
}

func TestAggregator_asyncOpPollOpPendingSetsFirstPollOnce(t *testing.T) {
	t.Parallel()

	agg := newAggregator(NewBuilder())
	now := time.Unix(0, 0)
	agg.updateState(PollOpEvent{AsyncOpID: 20, Readiness: ReadinessPending, At: now})
	agg.updateState(PollOpEvent{AsyncOpID: 20, Readiness: ReadinessPending, At: now.Add(time.Millisecond)})

	statsPtr, ok := agg.asyncOpStats.Get(20)
	require.True(t, ok)
	stats := *statsPtr
	assert.Equal(t, uint64(2), stats.Poll.Polls, "polls increments unconditionally, independent of any enter/exit bracket")
	assert.Equal(t, now, stats.Poll.FirstPoll, "first_poll is stamped once, on the first Pending poll")
}

func TestAggregator_asyncOpPollOpCountsDuringEnterExitBracket(t *testing.T) {
	t.Parallel()

	agg := newAggregator(NewBuilder())
	now := time.Unix(0, 0)
	agg.updateState(EnterEvent{ID: 20, At: now})
	agg.updateState(PollOpEvent{AsyncOpID: 20, Readiness: ReadinessReady, At: now})

	statsPtr, ok := agg.asyncOpStats.Get(20)
	require.True(t, ok)
	assert.Equal(t, uint64(1), (*statsPtr).Poll.Polls, "polls must count even while CurrentPolls != 0 from a live Enter")
}

func TestAggregator_capacityShedding(t *testing.T) {
	t.Parallel()

	agg, err := NewBuilder().
		WithEventBufferCapacity(2).
		WithClientBufferCapacity(2).
		Build()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, agg.Submit(SpawnEvent{ID: SpanId(i)}))
	}

	counts := agg.DropCounts()
	assert.Equal(t, uint64(3), counts.Tasks)
}

func TestAggregator_checkBurstsClassifiesSustainedShedding(t *testing.T) {
	t.Parallel()

	agg := newAggregator(NewBuilder().
		WithEventBufferCapacity(1).
		WithBurstRates(map[time.Duration]int{time.Minute: 2}))

	for i := 0; i < 5; i++ {
		agg.intake.Submit(SpawnEvent{ID: SpanId(i)})
	}
	assert.Equal(t, uint64(4), agg.DropCounts().Tasks)

	agg.checkBursts()
	assert.Equal(t, DropCounts{Tasks: 4}, agg.lastDropCounts, "sampled delta is recorded as the new baseline")

	// A second call with no further drops sees a zero delta and must not
	// re-trigger classification against stale counts.
	agg.checkBursts()
	assert.Equal(t, DropCounts{Tasks: 4}, agg.lastDropCounts)
}

func TestAggregator_cleanupClosed_retainsDirtyWithWatchers(t *testing.T) {
	t.Parallel()

	agg := newAggregator(NewBuilder().WithRetention(time.Millisecond))
	ancient := time.Unix(1000, 0)
	agg.updateState(SpawnEvent{ID: 1, At: ancient})
	agg.updateState(CloseEvent{ID: 1, At: ancient})

	agg.instrumentWatchers = append(agg.instrumentWatchers, &instrumentWatcher{ch: make(chan *InstrumentUpdate, 1)})

	agg.cleanupClosed()
	_, ok := agg.taskStats.Get(1)
	assert.True(t, ok, "dirty entry with a live watcher must survive past retention")

	agg.taskStats.SinceLastUpdate(func(SpanId, **TaskStats) bool { return true })
	agg.cleanupClosed()
	_, ok = agg.taskStats.Get(1)
	assert.False(t, ok, "once delivered, the closed entry is eligible for GC")

	_, staticOK := agg.tasks.Get(1)
	assert.False(t, staticOK, "static table is pruned in lockstep with stats")
}

func TestAggregator_runEndToEnd(t *testing.T) {
	t.Parallel()

	agg, err := NewBuilder().
		WithPublishInterval(5 * time.Millisecond).
		WithEventBufferCapacity(64).
		WithClientBufferCapacity(8).
		Build()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		agg.Run(nil)
	}()
	defer func() {
		agg.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Run did not return after Close")
		}
	}()

	sub, err := agg.AddInstrumentSubscription(0)
	require.NoError(t, err)

	select {
	case update := <-sub.Updates:
		require.NotNil(t, update)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial snapshot")
	}

	meta := Metadata{MetaID: 1, Name: "task"}
	require.NoError(t, agg.Submit(MetadataEvent{Metadata: meta}))
	require.NoError(t, agg.Submit(SpawnEvent{ID: 1, Meta: meta, At: time.Now()}))

	select {
	case update := <-sub.Updates:
		assert.Len(t, update.TaskUpdate.NewTasks, 1)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delta update")
	}
}

func TestAggregator_watchTaskDetail_unknownTask(t *testing.T) {
	t.Parallel()

	agg, err := NewBuilder().Build()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		agg.Run(nil)
	}()
	defer func() {
		agg.Close()
		<-done
	}()

	_, err = agg.WatchTaskDetail(999, 0)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAggregator_watchTaskDetail_knownTask(t *testing.T) {
	t.Parallel()

	agg, err := NewBuilder().WithPublishInterval(5 * time.Millisecond).Build()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		agg.Run(nil)
	}()
	defer func() {
		agg.Close()
		<-done
	}()

	require.NoError(t, agg.Submit(SpawnEvent{ID: 1, At: time.Now()}))
	// Give the aggregator a moment to drain the spawn before subscribing.
	time.Sleep(20 * time.Millisecond)

	sub, err := agg.WatchTaskDetail(1, 0)
	require.NoError(t, err)

	select {
	case details := <-sub.Details:
		assert.Equal(t, SpanId(1), details.TaskID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial task detail snapshot")
	}
}

func TestAggregator_slowInstrumentSubscriberIsEvicted(t *testing.T) {
	t.Parallel()

	agg, err := NewBuilder().WithPublishInterval(5 * time.Millisecond).Build()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		agg.Run(nil)
	}()
	defer func() {
		agg.Close()
		<-done
	}()

	sub, err := agg.AddInstrumentSubscription(1)
	require.NoError(t, err)
	<-sub.Updates // drain the initial snapshot

	require.NoError(t, agg.Submit(SpawnEvent{ID: 1, At: time.Now()}))
	time.Sleep(20 * time.Millisecond) // first delta fills the one-slot buffer
	require.NoError(t, agg.Submit(SpawnEvent{ID: 2, At: time.Now()}))
	time.Sleep(20 * time.Millisecond) // second delta can't be delivered; watcher evicted

	select {
	case _, ok := <-sub.Updates:
		require.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected the buffered delta to still be readable")
	}

	select {
	case _, ok := <-sub.Updates:
		if ok {
			t.Fatal("did not expect a second delta; slow watcher should have been dropped")
		}
	case <-time.After(50 * time.Millisecond):
		// No further message arrives: consistent with eviction. The channel
		// is never closed merely for being dropped, per
		// InstrumentSubscription's doc comment.
	}
}
