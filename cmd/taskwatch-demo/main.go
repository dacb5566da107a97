// Command taskwatch-demo wires an Aggregator to a handful of synthetic
// producer goroutines and prints what an instrument subscription and a
// single task-detail subscription observe. It exists to exercise the
// package end-to-end outside of tests; it is not part of the public API.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joeycumines/taskwatch"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "taskwatch-demo:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	agg, err := taskwatch.NewBuilder().
		WithPublishInterval(500 * time.Millisecond).
		WithRetention(5 * time.Second).
		Build()
	if err != nil {
		return fmt.Errorf("build aggregator: %w", err)
	}
	fmt.Fprintf(os.Stderr, "taskwatch-demo: aggregator configured for %s (no transport dialed)\n", agg.ServerAddr())

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		agg.Run(ctx.Done())
	}()

	sub, err := agg.AddInstrumentSubscription(0)
	if err != nil {
		return fmt.Errorf("add instrument subscription: %w", err)
	}

	var group errgroup.Group
	group.Go(func() error { return printInstrumentUpdates(ctx, sub) })
	for i := 0; i < 4; i++ {
		group.Go(func() error { return spawnSyntheticTasks(ctx, agg) })
	}

	<-ctx.Done()
	agg.Close()
	<-runDone
	return group.Wait()
}

func printInstrumentUpdates(ctx context.Context, sub *taskwatch.InstrumentSubscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-sub.Updates:
			if !ok {
				return nil
			}
			fmt.Printf("instrument update at %s: %d new tasks, %d task stats, %d new poll ops\n",
				update.Now.Format(time.RFC3339),
				len(update.TaskUpdate.NewTasks),
				len(update.TaskUpdate.StatsByID),
				len(update.ResourceUpdate.NewPollOps),
			)
		}
	}
}

// spawnSyntheticTasks is a stand-in for an instrumented async runtime's
// tracing layer: it emits the same Event sequence a real one would for a
// task that spawns, gets polled a few times (occasionally woken from
// elsewhere), and eventually closes.
func spawnSyntheticTasks(ctx context.Context, agg *taskwatch.Aggregator) error {
	meta := taskwatch.Metadata{MetaID: 1, Name: "demo_task", Target: "taskwatch_demo", Level: "TRACE"}
	_ = agg.Submit(taskwatch.MetadataEvent{Metadata: meta})

	var nextID uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(20+rand.Intn(80)) * time.Millisecond):
		}

		nextID++
		id := taskwatch.SpanId(nextID<<16 | uint64(rand.Intn(1<<16)))
		now := time.Now()

		agg.Submit(taskwatch.SpawnEvent{ID: id, Meta: meta, At: now})
		polls := 1 + rand.Intn(5)
		for p := 0; p < polls; p++ {
			agg.Submit(taskwatch.EnterEvent{ID: id, At: time.Now()})
			time.Sleep(time.Millisecond)
			agg.Submit(taskwatch.ExitEvent{ID: id, At: time.Now()})
			if p < polls-1 {
				agg.Submit(taskwatch.WakerEvent{ID: id, Op: taskwatch.WakeOpWakeByRef, At: time.Now()})
			}
		}
		agg.Submit(taskwatch.CloseEvent{ID: id, At: time.Now()})
	}
}
