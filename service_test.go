package coproc_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/coproc"
	"github.com/viant/coproc/policy"
	"github.com/viant/coproc/service/event"
	"github.com/viant/coproc/service/messaging/memory"
)

func TestServiceSpawnRunsTask(t *testing.T) {
	srv := coproc.New(coproc.WithWorkers(2))
	rt := srv.Runtime()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, rt.Start(ctx))
	defer rt.Shutdown(context.Background())

	var ran atomic.Bool
	done := make(chan struct{})
	_, err := rt.Spawn(ctx, "demo.task", func(ctx context.Context) error {
		ran.Store(true)
		close(done)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	assert.True(t, ran.Load())
}

func TestServiceSpawnRejectedByPolicy(t *testing.T) {
	srv := coproc.New(coproc.WithWorkers(1), coproc.WithPolicy(&policy.Policy{
		Mode:      policy.ModeAuto,
		BlockList: []string{"forbidden.task"},
	}))
	rt := srv.Runtime()

	_, err := rt.Spawn(context.Background(), "forbidden.task", func(ctx context.Context) error {
		t.Fatal("blocked task must never run")
		return nil
	})
	assert.Error(t, err)
}

func TestServiceJoinGroupWaitsForAllChildren(t *testing.T) {
	srv := coproc.New(coproc.WithWorkers(1))
	rt := srv.Runtime()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, rt.Start(ctx))
	defer rt.Shutdown(context.Background())

	var childRuns atomic.Int32
	resumed := make(chan struct{})
	_, err := rt.Spawn(ctx, "parent.task", func(ctx context.Context) error {
		group := rt.SpawnGroup("group-1", "all", func(ctx context.Context) error {
			childRuns.Add(1)
			return nil
		}, func(ctx context.Context) error {
			childRuns.Add(1)
			return nil
		})
		rt.Join(ctx, group)
		close(resumed)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-resumed:
	case <-time.After(2 * time.Second):
		t.Fatal("parent never resumed")
	}
	assert.EqualValues(t, 2, childRuns.Load())
}

func TestServiceRecordsCompletion(t *testing.T) {
	srv := coproc.New(coproc.WithWorkers(1))
	rt := srv.Runtime()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, rt.Start(ctx))
	defer rt.Shutdown(context.Background())

	done := make(chan struct{})
	tk, err := rt.Spawn(ctx, "record.task", func(ctx context.Context) error {
		close(done)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}

	require.Eventually(t, func() bool {
		rec, err := rt.Completion(context.Background(), tk.ID())
		return err == nil && rec.TaskName == "record.task"
	}, time.Second, 5*time.Millisecond)
}

func TestServiceSpawnPublishesEvents(t *testing.T) {
	evtSvc, err := event.New("memory", event.WithNewMemoryQueueConfig(func(name string) memory.Config {
		return memory.DefaultConfig()
	}))
	require.NoError(t, err)

	srv := coproc.New(coproc.WithWorkers(1), coproc.WithEventService(evtSvc))
	rt := srv.Runtime()

	var mu sync.Mutex
	seen := map[string]bool{}
	gotDone := make(chan struct{})
	var doneClosed bool
	rt.EventService().SetListener(func(e *event.Event[any]) {
		mu.Lock()
		seen[e.Context.Kind] = true
		shouldClose := seen["done"] && !doneClosed
		if shouldClose {
			doneClosed = true
		}
		mu.Unlock()
		if shouldClose {
			close(gotDone)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, rt.Start(ctx))
	defer rt.Shutdown(context.Background())

	taskDone := make(chan struct{})
	_, err = rt.Spawn(ctx, "event.task", func(ctx context.Context) error {
		close(taskDone)
		return nil
	})
	require.NoError(t, err)

	select {
	case <-taskDone:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}

	select {
	case <-gotDone:
	case <-time.After(2 * time.Second):
		t.Fatal("done event never arrived")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, seen["enqueued"])
	assert.True(t, seen["switch"])
	assert.True(t, seen["done"])
}
