package processor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/coproc/coroutine"
)

func runFor(t *testing.T, p *Processor, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	p.Process(ctx)
}

func TestSingleTaskRunsToCompletion(t *testing.T) {
	p := New("p0")
	var ran bool
	done := make(chan struct{})
	tk := coroutine.New("once", func(ctx context.Context) error {
		ran = true
		close(done)
		return nil
	})
	p.AddTask(tk)

	go func() { runFor(t, p, 200*time.Millisecond) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	assert.True(t, ran)
	p.Stop()
}

func TestCooperativeYieldAlternatesTasks(t *testing.T) {
	p := New("p1")
	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	a := coroutine.New("a", func(ctx context.Context) error {
		for i := 0; i < 2; i++ {
			record("a")
			coroutine.Yield(ctx)
		}
		return nil
	})
	b := coroutine.New("b", func(ctx context.Context) error {
		for i := 0; i < 2; i++ {
			record("b")
			coroutine.Yield(ctx)
		}
		finish()
		return nil
	})
	p.AddTask(a)
	p.AddTask(b)

	go func() { runFor(t, p, 200*time.Millisecond) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks never interleaved to completion")
	}
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, order, "a")
	assert.Contains(t, order, "b")
	assert.Equal(t, []string{"a", "b", "a", "b"}, order)
}

func TestSuspendAndWakeupResumesTask(t *testing.T) {
	p := New("p2")
	resumed := make(chan struct{})
	entryCh := make(chan coroutine.SuspendEntry, 1)

	tk := coroutine.New("sleeper", func(ctx context.Context) error {
		SuspendNotify(ctx, func(e coroutine.SuspendEntry) { entryCh <- e })
		close(resumed)
		return nil
	})
	p.AddTask(tk)

	go func() { runFor(t, p, time.Second) }()

	var entry coroutine.SuspendEntry
	select {
	case entry = <-entryCh:
	case <-time.After(time.Second):
		t.Fatal("task never handed over its suspend entry")
	}
	select {
	case <-resumed:
		t.Fatal("task finished before being woken")
	case <-time.After(50 * time.Millisecond):
	}

	ok := coroutine.Wakeup(entry)
	assert.True(t, ok)

	select {
	case <-resumed:
	case <-time.After(time.Second):
		t.Fatal("task never resumed after Wakeup")
	}
	p.Stop()
}

func TestWakeupWithStaleTokenIsNoop(t *testing.T) {
	p := New("p3")
	var entry coroutine.SuspendEntry
	got := make(chan struct{})

	tk := coroutine.New("double-suspend", func(ctx context.Context) error {
		SuspendNotify(ctx, func(e coroutine.SuspendEntry) {
			entry = e
			close(got)
		})
		Suspend(ctx) // suspend again; the first entry is now stale
		return nil
	})
	p.AddTask(tk)

	go func() { runFor(t, p, time.Second) }()

	<-got
	assert.True(t, coroutine.Wakeup(entry))

	time.Sleep(20 * time.Millisecond)
	// the task has suspended again by now with a fresh id; the old entry
	// must not resolve a second time.
	assert.False(t, coroutine.Wakeup(entry))
	p.Stop()
}

func TestStealNeverTakesTheRunningTask(t *testing.T) {
	p := New("p4")
	hold := make(chan struct{})
	release := make(chan struct{})

	running := coroutine.New("running", func(ctx context.Context) error {
		close(hold)
		<-release
		return nil
	})
	spare := coroutine.New("spare", func(ctx context.Context) error { return nil })

	p.AddTask(running)
	p.AddTask(spare)

	go p.Process(context.Background())

	<-hold
	time.Sleep(20 * time.Millisecond) // let Process settle into running's SwapIn

	stolen := p.Steal(10)
	for _, tk := range stolen {
		assert.NotSame(t, running, tk)
	}
	assert.Contains(t, stolen, spare)

	close(release)
	p.Stop()
}


func TestStealZeroTakesEverythingButTheRunningTask(t *testing.T) {
	p := New("p4b")
	hold := make(chan struct{})
	release := make(chan struct{})

	running := coroutine.New("running", func(ctx context.Context) error {
		close(hold)
		<-release
		return nil
	})
	spareA := coroutine.New("spareA", func(ctx context.Context) error { return nil })
	spareB := coroutine.New("spareB", func(ctx context.Context) error { return nil })

	p.AddTask(running)
	p.AddTask(spareA)
	p.AddTask(spareB)

	go p.Process(context.Background())

	<-hold
	time.Sleep(20 * time.Millisecond) // let Process settle into running's SwapIn

	stolen := p.Steal(0)
	for _, tk := range stolen {
		assert.NotSame(t, running, tk)
	}
	assert.Contains(t, stolen, spareA)
	assert.Contains(t, stolen, spareB)
	assert.Len(t, stolen, 2)

	close(release)
	p.Stop()
}

func TestMarkAndIsBlocking(t *testing.T) {
	p := New("p5", WithCycleTimeout(10*time.Millisecond))
	p.Mark()
	assert.False(t, p.IsBlocking())

	block := make(chan struct{})
	tk := coroutine.New("spin", func(ctx context.Context) error {
		<-block
		return nil
	})
	p.AddTask(tk)
	go p.Process(context.Background())

	time.Sleep(5 * time.Millisecond)
	p.Mark()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, p.IsBlocking())

	close(block)
	p.Stop()
}

func TestGCReleasesRetiredTasks(t *testing.T) {
	p := New("p6", WithGCThreshold(1000))
	done := make(chan struct{})
	tk := coroutine.New("ephemeral", func(ctx context.Context) error {
		return nil
	})
	p.AddTask(tk)
	p.onTaskDone = func(*coroutine.Task) { close(done) }

	go func() { runFor(t, p, 200*time.Millisecond) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never retired")
	}
	p.Stop()
	p.GC()
	assert.Equal(t, 0, p.gcQueue.Size())
}
