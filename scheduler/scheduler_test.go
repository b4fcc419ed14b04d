package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/coproc/coroutine"
)

func TestAddTaskDistributesRoundRobin(t *testing.T) {
	s := New(2)
	for i := 0; i < 4; i++ {
		s.AddTask(coroutine.New("noop", func(ctx context.Context) error { return nil }))
	}
	total := s.Processors()[0].NewQueueSize() + s.Processors()[1].NewQueueSize()
	assert.Equal(t, 4, total)
	assert.Equal(t, 2, s.Processors()[0].NewQueueSize())
	assert.Equal(t, 2, s.Processors()[1].NewQueueSize())
}

func TestSchedulerRunsAllAdmittedTasks(t *testing.T) {
	s := New(3)
	var mu sync.Mutex
	ran := map[int]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		s.AddTask(coroutine.New("work", func(ctx context.Context) error {
			mu.Lock()
			ran[i] = true
			mu.Unlock()
			wg.Done()
			return nil
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Start(ctx)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all tasks ran")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, ran, 10)
	s.Stop()
}

func TestProcessorRestartsAfterTaskFailure(t *testing.T) {
	var failures []string
	s := New(1, WithProcessFailureHook(func(processorID string, err error) {
		failures = append(failures, processorID)
	}))

	s.AddTask(coroutine.New("boom", func(ctx context.Context) error {
		return assert.AnError
	}))

	var ran bool
	done := make(chan struct{})
	s.AddTask(coroutine.New("after", func(ctx context.Context) error {
		ran = true
		close(done)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("processor never resumed after the first task's failure")
	}
	assert.True(t, ran)
	assert.NotEmpty(t, failures)
	s.Stop()
}

func TestWatchdogFiresBlockedHookOnceOnTransition(t *testing.T) {
	var mu sync.Mutex
	var calls int
	s := New(2,
		WithWatchdogInterval(10*time.Millisecond),
		WithBlockedHook(func(processorID string) {
			mu.Lock()
			calls++
			mu.Unlock()
		}),
	)

	block := make(chan struct{})
	stuck := coroutine.New("stuck", func(ctx context.Context) error {
		<-block
		return nil
	})
	s.Processors()[0].AddTask(stuck)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	time.Sleep(150 * time.Millisecond)
	close(block)
	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestWatchdogRebalancesAwayFromStalledProcessor(t *testing.T) {
	s := New(2, WithWatchdogInterval(10*time.Millisecond), WithStealBatch(10))

	block := make(chan struct{})
	stuck := coroutine.New("stuck", func(ctx context.Context) error {
		<-block
		return nil
	})
	s.Processors()[0].AddTask(stuck)

	var extras []*coroutine.Task
	for i := 0; i < 5; i++ {
		tk := coroutine.New("extra", func(ctx context.Context) error { return nil })
		extras = append(extras, tk)
		s.Processors()[0].AddTask(tk)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.After(2 * time.Second)
	var movedToOne bool
	for {
		select {
		case <-deadline:
			t.Fatal("watchdog never rebalanced work off the stalled processor")
		default:
		}
		// proc-1 was given no work of its own, so any switch it has made ran
		// a task moved over from proc-0. Its queue sizes are not a reliable
		// signal: the moved tasks return at once and leave them empty again.
		if s.Processors()[1].SwitchCount() > 0 {
			movedToOne = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, movedToOne)

	close(block)
	s.Stop()
}
