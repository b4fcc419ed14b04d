package processor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/coproc/coroutine"
	"github.com/viant/coproc/internal/clock"
	"github.com/viant/coproc/queue"
)

// defaultCycleTimeout is how long a single SwapIn may run before Mark
// considers the processor blocking, matching the original's cycle-timeout
// default of one scheduling tick.
const defaultCycleTimeout = 10 * time.Millisecond

// defaultGCThreshold is how many retired tasks gcQueue accumulates before
// the run loop reclaims them eagerly instead of waiting for WaitCondition.
const defaultGCThreshold = 16

// Processor owns one goroutine's worth of cooperative scheduling: it pulls
// tasks off its runnable queue and runs each for a single turn, migrating
// newly admitted tasks in, parking blocked ones on its wait queue, and
// reclaiming finished ones through its gc queue.
type Processor struct {
	id string

	newQueue      *queue.Queue[*coroutine.Task]
	runnableQueue *queue.Queue[*coroutine.Task]
	waitQueue     *queue.Queue[*coroutine.Task]
	gcQueue       *queue.Queue[*coroutine.Task]

	// runningTask and nextTask are written by the owner goroutine and read
	// by Steal (any goroutine), so both are atomic pointers rather than
	// plain fields guarded by runnableQueue's lock — the lock protects the
	// queue's own links, not these two staging slots.
	runningTask atomic.Pointer[coroutine.Task]
	nextTask    atomic.Pointer[coroutine.Task]

	switchCount atomic.Uint64
	markTick    atomic.Int64  // unix nanos, written by Mark
	markSwitch  atomic.Uint64 // switchCount snapshot taken at the same Mark

	cycleTimeout time.Duration
	gcThreshold  int
	pollInterval time.Duration

	addNewQuota int // owner-loop only, reset to 1 at the top of every Process iteration

	wake    chan struct{}
	stop    chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup

	onSwitch    func(tk *coroutine.Task)      // fired immediately before every SwapIn, may be nil
	onSwitchOut func(tk *coroutine.Task)      // fired immediately after every SwapIn returns, may be nil
	onTaskDone  func(tk *coroutine.Task)      // fired once a task is fully retired, may be nil
	onSuspend   func(tk *coroutine.Task)      // fired from SuspendBySelf, may be nil
	onWakeup    func(tk *coroutine.Task)      // fired from WakeupBySelf on a real wakeup, may be nil
	onSteal     func(tasks []*coroutine.Task) // fired from Steal with what it actually took, may be nil
	onGC        func(tasks []*coroutine.Task) // fired from GC with what it reclaimed, only when non-empty, may be nil
}

// New constructs a Processor with id used for logs, tracing and debug
// output. id need not be globally unique on its own; callers that run many
// processors typically derive it from their index, as scheduler does.
func New(id string, opts ...Option) *Processor {
	p := &Processor{
		id:            id,
		newQueue:      queue.New[*coroutine.Task](),
		runnableQueue: queue.New[*coroutine.Task](),
		waitQueue:     queue.New[*coroutine.Task](),
		gcQueue:       queue.New[*coroutine.Task](),
		cycleTimeout:  defaultCycleTimeout,
		gcThreshold:   defaultGCThreshold,
		pollInterval:  100 * time.Millisecond,
		wake:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.markTick.Store(clock.Now().UnixNano())
	return p
}

// ID returns the processor's identifier.
func (p *Processor) ID() string { return p.id }

// AddTask admits a single new task, to be picked up the next time the run
// loop refills its runnable queue from the new queue.
func (p *Processor) AddTask(tk *coroutine.Task) {
	p.newQueue.PushBack(tk)
	p.onAddTask()
}

// AddTasks admits a batch of new tasks in one pass, waking the processor
// only once regardless of batch size.
func (p *Processor) AddTasks(tasks []*coroutine.Task) {
	if len(tasks) == 0 {
		return
	}
	for _, tk := range tasks {
		p.newQueue.PushBack(tk)
	}
	p.onAddTask()
}

// onAddTask nudges a parked run loop awake. The send is best-effort and
// non-blocking: if the loop is not currently parked in waitCondition, there
// is nothing to wake and the signal is simply dropped.
func (p *Processor) onAddTask() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// RunnableSize reports how many tasks are currently sitting in the
// runnable queue, including whichever task is presently running, since it
// stays linked there while it runs.
func (p *Processor) RunnableSize() int { return p.runnableQueue.Size() }

// NewQueueSize reports how many admitted-but-not-yet-scheduled tasks are
// waiting in the new queue.
func (p *Processor) NewQueueSize() int { return p.newQueue.Size() }

// WaitQueueSize reports how many tasks are currently suspended.
func (p *Processor) WaitQueueSize() int { return p.waitQueue.Size() }

// SwitchCount returns the number of SwapIn calls this processor has made
// since it started, used by Mark/IsBlocking to detect stalls.
func (p *Processor) SwitchCount() uint64 { return p.switchCount.Load() }

// Stop asks the run loop to exit after it finishes whatever turn is
// currently in flight. It is safe to call more than once.
func (p *Processor) Stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stop)
	}
}
