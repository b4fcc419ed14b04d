package coroutine

import (
	"context"
	"sync/atomic"

	"github.com/viant/coproc/internal/idgen"
)

// State mirrors the three states a Task's body can leave it in when control
// returns to whatever called SwapIn.
type State int32

const (
	// Runnable means the task yielded cooperatively and wants another turn.
	Runnable State = iota
	// Block means the task suspended itself and is waiting on a Wakeup.
	Block
	// Done means the task's body returned.
	Done
)

func (s State) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case Block:
		return "block"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Func is the body a Task runs. It receives a context carrying the Task
// itself (retrievable with CurrentTask), which the body uses to Yield or
// Suspend without needing a parameter threaded explicitly through every
// call in its stack.
type Func func(ctx context.Context) error

// Owner is the minimal surface a Task's owning processor must expose so
// that package-level Wakeup can resolve a SuspendEntry without coroutine
// importing the processor package (which imports coroutine for Task).
type Owner interface {
	// WakeupBySelf transfers tk back onto the owner's runnable queue if id
	// still matches tk's current suspend-id. It returns false for a stale
	// or already-consumed token.
	WakeupBySelf(tk *Task, id uint64) bool
}

// Task is the stackful-coroutine primitive a processor.Processor schedules.
// Its body runs on a dedicated goroutine; SwapIn and Yield/Suspend hand
// control back and forth over a pair of unbuffered channels so that the
// body's local variables and call stack survive a suspend exactly as a
// real stackful coroutine's would.
type Task struct {
	id   string
	name string
	fn   Func

	state State // owner-goroutine only between SwapIns

	// intrusive, doubly-linked queue position plus the validating tag of
	// whichever queue currently holds this task.
	qNext, qPrev *Task
	qCheck       uint64

	suspendID atomic.Uint64
	owner     atomic.Value // Owner

	refCount atomic.Int32

	arenaIndex int
	generation uint64

	err error

	resume  chan struct{}
	yield   chan struct{}
	started bool
	done    bool
}

// New creates a task bound to fn and registers it in the shared weak-ref
// arena. name is free-form and used only for policy matching, tracing and
// debug output.
func New(name string, fn Func) *Task {
	tk := &Task{
		id:     idgen.New(),
		name:   name,
		fn:     fn,
		state:  Runnable,
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
	}
	tk.refCount.Store(1)
	tk.arenaIndex, tk.generation = defaultArena.register(tk)
	return tk
}

// ID returns the task's globally unique identifier.
func (t *Task) ID() string { return t.id }

// Name returns the free-form task name used for admission/policy matching.
func (t *Task) Name() string { return t.name }

// State returns the state the task last left itself in.
func (t *Task) State() State { return t.state }

// SetState is called by the run loop to normalize state to Runnable right
// before SwapIn, and by the suspend/done paths to record the observed
// terminal state of a turn.
func (t *Task) SetState(s State) { t.state = s }

// Err returns the failure captured when the task's body returned a non-nil
// error, or nil otherwise.
func (t *Task) Err() error { return t.err }

// Owner returns the processor currently responsible for this task, or nil.
func (t *Task) Owner() Owner {
	v := t.owner.Load()
	if v == nil {
		return nil
	}
	return v.(Owner)
}

// SetOwner records the processor currently responsible for this task. The
// run loop calls this immediately before every SwapIn so that cross-thread
// Wakeup calls always resolve to the processor currently holding the task.
func (t *Task) SetOwner(o Owner) { t.owner.Store(o) }

// SuspendID returns the task's current suspend-id.
func (t *Task) SuspendID() uint64 { return t.suspendID.Load() }

// BumpSuspendID atomically increments and returns the new suspend-id.
// Suspend calls this to arm a fresh token; a successful Wakeup invalidates
// the consumed token through CompareAndSwapSuspendID instead.
func (t *Task) BumpSuspendID() uint64 { return t.suspendID.Add(1) }

// CompareAndSwapSuspendID is the single-shot check-then-bump primitive
// WakeupBySelf relies on while holding the wait-queue lock.
func (t *Task) CompareAndSwapSuspendID(old, new uint64) bool {
	return t.suspendID.CompareAndSwap(old, new)
}

// AddRef increments the task's reference count.
func (t *Task) AddRef() int32 { return t.refCount.Add(1) }

// DecrementRef decrements the task's reference count and, if it reaches
// zero, releases the task's weak-reference arena slot so that any
// outstanding SuspendEntry referencing it resolves as dead from then on.
func (t *Task) DecrementRef() int32 {
	n := t.refCount.Add(-1)
	if n <= 0 {
		defaultArena.release(t.arenaIndex, t.generation)
	}
	return n
}

// ArenaIndex and Generation expose the weak-reference coordinates used by
// SuspendEntry; callers should treat them as opaque.
func (t *Task) ArenaIndex() int      { return t.arenaIndex }
func (t *Task) Generation() uint64   { return t.generation }

// ---------------------------------------------------------------------------
// Intrusive queue linkage (queue.Linker[*Task]).
// ---------------------------------------------------------------------------

func (t *Task) QueueNext() *Task          { return t.qNext }
func (t *Task) SetQueueNext(v *Task)      { t.qNext = v }
func (t *Task) QueuePrev() *Task          { return t.qPrev }
func (t *Task) SetQueuePrev(v *Task)      { t.qPrev = v }
func (t *Task) QueueCheck() uint64        { return t.qCheck }
func (t *Task) SetQueueCheck(tag uint64)  { t.qCheck = tag }

// ---------------------------------------------------------------------------
// SwapIn / cooperative yield / suspend hand-off.
// ---------------------------------------------------------------------------

// SwapIn runs (or resumes) the task's body for one turn and blocks until the
// body yields, suspends or returns. The caller must have already normalized
// t.state to Runnable and set the owner via SetOwner — the "set
// runningTask.state = runnable and runningTask.proc = this" step of the
// run loop.
func (t *Task) SwapIn(ctx context.Context) {
	if t.done {
		return
	}
	if !t.started {
		t.started = true
		ctx = WithTask(ctx, t)
		go t.run(ctx)
	}
	t.resume <- struct{}{}
	<-t.yield
}

func (t *Task) run(ctx context.Context) {
	<-t.resume
	err := t.fn(ctx)
	t.err = err
	t.state = Done
	t.done = true
	t.yield <- struct{}{}
}

// yieldTurn hands control back to whatever is blocked in SwapIn and waits
// to be resumed again. It is the primitive both Yield and the suspend path
// use; the caller must already have set t.state to the value the run loop
// should observe (Runnable for a cooperative yield, Block for a suspend).
func (t *Task) yieldTurn() {
	t.yield <- struct{}{}
	<-t.resume
}

// Park hands control back to whatever is blocked in SwapIn and blocks the
// task's goroutine until the next SwapIn resumes it. Suspend calls this
// after recording Block state and enrolling the task on a wait queue; it
// is exported because that enrollment happens in the processor package,
// on the other side of the package boundary from yieldTurn.
func (t *Task) Park() { t.yieldTurn() }

// Yield cooperatively gives up the current turn without suspending: the
// task stays Runnable and the processor will resume it (or move on to the
// next runnable task) on a later SwapIn.
func Yield(ctx context.Context) {
	tk := CurrentTask(ctx)
	if tk == nil {
		return
	}
	tk.state = Runnable
	tk.yieldTurn()
}
