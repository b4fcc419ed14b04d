package coroutine

import "sync"

// arena is the generation-tagged weak-reference table SuspendEntry tokens
// resolve through. Storing (index, generation) pairs instead of a *Task
// lets a SuspendEntry outlive the task it refers to without keeping the
// task reachable, and lets a reused slot's stale generation cause older
// tokens to resolve as dead rather than pointing at the wrong task.
type arena struct {
	mu    sync.Mutex
	slots []arenaSlot
	free  []int
}

type arenaSlot struct {
	task       *Task
	generation uint64
}

var defaultArena = &arena{}

func (a *arena) register(tk *Task) (index int, generation uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[index].generation++
		a.slots[index].task = tk
		return index, a.slots[index].generation
	}

	a.slots = append(a.slots, arenaSlot{task: tk, generation: 1})
	return len(a.slots) - 1, 1
}

// release invalidates the slot at index if it still carries generation,
// making every outstanding token for that generation resolve to nil from
// then on, and returns the slot to the free list for reuse.
func (a *arena) release(index int, generation uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if index < 0 || index >= len(a.slots) {
		return
	}
	if a.slots[index].generation != generation {
		return
	}
	a.slots[index].task = nil
	a.free = append(a.free, index)
}

// resolve returns the task still occupying (index, generation), or nil if
// the slot has since been released or recycled for a different task.
func (a *arena) resolve(index int, generation uint64) *Task {
	a.mu.Lock()
	defer a.mu.Unlock()

	if index < 0 || index >= len(a.slots) {
		return nil
	}
	slot := a.slots[index]
	if slot.generation != generation {
		return nil
	}
	return slot.task
}

// SuspendEntry is the weak-reference token Suspend hands back to a caller
// so it can later call Wakeup without keeping the suspended task reachable.
type SuspendEntry struct {
	arenaIndex int
	generation uint64
	suspendID  uint64
}

// IsZero reports whether e is the zero SuspendEntry (no suspension armed).
func (e SuspendEntry) IsZero() bool { return e.generation == 0 }

// Resolve dereferences the weak reference, returning the live task and the
// suspend-id the token was stamped with. ok is false once the task has been
// garbage collected.
func (e SuspendEntry) Resolve() (tk *Task, suspendID uint64, ok bool) {
	if e.IsZero() {
		return nil, 0, false
	}
	tk = defaultArena.resolve(e.arenaIndex, e.generation)
	return tk, e.suspendID, tk != nil
}

// NewSuspendEntry stamps a fresh weak-reference token for tk at suspendID.
// Only the processor package (via Task.BumpSuspendID) should call this, as
// part of SuspendBySelf.
func NewSuspendEntry(tk *Task, suspendID uint64) SuspendEntry {
	return SuspendEntry{
		arenaIndex: tk.arenaIndex,
		generation: tk.generation,
		suspendID:  suspendID,
	}
}

// Wakeup resolves entry's weak reference and, if the task is still alive and
// its suspend-id still matches the one the entry was stamped with, hands it
// back to its owning processor's runnable queue. It reports false for a
// stale, already-consumed, or dead token — callers must treat that as a
// no-op, never as an error.
func Wakeup(entry SuspendEntry) bool {
	tk, suspendID, ok := entry.Resolve()
	if !ok {
		return false
	}
	owner := tk.Owner()
	if owner == nil {
		return false
	}
	return owner.WakeupBySelf(tk, suspendID)
}
