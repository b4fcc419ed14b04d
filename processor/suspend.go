package processor

import (
	"context"
	"time"

	"github.com/viant/coproc/coroutine"
)

// TimerService is the minimal scheduling surface SuspendFor/SuspendUntil
// need. The timer package's Service satisfies this structurally; it is
// declared here, not imported from there, so that package can stay free
// of any dependency back on processor.
type TimerService interface {
	After(d time.Duration, fn func()) Cancel
}

// Cancel aborts a previously armed timer callback. Calling it after the
// callback has already fired is a no-op. This is a type alias, not a
// defined type, so any concrete timer service's After method returning a
// plain func() satisfies TimerService without needing to know about this
// package's vocabulary for it.
type Cancel = func()

// SuspendBySelf parks tk: it must be the processor's currently running
// task. The task's body is blocked inside Park (called by Suspend, not
// here) for the entire duration of the suspension; SuspendBySelf only does
// the bookkeeping — recording Block state, bumping the suspend-id, staging
// whatever runs next, and moving tk from the runnable queue to the wait
// queue — and hands back the weak-reference token a later Wakeup needs.
func (p *Processor) SuspendBySelf(tk *coroutine.Task) coroutine.SuspendEntry {
	tk.SetState(coroutine.Block)
	id := tk.BumpSuspendID()

	p.runnableQueue.Lock()
	next := tk.QueueNext()
	if next != nil {
		p.runnableQueue.StampWithoutLock(next)
	}
	p.runnableQueue.Unlock()

	if next == nil && p.addNewQuota > 0 {
		p.addNewQuota--
		if moved := p.addNewTasks(); moved > 0 {
			p.runnableQueue.Lock()
			next = tk.QueueNext()
			if next != nil {
				p.runnableQueue.StampWithoutLock(next)
			}
			p.runnableQueue.Unlock()
		}
	}
	p.nextTask.Store(next)

	p.runnableQueue.Lock()
	p.runnableQueue.RemoveWithoutLock(tk)
	p.runnableQueue.Unlock()

	p.waitQueue.PushBack(tk)

	if p.onSuspend != nil {
		p.onSuspend(tk)
	}
	return coroutine.NewSuspendEntry(tk, id)
}

// Suspend parks the task running on ctx's goroutine and returns the token
// a later call to Wakeup needs to resume it. Unlike the stackful-fiber
// original this is modeled on, Suspend genuinely blocks the calling
// goroutine for the duration of the suspension — Go has no primitive for
// switching a goroutine's stack out from under it the way the original's
// SwapIn could, so "suspend" and "yield the turn" are the same operation
// here. The entry is returned only once the task has actually been resumed.
func Suspend(ctx context.Context) coroutine.SuspendEntry {
	var entry coroutine.SuspendEntry
	SuspendNotify(ctx, func(e coroutine.SuspendEntry) { entry = e })
	return entry
}

// SuspendNotify parks the current task the same way Suspend does, but
// hands the SuspendEntry to onEntry before blocking rather than after
// resuming. Callers that need to arm something — a timer, a rendezvous
// group — against the token while the task is still suspending use this
// instead of Suspend, since the token does not exist until SuspendBySelf
// runs and Suspend alone cannot hand it over before Park blocks.
func SuspendNotify(ctx context.Context, onEntry func(coroutine.SuspendEntry)) {
	tk := coroutine.CurrentTask(ctx)
	if tk == nil {
		return
	}
	p, ok := tk.Owner().(*Processor)
	if !ok || p == nil {
		return
	}
	entry := p.SuspendBySelf(tk)
	if onEntry != nil {
		onEntry(entry)
	}
	tk.Park()
}

// SuspendFor parks the current task and arms timer to call Wakeup after d
// elapses, the processor-level equivalent of the original's duration
// overload of Suspend.
func SuspendFor(ctx context.Context, d time.Duration, timer TimerService) {
	SuspendNotify(ctx, func(entry coroutine.SuspendEntry) {
		timer.After(d, func() { coroutine.Wakeup(entry) })
	})
}

// SuspendUntil parks the current task and arms timer to call Wakeup at at.
// A deadline already in the past fires immediately.
func SuspendUntil(ctx context.Context, at time.Time, timer TimerService, now func() time.Time) {
	d := at.Sub(now())
	if d < 0 {
		d = 0
	}
	SuspendFor(ctx, d, timer)
}
