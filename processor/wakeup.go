package processor

import "github.com/viant/coproc/coroutine"

// WakeupBySelf implements coroutine.Owner. It is named "BySelf" to match
// the original's pairing with SuspendBySelf, even though — unlike
// SuspendBySelf — the caller here is essentially never the task being
// woken up. id must match tk's current suspend-id exactly; CompareAndSwap
// both performs that check and invalidates the token in one atomic step,
// so two concurrent Wakeup calls racing on the same entry can never both
// win.
func (p *Processor) WakeupBySelf(tk *coroutine.Task, id uint64) bool {
	if !tk.CompareAndSwapSuspendID(id, id+1) {
		return false
	}

	p.waitQueue.Lock()
	removed := p.waitQueue.RemoveWithoutLock(tk)
	p.waitQueue.Unlock()
	if !removed {
		// The id check passed but tk was not (or no longer) linked into
		// this processor's wait queue. That should not happen given the
		// id bump above serializes against a concurrent Suspend/Wakeup
		// pair, but treat it as a lost race rather than panic.
		return false
	}

	p.runnableQueue.PushBack(tk)
	p.onAddTask()
	if p.onWakeup != nil {
		p.onWakeup(tk)
	}
	return true
}
