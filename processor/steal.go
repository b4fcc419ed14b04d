package processor

import "github.com/viant/coproc/coroutine"

// Steal harvests tasks for another processor to run, preferring the new
// queue (work nobody has touched yet) before dipping into the runnable
// queue's tail. n > 0 bounds the harvest to at most n tasks; n <= 0 means
// take everything available from both queues. runningTask and nextTask
// are excised from the runnable queue before the tail harvest runs and
// spliced back afterward if a harvest would otherwise have been able to
// reach them — a thief must never walk off with the task this processor
// is mid-turn on, or the one already staged to run right after it.
func (p *Processor) Steal(n int) []*coroutine.Task {
	all := n <= 0

	var stolen []*coroutine.Task
	if all {
		stolen = p.newQueue.PopAll()
	} else {
		stolen = p.newQueue.PopBackN(n)
	}

	remaining := n - len(stolen)
	if !all && remaining <= 0 {
		if p.onSteal != nil {
			p.onSteal(stolen)
		}
		return stolen
	}

	running := p.runningTask.Load()
	next := p.nextTask.Load()

	p.runnableQueue.Lock()
	runningRemoved := running != nil && p.runnableQueue.RemoveWithoutLock(running)
	nextRemoved := next != nil && p.runnableQueue.RemoveWithoutLock(next)

	var harvested []*coroutine.Task
	if all {
		harvested = p.runnableQueue.PopAllWithoutLock()
	} else {
		harvested = p.runnableQueue.PopBackNWithoutLock(remaining)
	}

	if nextRemoved {
		p.runnableQueue.PushBackWithoutLock(next)
	}
	if runningRemoved {
		p.runnableQueue.PushBackWithoutLock(running)
	}
	p.runnableQueue.Unlock()

	taken := append(stolen, harvested...)
	if p.onSteal != nil {
		p.onSteal(taken)
	}
	return taken
}
