package processor

import (
	"context"
	"time"

	"github.com/viant/coproc/coroutine"
)

// Process runs the scheduling loop until ctx is cancelled, Stop is
// called, or a task completes carrying a captured failure. It is meant to
// be the body of the goroutine a scheduler starts one of per worker. A
// non-nil return means a task's body returned an error: the run loop
// stops right there instead of absorbing the failure and moving on, the
// same way the original run loop propagates a task's stored exception out
// of its own Process call instead of swallowing it.
func (p *Processor) Process(ctx context.Context) error {
	for {
		if p.shouldStop(ctx) {
			return nil
		}

		current, ok := p.runnableQueue.Front()
		if !ok {
			p.addNewTasks()
			current, ok = p.runnableQueue.Front()
			if !ok {
				p.waitCondition(ctx)
				continue
			}
		}

		p.addNewQuota = 1
		for {
			if p.shouldStop(ctx) {
				return nil
			}

			current.SetState(coroutine.Runnable)
			current.SetOwner(p)
			p.runnableQueue.Stamp(current)
			p.runningTask.Store(current)
			p.switchCount.Add(1)
			if p.onSwitch != nil {
				p.onSwitch(current)
			}

			current.SwapIn(ctx)
			if p.onSwitchOut != nil {
				p.onSwitchOut(current)
			}

			switch current.State() {
			case coroutine.Runnable:
				next, more := p.advanceRunnable(current)
				if !more {
					break
				}
				current = next
				continue

			case coroutine.Block:
				next := p.nextTask.Swap(nil)
				if next == nil {
					break
				}
				current = next
				continue

			default: // coroutine.Done
				next, more := p.retireDone(current)
				if err := current.Err(); err != nil {
					return err
				}
				if !more {
					break
				}
				current = next
				continue
			}

			break
		}
	}
}

func (p *Processor) shouldStop(ctx context.Context) bool {
	select {
	case <-p.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// advanceRunnable follows the runnable queue's existing link to whatever
// comes after current. If current was the tail, it spends one unit of
// addNewQuota refilling from the new queue before giving up on this lap.
// Giving up here does not drop current: it is still linked into the
// runnable queue, so the outer loop's next Front() call picks the lap back
// up from the head — which is what turns a sequence of one-link hops into
// round-robin fairness across everything in the queue, rather than the
// loop getting stuck re-running whichever task happens to end up at the
// tail.
func (p *Processor) advanceRunnable(current *coroutine.Task) (*coroutine.Task, bool) {
	p.runnableQueue.Lock()
	next := current.QueueNext()
	if next != nil {
		p.runnableQueue.StampWithoutLock(next)
	}
	p.runnableQueue.Unlock()
	if next != nil {
		return next, true
	}

	if p.addNewQuota > 0 {
		p.addNewQuota--
		if moved := p.addNewTasks(); moved > 0 {
			p.runnableQueue.Lock()
			next = current.QueueNext()
			if next != nil {
				p.runnableQueue.StampWithoutLock(next)
			}
			p.runnableQueue.Unlock()
			if next != nil {
				return next, true
			}
		}
	}
	return nil, false
}

// retireDone erases a finished task from the runnable queue, reclaims
// enough of the gc queue to keep it bounded, and hands back whatever task
// should run next, if any.
func (p *Processor) retireDone(current *coroutine.Task) (*coroutine.Task, bool) {
	p.runnableQueue.Lock()
	next := current.QueueNext()
	if next != nil {
		p.runnableQueue.StampWithoutLock(next)
	}
	p.runnableQueue.Unlock()

	if next == nil && p.addNewQuota > 0 {
		p.addNewQuota--
		if moved := p.addNewTasks(); moved > 0 {
			p.runnableQueue.Lock()
			next = current.QueueNext()
			if next != nil {
				p.runnableQueue.StampWithoutLock(next)
			}
			p.runnableQueue.Unlock()
		}
	}

	p.runnableQueue.Lock()
	p.runnableQueue.RemoveWithoutLock(current)
	p.runnableQueue.Unlock()

	if p.gcQueue.Size() > p.gcThreshold {
		p.GC()
	}
	p.gcQueue.PushBack(current)

	if p.onTaskDone != nil {
		p.onTaskDone(current)
	}

	if next == nil {
		return nil, false
	}
	return next, true
}

// addNewTasks migrates everything sitting in the new queue onto the back
// of the runnable queue in one PushBackList call, and reports how many
// tasks moved.
func (p *Processor) addNewTasks() int {
	if p.newQueue.EmptyUnsafe() {
		return 0
	}
	return p.runnableQueue.PushBackList(p.newQueue)
}

// waitCondition is reached only when both the runnable and new queues are
// empty. It reclaims the gc queue, then parks until new work is admitted,
// the poll interval elapses, or the processor is asked to stop.
func (p *Processor) waitCondition(ctx context.Context) {
	p.GC()

	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()

	select {
	case <-p.wake:
	case <-timer.C:
	case <-p.stop:
	case <-ctx.Done():
	}
}
