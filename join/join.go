package join

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/coproc/coroutine"
	"github.com/viant/coproc/processor"
)

// Admitter is the minimal task-admission surface Spawn needs. Both
// *processor.Processor and *scheduler.Scheduler satisfy it structurally.
type Admitter interface {
	AddTask(tk *coroutine.Task)
}

// Spawn wraps each fn as a coroutine.Task named "<group.ID>/<index>",
// admits it via admitter, and has it report its outcome to group on
// completion. It returns the spawned tasks.
func Spawn(admitter Admitter, group *Group, fns ...coroutine.Func) []*coroutine.Task {
	tasks := make([]*coroutine.Task, 0, len(fns))
	for i, fn := range fns {
		child := fn
		name := fmt.Sprintf("%s/%d", group.ID, i)
		tk := coroutine.New(name, func(ctx context.Context) error {
			err := child(ctx)
			group.MarkDone(err != nil, nil)
			return err
		})
		tasks = append(tasks, tk)
		admitter.AddTask(tk)
	}
	return tasks
}

// Wait suspends the calling task until group's rendezvous condition fires.
// It must be called from within a task body running on a processor.
func Wait(ctx context.Context, group *Group) {
	processor.SuspendNotify(ctx, group.registerEntry)
}

// WaitTimeout is Wait with a deadline: if group does not complete within d
// the calling task still resumes, and TimedOut reports which happened.
func WaitTimeout(ctx context.Context, group *Group, d time.Duration, timer processor.TimerService) (timedOut bool) {
	processor.SuspendNotify(ctx, func(entry coroutine.SuspendEntry) {
		timer.After(d, func() { coroutine.Wakeup(entry) })
		group.registerEntry(entry)
	})
	return !group.Done()
}
