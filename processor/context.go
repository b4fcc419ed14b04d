package processor

import (
	"context"

	"github.com/viant/coproc/coroutine"
)

// CurrentProcessor recovers the concrete *Processor running the calling
// goroutine's task, or nil outside of a task body. coroutine.Task only
// knows its owner as a coroutine.Owner (to avoid an import cycle); this is
// where that gets unwrapped back to the concrete type for callers that
// need the rest of Processor's surface, not just WakeupBySelf.
func CurrentProcessor(ctx context.Context) *Processor {
	tk := coroutine.CurrentTask(ctx)
	if tk == nil {
		return nil
	}
	p, _ := tk.Owner().(*Processor)
	return p
}
