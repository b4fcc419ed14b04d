package coroutine

import "context"

// ctxKey is an unexported type so values this package stores in a context
// can never collide with a key set by any other package, mirroring a
// reflect.Type-keyed ContextValue[T] pattern but specialized here since
// coroutine only ever stores one thing: the running *Task.
type ctxKey struct{}

// WithTask returns a context carrying tk as the running task. SwapIn calls
// this exactly once, when it first starts a task's goroutine; every nested
// call the task's body makes observes the same *Task through this context
// for its entire lifetime, which is what lets Yield/Suspend/CurrentTask
// stand in for what the original scheduler kept in a thread-local.
func WithTask(ctx context.Context, tk *Task) context.Context {
	return context.WithValue(ctx, ctxKey{}, tk)
}

// CurrentTask returns the task running on the calling goroutine, or nil if
// ctx was not derived from one a SwapIn started.
func CurrentTask(ctx context.Context) *Task {
	tk, _ := ctx.Value(ctxKey{}).(*Task)
	return tk
}

// CurrentProcessor returns the processor currently responsible for the
// calling goroutine's task, or nil outside of a task body or for a task
// that has not yet been assigned an owner.
func CurrentProcessor(ctx context.Context) Owner {
	tk := CurrentTask(ctx)
	if tk == nil {
		return nil
	}
	return tk.Owner()
}
