package processor

import (
	"time"

	"github.com/viant/coproc/coroutine"
)

// Option configures a Processor at construction time, the same functional-
// options shape used throughout this module's root and service packages.
type Option func(p *Processor)

// WithCycleTimeout overrides how long a processor may go without a SwapIn
// before Mark/IsBlocking considers it stalled.
func WithCycleTimeout(d time.Duration) Option {
	return func(p *Processor) { p.cycleTimeout = d }
}

// WithGCThreshold overrides how many retired tasks accumulate in the gc
// queue before the run loop reclaims them eagerly.
func WithGCThreshold(n int) Option {
	return func(p *Processor) { p.gcThreshold = n }
}

// WithPollInterval overrides how long waitCondition parks before checking
// for new work on its own, independent of being woken explicitly.
func WithPollInterval(d time.Duration) Option {
	return func(p *Processor) { p.pollInterval = d }
}

// WithSwitchHook registers fn to be called on the owner goroutine
// immediately before every SwapIn, for tests and tracing.
func WithSwitchHook(fn func(tk *coroutine.Task)) Option {
	return func(p *Processor) { p.onSwitch = fn }
}

// WithSwitchOutHook registers fn to be called on the owner goroutine
// immediately after every SwapIn returns, regardless of the task's
// resulting state, for tests and tracing.
func WithSwitchOutHook(fn func(tk *coroutine.Task)) Option {
	return func(p *Processor) { p.onSwitchOut = fn }
}

// WithTaskDoneHook registers fn to be called once a task is fully retired
// into the gc queue, for tests, completion bookkeeping and the join
// package's rendezvous groups.
func WithTaskDoneHook(fn func(tk *coroutine.Task)) Option {
	return func(p *Processor) { p.onTaskDone = fn }
}

// WithSuspendHook registers fn to be called from SuspendBySelf, for tests
// and tracing.
func WithSuspendHook(fn func(tk *coroutine.Task)) Option {
	return func(p *Processor) { p.onSuspend = fn }
}

// WithWakeupHook registers fn to be called from WakeupBySelf, but only on
// a real wakeup (a stale or already-consumed token never calls it).
func WithWakeupHook(fn func(tk *coroutine.Task)) Option {
	return func(p *Processor) { p.onWakeup = fn }
}

// WithStealHook registers fn to be called from Steal with exactly the
// tasks it took, including an empty slice when nothing was available to
// steal.
func WithStealHook(fn func(tasks []*coroutine.Task)) Option {
	return func(p *Processor) { p.onSteal = fn }
}

// WithGCHook registers fn to be called from GC with exactly the tasks it
// reclaimed, only when that batch is non-empty.
func WithGCHook(fn func(tasks []*coroutine.Task)) Option {
	return func(p *Processor) { p.onGC = fn }
}
