package scheduler

import (
	"time"

	"github.com/viant/coproc/processor"
)

// Option configures a Scheduler at construction time. Options that need to
// reach the processors it builds append to procOpts, since the pool does
// not exist yet when options run.
type Option func(s *Scheduler, procOpts *[]processor.Option)

// WithWatchdogInterval overrides how often the watchdog checks for a
// stalled processor.
func WithWatchdogInterval(d time.Duration) Option {
	return func(s *Scheduler, _ *[]processor.Option) { s.watchdogInterval = d }
}

// WithStealBatch overrides how many tasks the watchdog moves off a stalled
// processor in one rebalancing pass.
func WithStealBatch(n int) Option {
	return func(s *Scheduler, _ *[]processor.Option) { s.stealBatch = n }
}

// WithRebalanceHook registers fn to be called whenever the watchdog moves
// work from one processor to another, for tests and tracing.
func WithRebalanceHook(fn func(from, to string, n int)) Option {
	return func(s *Scheduler, _ *[]processor.Option) { s.onRebalance = fn }
}

// WithBlockedHook registers fn to be called the moment the watchdog
// observes a processor become blocked (IsBlocking true while a task is
// still linked in its runnable queue), for tests and tracing. It does not
// fire again on every subsequent tick the processor remains blocked, and
// it never fires for a processor that is merely idle.
func WithBlockedHook(fn func(processorID string)) Option {
	return func(s *Scheduler, _ *[]processor.Option) { s.onBlocked = fn }
}

// WithProcessFailureHook registers fn to be called whenever a processor's
// run loop stops because a task completed carrying a captured failure,
// just before the scheduler restarts that processor's loop.
func WithProcessFailureHook(fn func(processorID string, err error)) Option {
	return func(s *Scheduler, _ *[]processor.Option) { s.onProcessFailure = fn }
}

// WithProcessorOptions forwards opts to every processor.New call the pool
// makes.
func WithProcessorOptions(opts ...processor.Option) Option {
	return func(_ *Scheduler, procOpts *[]processor.Option) {
		*procOpts = append(*procOpts, opts...)
	}
}
