package processor

import "github.com/viant/coproc/internal/clock"

// Mark snapshots the processor's current switch count and timestamp, but
// only when there is a running task and it has switched since the last
// Mark. A watchdog calls this on every tick, so Mark must be idempotent
// under frequent polling: recording a fresh timestamp whenever nothing
// changed would keep resetting the "elapsed since the stall" clock
// IsBlocking relies on, and a processor stuck for many ticks would never
// trip it. Leaving markTick untouched when there has been no progress lets
// elapsed keep growing from the original stall instead.
func (p *Processor) Mark() {
	if p.runningTask.Load() == nil {
		return
	}
	if p.markSwitch.Load() == p.switchCount.Load() {
		return
	}
	p.markSwitch.Store(p.switchCount.Load())
	p.markTick.Store(clock.Now().UnixNano())
}

// IsBlocking reports whether the processor has made no progress (no new
// SwapIn) since the last Mark, and the cycle timeout has elapsed since
// then. A processor that is simply idle because it has no runnable work
// trips this too once the timeout has passed, since waitCondition does not
// advance switchCount either; an idle processor is not a stuck one, so
// callers that care about that distinction also check
// RunnableSize/NewQueueSize before treating IsBlocking as actionable, as
// the scheduler's watchdog does.
func (p *Processor) IsBlocking() bool {
	if p.switchCount.Load() != p.markSwitch.Load() {
		return false
	}
	elapsed := clock.Now().UnixNano() - p.markTick.Load()
	return elapsed > p.cycleTimeout.Nanoseconds()
}
