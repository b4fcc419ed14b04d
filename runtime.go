package coproc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/coproc/coroutine"
	"github.com/viant/coproc/internal/clock"
	"github.com/viant/coproc/join"
	"github.com/viant/coproc/policy"
	"github.com/viant/coproc/processor"
	"github.com/viant/coproc/progress"
	"github.com/viant/coproc/scheduler"
	"github.com/viant/coproc/service/approval"
	"github.com/viant/coproc/service/dao"
	"github.com/viant/coproc/service/dao/completion"
	"github.com/viant/coproc/service/dao/stats"
	"github.com/viant/coproc/service/event"
	"github.com/viant/coproc/timer"
	"github.com/viant/coproc/tracing"
)

// Runtime owns the running scheduler pool plus the ambient services wired
// around it: admission policy, approval, rendezvous groups, tracing and
// the stats/completion DAOs.
type Runtime struct {
	scheduler    *scheduler.Scheduler
	policy       *policy.Policy
	timer        *timer.Service
	joinStore    *join.Store
	approval     approval.Service
	eventService *event.Service

	statsDAO      dao.Service[string, stats.ProcessorStats]
	completionDAO dao.Service[string, completion.CompletionRecord]

	tracingHooks *tracing.ProcessorHooks
	progress     *progress.Progress

	counters *taskCounters

	statsSampleInterval time.Duration
	stopStats           chan struct{}
	statsWG             sync.WaitGroup
}

// taskCounters accumulates per-processor steal/gc counts the hooked
// Processors don't expose a getter for, keyed by processor ID.
type taskCounters struct {
	mu      sync.Mutex
	steal   map[string]int
	gc      map[string]int
	started map[string]bool
}

func newTaskCounters() *taskCounters {
	return &taskCounters{
		steal:   make(map[string]int),
		gc:      make(map[string]int),
		started: make(map[string]bool),
	}
}

// markStarted records that tk's first switch-in has happened and reports
// whether this call is the one that observed it, so a hook that fires on
// every SwapIn only reacts once per task.
func (c *taskCounters) markStarted(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started[id] {
		return false
	}
	c.started[id] = true
	return true
}

// clearStarted reports whether id had already switched in at least once,
// and removes it from the started set now that it has retired.
func (c *taskCounters) clearStarted(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	started := c.started[id]
	delete(c.started, id)
	return started
}

func (c *taskCounters) incSteal(id string, n int) {
	c.mu.Lock()
	c.steal[id] += n
	c.mu.Unlock()
}

func (c *taskCounters) incGC(id string) {
	c.mu.Lock()
	c.gc[id]++
	c.mu.Unlock()
}

func (c *taskCounters) snapshot(id string) (steal, gc int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steal[id], c.gc[id]
}

// Scheduler returns the underlying processor pool.
func (r *Runtime) Scheduler() *scheduler.Scheduler { return r.scheduler }

// ApprovalService returns the configured approval service, or nil.
func (r *Runtime) ApprovalService() approval.Service { return r.approval }

// EventService returns the configured pub/sub service, or nil.
func (r *Runtime) EventService() *event.Service { return r.eventService }

// Policy returns the runtime's default admission policy, or nil.
func (r *Runtime) Policy() *policy.Policy { return r.policy }

// Progress returns a snapshot of the aggregated task counters (total,
// pending, running, completed, failed) across every Spawn call made so
// far.
func (r *Runtime) Progress() progress.Progress { return r.progress.Snapshot() }

// Start launches the scheduler's processor pool and, if configured, the
// periodic stats sampler. It returns immediately.
func (r *Runtime) Start(ctx context.Context) error {
	if r.scheduler == nil {
		return fmt.Errorf("coproc: runtime not initialised")
	}
	r.scheduler.Start(ctx)
	if r.statsDAO != nil && r.statsSampleInterval > 0 {
		r.stopStats = make(chan struct{})
		r.statsWG.Add(1)
		go r.sampleLoop(ctx)
	}
	return nil
}

// Shutdown stops the processor pool, the stats sampler and any pending
// timers, then blocks until everything has exited.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
	if r.stopStats != nil {
		close(r.stopStats)
		r.statsWG.Wait()
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	return nil
}

// Spawn admits fn as a named coroutine.Task, gated by the Policy embedded
// in ctx (via policy.WithPolicy) if any, falling back to the runtime's
// default Policy. It returns an error without scheduling anything if the
// policy rejects the task name.
func (r *Runtime) Spawn(ctx context.Context, name string, fn coroutine.Func) (*coroutine.Task, error) {
	p := r.policy
	if ctxPolicy := policy.FromContext(ctx); ctxPolicy != nil {
		p = ctxPolicy
	}
	if !p.Admit(ctx, name, nil) {
		return nil, fmt.Errorf("coproc: task %q rejected by admission policy", name)
	}
	tk := coroutine.New(name, fn)
	r.progress.Update(progress.Delta{Total: 1, Pending: 1})
	r.publishEvent("enqueued", tk)
	r.scheduler.AddTask(tk)
	return tk, nil
}

// SpawnGroup spawns one task per fn, all named "<groupID>/<index>" and
// registered with a join.Group of the given rendezvous mode ("all",
// "first" or "anyerror"). Call Join or JoinTimeout from the parent task's
// body to wait on the returned Group.
func (r *Runtime) SpawnGroup(groupID, mode string, fns ...coroutine.Func) *join.Group {
	group := r.joinStore.Create(join.NewGroup(groupID, "", len(fns)))
	group.Mode = mode
	join.Spawn(r.scheduler, group, fns...)
	return group
}

// Join suspends the calling task until group's rendezvous condition fires.
// It must be called from within a task body running on the scheduler.
func (r *Runtime) Join(ctx context.Context, group *join.Group) {
	join.Wait(ctx, group)
}

// JoinTimeout is Join with a deadline: if group does not complete within d
// the calling task still resumes, and the bool return reports whether the
// deadline fired first.
func (r *Runtime) JoinTimeout(ctx context.Context, group *join.Group, d time.Duration) bool {
	return join.WaitTimeout(ctx, group, d, r.timer)
}

// Completion returns the persisted outcome of taskID, or dao.ErrNotFound if
// no completion DAO is configured or the task hasn't retired yet.
func (r *Runtime) Completion(ctx context.Context, taskID string) (*completion.CompletionRecord, error) {
	if r.completionDAO == nil {
		return nil, dao.ErrNotFound
	}
	return r.completionDAO.Load(ctx, taskID)
}

// Stats returns the most recent snapshot of every processor in the pool,
// independent of whether periodic sampling to the stats DAO is enabled.
func (r *Runtime) Stats() []*stats.ProcessorStats {
	procs := r.scheduler.Processors()
	out := make([]*stats.ProcessorStats, 0, len(procs))
	for _, p := range procs {
		out = append(out, r.snapshot(p))
	}
	return out
}

func (r *Runtime) snapshot(p *processor.Processor) *stats.ProcessorStats {
	stealCount, gcCount := r.counters.snapshot(p.ID())
	return &stats.ProcessorStats{
		ProcessorID:  p.ID(),
		SwitchCount:  p.SwitchCount(),
		RunnableSize: p.RunnableSize(),
		NewSize:      p.NewQueueSize(),
		WaitSize:     p.WaitQueueSize(),
		StealCount:   stealCount,
		GCCount:      gcCount,
		SampledAt:    clock.Now(),
	}
}

func (r *Runtime) sampleLoop(ctx context.Context) {
	defer r.statsWG.Done()
	ticker := time.NewTicker(r.statsSampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopStats:
			return
		case <-ticker.C:
			for _, snap := range r.Stats() {
				_ = r.statsDAO.Save(ctx, snap)
			}
		}
	}
}

// onSwitch, onSwitchOut, onTaskDone, onSuspend, onWakeup, onSteal, onGC and
// onBlocked are the composed processor/scheduler hooks every processor in
// the pool is built with: they drive tracing, completion recording, the
// steal/gc counters feeding Stats, and the event.Event stream published
// through eventService.

func (r *Runtime) onSwitch(tk *coroutine.Task) {
	if r.tracingHooks != nil {
		r.tracingHooks.OnSwitch(tk)
	}
	if r.counters.markStarted(tk.ID()) {
		r.progress.Update(progress.Delta{Pending: -1, Running: 1})
	}
	r.publishEvent("switch", tk)
}

func (r *Runtime) onSwitchOut(tk *coroutine.Task) {
	r.publishEvent("switch_out", tk)
}

func (r *Runtime) onSuspend(tk *coroutine.Task) {
	if r.tracingHooks != nil {
		r.tracingHooks.OnSuspend(tk)
	}
	r.publishEvent("suspend", tk)
}

func (r *Runtime) onWakeup(tk *coroutine.Task) {
	if r.tracingHooks != nil {
		r.tracingHooks.OnWakeup(tk)
	}
	r.publishEvent("wakeup", tk)
}

func (r *Runtime) onSteal(tasks []*coroutine.Task) {
	if r.tracingHooks != nil {
		r.tracingHooks.OnSteal(tasks)
	}
	for _, tk := range tasks {
		if proc, ok := tk.Owner().(*processor.Processor); ok {
			r.counters.incSteal(proc.ID(), 1)
		}
		r.publishEvent("steal", tk)
	}
}

func (r *Runtime) onGC(tasks []*coroutine.Task) {
	for _, tk := range tasks {
		r.publishEvent("gc", tk)
	}
}

func (r *Runtime) onBlocked(processorID string) {
	if r.eventService == nil {
		return
	}
	evt := event.NewEvent[any](&event.Context{ProcessorID: processorID, Kind: "blocked"}, nil)
	go func() { _ = r.eventService.Publish(context.Background(), evt) }()
}

func (r *Runtime) onTaskDone(tk *coroutine.Task) {
	if r.tracingHooks != nil {
		r.tracingHooks.OnTaskDone(tk)
	}
	if proc, ok := tk.Owner().(*processor.Processor); ok {
		r.counters.incGC(proc.ID())
	}
	delta := progress.Delta{}
	if tk.Err() != nil {
		delta.Failed = 1
	} else {
		delta.Completed = 1
	}
	if r.counters.clearStarted(tk.ID()) {
		delta.Running = -1
	} else {
		delta.Pending = -1
	}
	r.progress.Update(delta)
	r.publishEvent("done", tk)
	if r.completionDAO == nil {
		return
	}
	rec := &completion.CompletionRecord{
		TaskID:      tk.ID(),
		TaskName:    tk.Name(),
		CompletedAt: clock.Now(),
	}
	if proc, ok := tk.Owner().(*processor.Processor); ok {
		rec.ProcessorID = proc.ID()
	}
	if err := tk.Err(); err != nil {
		rec.Err = err.Error()
	}
	_ = r.completionDAO.Save(context.Background(), rec)
}

// publishEvent emits an event.Event describing tk if an event service is
// configured; otherwise it is a no-op, keeping an unconfigured Runtime
// free of any publishing overhead. Publishing happens on its own
// goroutine: the underlying queue's Publish can block once its buffer is
// full and nothing is draining it, and a hook fired from inside a
// processor's run loop must never be the thing that blocks that loop.
func (r *Runtime) publishEvent(kind string, tk *coroutine.Task) {
	if r.eventService == nil {
		return
	}
	var processorID string
	var switchCount uint64
	if proc, ok := tk.Owner().(*processor.Processor); ok {
		processorID = proc.ID()
		switchCount = proc.SwitchCount()
	}
	evt := event.NewEvent[any](&event.Context{
		ProcessorID: processorID,
		TaskID:      tk.ID(),
		TaskName:    tk.Name(),
		Kind:        kind,
		SwitchCount: switchCount,
	}, nil)
	go func() { _ = r.eventService.Publish(context.Background(), evt) }()
}
