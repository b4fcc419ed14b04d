package tracing

import (
	"context"
	"sync"

	"github.com/viant/coproc/coroutine"
)

// ProcessorHooks adapts StartSpan/EndSpan to processor.WithSwitchHook /
// processor.WithTaskDoneHook: one span per task, opened on its first
// SwapIn and closed once the task retires, so a trace backend sees one
// span per coroutine.Task rather than one per individual time slice.
type ProcessorHooks struct {
	ctx context.Context

	mu    sync.Mutex
	spans map[string]*Span
}

// NewProcessorHooks returns hooks that start spans as children of ctx's
// current span, if any.
func NewProcessorHooks(ctx context.Context) *ProcessorHooks {
	return &ProcessorHooks{ctx: ctx, spans: make(map[string]*Span)}
}

// OnSwitch opens a span for tk the first time it is swapped in. Pass this
// directly to processor.WithSwitchHook.
func (h *ProcessorHooks) OnSwitch(tk *coroutine.Task) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.spans[tk.ID()]; ok {
		return
	}
	_, span := StartSpan(h.ctx, "task:"+tk.Name(), "INTERNAL")
	h.spans[tk.ID()] = span
}

// OnTaskDone closes tk's span, recording its captured error if any. Pass
// this directly to processor.WithTaskDoneHook.
func (h *ProcessorHooks) OnTaskDone(tk *coroutine.Task) {
	span, ok := h.takeSpan(tk)
	if !ok {
		return
	}
	EndSpan(span, tk.Err())
}

// OnSuspend records a "suspend" event on tk's open span. Pass this
// directly to processor.WithSuspendHook.
func (h *ProcessorHooks) OnSuspend(tk *coroutine.Task) {
	h.event(tk, "suspend", nil)
}

// OnWakeup records a "wakeup" event on tk's open span. Pass this directly
// to processor.WithWakeupHook.
func (h *ProcessorHooks) OnWakeup(tk *coroutine.Task) {
	h.event(tk, "wakeup", nil)
}

// OnSteal records a "stolen" event on the open span of every task taken;
// a task with no open span is skipped. Pass this directly to
// processor.WithStealHook.
func (h *ProcessorHooks) OnSteal(tasks []*coroutine.Task) {
	for _, tk := range tasks {
		h.event(tk, "stolen", nil)
	}
}

func (h *ProcessorHooks) event(tk *coroutine.Task, name string, attrs map[string]string) {
	h.mu.Lock()
	span := h.spans[tk.ID()]
	h.mu.Unlock()
	span.AddEvent(name, attrs)
}

func (h *ProcessorHooks) takeSpan(tk *coroutine.Task) (*Span, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	span, ok := h.spans[tk.ID()]
	if ok {
		delete(h.spans, tk.ID())
	}
	return span, ok
}
