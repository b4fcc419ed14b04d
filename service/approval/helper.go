package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/coproc/internal/clock"
)

// DecisionFunc decides what to do with a pending request.
// Return (true,  "") to approve
//
//	(false, "…") to reject with reason.
type DecisionFunc func(r *Request) (approved bool, reason string)

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request.  It returns stop() – call it (or cancel ctx) to exit.
func AutoDecider(ctx context.Context,
	svc Service,
	fn DecisionFunc,
	interval time.Duration) (stop func()) {

	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				reqs, _ := svc.ListPending(ctx)
				for _, r := range reqs {
					ok, reason := fn(r)
					_, _ = svc.Decide(ctx, r.ID, ok, reason)
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all pending requests
func AutoApprove(ctx context.Context,
	svc Service,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) (bool, string) { return true, "" }, interval)
}

// AutoReject automatically rejects all pending requests with the given reason
func AutoReject(ctx context.Context,
	svc Service,
	reason string,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) (bool, string) { return false, reason }, interval)
}

// PendingFilter narrows the result of ListPending.
type PendingFilter func(*Request) bool

// WithProcessorID keeps only requests raised on behalf of the given processor.
func WithProcessorID(id string) PendingFilter {
	return func(r *Request) bool { return r.ProcessorID == id }
}

// WithTaskName keeps only requests gating the given task name.
func WithTaskName(name string) PendingFilter {
	return func(r *Request) bool { return r.TaskName == name }
}

// ListPending returns svc's pending requests narrowed down by filters, all of
// which must match for a request to be kept.
func ListPending(ctx context.Context, svc Service, filters ...PendingFilter) ([]*Request, error) {
	all, err := svc.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return all, nil
	}
	out := make([]*Request, 0, len(all))
	for _, r := range all {
		keep := true
		for _, f := range filters {
			if !f(r) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out, nil
}

// AutoExpire starts a goroutine that polls ListPending every interval and
// rejects any request whose ExpiresAt deadline has passed, recording reason
// as the decision's Reason. It returns stop() to end the loop early.
func AutoExpire(ctx context.Context, svc Service, reason string, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				reqs, _ := svc.ListPending(ctx)
				now := clock.Now()
				for _, r := range reqs {
					if r.ExpiresAt != nil && r.ExpiresAt.Before(now) {
						_, _ = svc.Decide(ctx, r.ID, false, reason)
					}
				}
			}
		}
	}()
	return func() { close(done) }
}

// WaitForDecision blocks until a Decision for id is published on svc's
// Queue, or returns an error once timeout elapses. It drains (and discards)
// any unrelated events ahead of the matching decision, so it assumes it is
// the sole consumer of svc.Queue() for the duration of the wait.
func WaitForDecision(ctx context.Context, svc Service, id string, timeout time.Duration) (*Decision, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	q := svc.Queue()
	for {
		msg, err := q.Consume(waitCtx)
		if err != nil {
			return nil, fmt.Errorf("waiting for decision on %s: %w", id, err)
		}
		ev := msg.T()
		if ev.Topic != TopicDecisionCreated {
			_ = msg.Ack()
			continue
		}
		d, ok := ev.Data.(*Decision)
		_ = msg.Ack()
		if !ok || d.ID != id {
			continue
		}
		return d, nil
	}
}
