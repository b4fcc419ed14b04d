// Package timer provides the one-shot scheduling primitive
// processor.SuspendFor/SuspendUntil need to wake a suspended task after a
// delay or at a deadline, without those functions reaching for time.AfterFunc
// directly and becoming untestable. Service satisfies processor.TimerService
// structurally; nothing in processor imports this package, so timer stays
// free of any dependency back on it.
package timer

import (
	"sync"
	"time"

	"github.com/viant/coproc/internal/clock"
)

// Service arms and cancels one-shot callbacks. The zero Service is usable.
type Service struct {
	mu      sync.Mutex
	pending map[*pendingTimer]struct{}
}

type pendingTimer struct {
	timer *time.Timer
}

// New returns a ready-to-use Service.
func New() *Service {
	return &Service{pending: make(map[*pendingTimer]struct{})}
}

// After arms fn to run after d elapses and returns a Cancel that aborts it
// if called before it fires. Calling Cancel after fn has already run is a
// harmless no-op, matching time.Timer.Stop's own contract.
func (s *Service) After(d time.Duration, fn func()) func() {
	pt := &pendingTimer{}
	s.mu.Lock()
	if s.pending == nil {
		s.pending = make(map[*pendingTimer]struct{})
	}
	s.pending[pt] = struct{}{}
	s.mu.Unlock()

	pt.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.pending, pt)
		s.mu.Unlock()
		fn()
	})

	return func() {
		pt.timer.Stop()
		s.mu.Lock()
		delete(s.pending, pt)
		s.mu.Unlock()
	}
}

// At arms fn to run at or after the given instant, measured against
// clock.Now so tests that stub internal/clock.NowFunc can control it.
func (s *Service) At(t time.Time, fn func()) func() {
	d := t.Sub(clock.Now())
	if d < 0 {
		d = 0
	}
	return s.After(d, fn)
}

// Pending reports how many callbacks are currently armed, for tests and
// shutdown bookkeeping.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every currently armed callback.
func (s *Service) Stop() {
	s.mu.Lock()
	timers := make([]*pendingTimer, 0, len(s.pending))
	for pt := range s.pending {
		timers = append(timers, pt)
	}
	s.pending = make(map[*pendingTimer]struct{})
	s.mu.Unlock()

	for _, pt := range timers {
		pt.timer.Stop()
	}
}
