package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/coproc/coroutine"
	"github.com/viant/coproc/processor"
)

const (
	defaultWatchdogInterval = 50 * time.Millisecond
	defaultStealBatch       = 4
)

// Scheduler owns a fixed pool of processors and is the entry point callers
// use to admit work into the system; it never runs a task's body itself,
// only decides which processor a task lands on and, via its watchdog,
// which processor a task gets moved to if its original one stalls.
type Scheduler struct {
	processors []*processor.Processor
	next       atomic.Uint64

	watchdogInterval time.Duration
	stealBatch       int

	stop    chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup

	blockedState map[string]bool

	onRebalance      func(from, to string, n int)
	onBlocked        func(processorID string)
	onProcessFailure func(processorID string, err error)
}

// New builds a Scheduler with n processors, each configured with procOpts.
func New(n int, opts ...Option) *Scheduler {
	if n <= 0 {
		n = 1
	}
	s := &Scheduler{
		watchdogInterval: defaultWatchdogInterval,
		stealBatch:       defaultStealBatch,
		stop:             make(chan struct{}),
		blockedState:     make(map[string]bool),
	}
	var procOpts []processor.Option
	for _, opt := range opts {
		opt(s, &procOpts)
	}

	s.processors = make([]*processor.Processor, n)
	for i := range s.processors {
		s.processors[i] = processor.New(fmt.Sprintf("proc-%d", i), procOpts...)
	}
	return s
}

// Processors returns the scheduler's processor pool. Callers should treat
// the slice as read-only.
func (s *Scheduler) Processors() []*processor.Processor { return s.processors }

// AddTask admits tk onto one of the pool's processors, chosen round-robin.
func (s *Scheduler) AddTask(tk *coroutine.Task) {
	idx := s.next.Add(1) - 1
	s.processors[idx%uint64(len(s.processors))].AddTask(tk)
}

// Start launches every processor's run loop plus the watchdog, and returns
// immediately; callers stop the pool with Stop or by cancelling ctx.
func (s *Scheduler) Start(ctx context.Context) {
	for _, p := range s.processors {
		s.wg.Add(1)
		go func(p *processor.Processor) {
			defer s.wg.Done()
			s.runProcessor(ctx, p)
		}(p)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watchdog(ctx)
	}()
}

// runProcessor runs p's scheduling loop, restarting it whenever a task
// completes carrying a captured failure instead of letting that failure
// kill the worker goroutine outright — p.Process already stopped its own
// loop at the point of failure; it is this caller's job to decide whether
// the processor resumes or the pool gives up on it. A restart loses
// nothing already admitted: everything still linked into p's queues
// survives across the call.
func (s *Scheduler) runProcessor(ctx context.Context, p *processor.Processor) {
	for {
		err := p.Process(ctx)
		if err == nil {
			return
		}
		log.Printf("scheduler: processor %s stopped on task failure: %v", p.ID(), err)
		if s.onProcessFailure != nil {
			s.onProcessFailure(p.ID(), err)
		}
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Stop asks every processor and the watchdog to exit, then blocks until
// they have. Safe to call more than once.
func (s *Scheduler) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stop)
		for _, p := range s.processors {
			p.Stop()
		}
	}
	s.wg.Wait()
}

// watchdog periodically marks every processor, and on the tick after a
// mark moves a batch of work off any processor that made no progress in
// between and still has runnable work sitting behind whatever stalled it.
func (s *Scheduler) watchdog(ctx context.Context) {
	ticker := time.NewTicker(s.watchdogInterval)
	defer ticker.Stop()

	for _, p := range s.processors {
		p.Mark()
	}

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rebalance()
		}
	}
}

func (s *Scheduler) rebalance() {
	for _, victim := range s.processors {
		// An idle processor also reports IsBlocking; only one with a task
		// still linked in its runnable queue counts as blocked.
		blocking := victim.IsBlocking() && victim.RunnableSize() > 0
		if blocking && !s.blockedState[victim.ID()] {
			log.Printf("scheduler: processor %s is blocking", victim.ID())
			if s.onBlocked != nil {
				s.onBlocked(victim.ID())
			}
		}
		s.blockedState[victim.ID()] = blocking

		if blocking && victim.RunnableSize() > 0 {
			target := s.leastLoaded(victim)
			if target != nil {
				if stolen := victim.Steal(s.stealBatch); len(stolen) > 0 {
					target.AddTasks(stolen)
					if s.onRebalance != nil {
						s.onRebalance(victim.ID(), target.ID(), len(stolen))
					}
				}
			}
		}
		victim.Mark()
	}
}

func (s *Scheduler) leastLoaded(excluding *processor.Processor) *processor.Processor {
	var best *processor.Processor
	bestLoad := -1
	for _, p := range s.processors {
		if p == excluding {
			continue
		}
		load := p.RunnableSize() + p.NewQueueSize()
		if bestLoad < 0 || load < bestLoad {
			best, bestLoad = p, load
		}
	}
	return best
}
