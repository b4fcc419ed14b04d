package coproc

import (
	"context"
	"time"

	"github.com/viant/coproc/join"
	"github.com/viant/coproc/policy"
	"github.com/viant/coproc/processor"
	"github.com/viant/coproc/progress"
	"github.com/viant/coproc/scheduler"
	"github.com/viant/coproc/service/approval"
	"github.com/viant/coproc/service/dao"
	"github.com/viant/coproc/service/dao/completion"
	completionmemory "github.com/viant/coproc/service/dao/completion/memory"
	"github.com/viant/coproc/service/dao/stats"
	statsmemory "github.com/viant/coproc/service/dao/stats/memory"
	"github.com/viant/coproc/service/event"
	"github.com/viant/coproc/timer"
	"github.com/viant/coproc/tracing"
)

const defaultWorkers = 8

// Service holds construction-time options and builds the Runtime they
// describe. Once built, callers interact with the scheduler exclusively
// through Runtime.
type Service struct {
	runtime *Runtime

	workers          int
	schedulerOptions []scheduler.Option
	processorOptions []processor.Option

	policy          *policy.Policy
	approvalService approval.Service
	timerService    *timer.Service
	joinStore       *join.Store
	eventService    *event.Service

	statsDAO            dao.Service[string, stats.ProcessorStats]
	completionDAO       dao.Service[string, completion.CompletionRecord]
	statsSampleInterval time.Duration

	tracingEnabled bool
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()

	r := s.runtime
	r.policy = s.policy
	r.timer = s.timerService
	r.joinStore = s.joinStore
	r.approval = s.approvalService
	r.eventService = s.eventService
	r.statsDAO = s.statsDAO
	r.completionDAO = s.completionDAO
	r.statsSampleInterval = s.statsSampleInterval
	r.counters = newTaskCounters()
	_, r.progress = progress.WithNewTracker(context.Background(), "", "coproc", nil)

	if s.tracingEnabled {
		r.tracingHooks = tracing.NewProcessorHooks(context.Background())
	}

	procOpts := append([]processor.Option{}, s.processorOptions...)
	procOpts = append(procOpts,
		processor.WithSwitchHook(r.onSwitch),
		processor.WithSwitchOutHook(r.onSwitchOut),
		processor.WithTaskDoneHook(r.onTaskDone),
		processor.WithSuspendHook(r.onSuspend),
		processor.WithWakeupHook(r.onWakeup),
		processor.WithStealHook(r.onSteal),
		processor.WithGCHook(r.onGC),
	)
	schedOpts := append([]scheduler.Option{}, s.schedulerOptions...)
	schedOpts = append(schedOpts,
		scheduler.WithProcessorOptions(procOpts...),
		scheduler.WithBlockedHook(r.onBlocked),
	)
	r.scheduler = scheduler.New(s.workers, schedOpts...)
}

func (s *Service) ensureBaseSetup() {
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}
	if s.timerService == nil {
		s.timerService = timer.New()
	}
	if s.joinStore == nil {
		s.joinStore = join.NewStore()
	}
	if s.statsDAO == nil {
		s.statsDAO = statsmemory.New()
	}
	if s.completionDAO == nil {
		s.completionDAO = completionmemory.New()
	}
}

// Runtime returns the constructed Runtime.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// New builds a Service – and the Runtime it wraps – from the supplied
// options. The scheduler's pool is built but not started; call
// Runtime.Start to launch it.
func New(options ...Option) *Service {
	ret := &Service{runtime: &Runtime{}}
	ret.init(options)
	return ret
}
