package coproc

import (
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/coproc/join"
	"github.com/viant/coproc/policy"
	"github.com/viant/coproc/processor"
	"github.com/viant/coproc/scheduler"
	"github.com/viant/coproc/service/approval"
	"github.com/viant/coproc/service/dao"
	"github.com/viant/coproc/service/dao/completion"
	"github.com/viant/coproc/service/dao/stats"
	"github.com/viant/coproc/service/event"
	"github.com/viant/coproc/timer"
	"github.com/viant/coproc/tracing"
)

// Option configures a Service at construction time.
type Option func(s *Service)

// WithWorkers sets the number of processors the scheduler's pool owns.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithPolicy sets the default admission Policy new tasks are checked
// against when the call context carries none of its own.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithApprovalService sets the approval service that Runtime.ApprovalService
// returns, for a Policy's Ask func in ModeAsk to route task admission
// through a human decision. Spawn does not file approval requests itself.
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.approvalService = svc }
}

// WithSchedulerOptions forwards opts to scheduler.New.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(s *Service) { s.schedulerOptions = append(s.schedulerOptions, opts...) }
}

// WithProcessorOptions forwards opts to every processor.New call the
// scheduler's pool makes.
func WithProcessorOptions(opts ...processor.Option) Option {
	return func(s *Service) { s.processorOptions = append(s.processorOptions, opts...) }
}

// WithTimer overrides the timer.Service used for SuspendFor/SuspendUntil
// style delays, including join.WaitTimeout.
func WithTimer(t *timer.Service) Option {
	return func(s *Service) { s.timerService = t }
}

// WithJoinStore overrides the join.Store used to track SpawnGroup's
// rendezvous groups.
func WithJoinStore(store *join.Store) Option {
	return func(s *Service) { s.joinStore = store }
}

// WithStatsDAO overrides where periodic processor snapshots are persisted.
func WithStatsDAO(d dao.Service[string, stats.ProcessorStats]) Option {
	return func(s *Service) { s.statsDAO = d }
}

// WithCompletionDAO overrides where per-task completion records are
// persisted.
func WithCompletionDAO(d dao.Service[string, completion.CompletionRecord]) Option {
	return func(s *Service) { s.completionDAO = d }
}

// WithEventService attaches a generic pub/sub service tasks and the
// runtime can publish lifecycle events to.
func WithEventService(svc *event.Service) Option {
	return func(s *Service) { s.eventService = svc }
}

// WithStatsSampleInterval overrides how often the runtime snapshots every
// processor and persists it via the stats DAO. Zero disables sampling.
func WithStatsSampleInterval(d time.Duration) Option {
	return func(s *Service) { s.statsSampleInterval = d }
}

// WithTracing configures OpenTelemetry tracing and attaches a
// tracing.ProcessorHooks to every processor the scheduler builds. If
// outputFile is empty the stdout exporter is used; otherwise traces are
// written to the supplied file path.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		if err := tracing.Init(serviceName, serviceVersion, outputFile); err == nil {
			s.tracingEnabled = true
		}
	}
}

// WithTracingExporter is WithTracing with a caller-supplied SpanExporter,
// for integrations such as OTLP, Jaeger or Zipkin.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		if err := tracing.InitWithExporter(serviceName, serviceVersion, exporter); err == nil {
			s.tracingEnabled = true
		}
	}
}
