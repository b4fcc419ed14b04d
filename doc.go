// Package coproc provides a generic, extensible M:N coroutine scheduler.
//
// Work is admitted as a coroutine.Task to a scheduler.Scheduler that owns a
// fixed pool of processor.Processor run loops. The package wires together
// the pool with the ambient concerns a host application expects around it:
//
//   - policy    – optional admission gating by task name (ask/auto/deny)
//   - approval  – human-in-the-loop decisions for tasks a Policy asks about
//   - join      – rendezvous groups for fan-out/fan-in across tasks
//   - tracing   – one OpenTelemetry span per task, suspend/wakeup/steal as events
//   - dao/stats, dao/completion – periodic processor snapshots and per-task outcomes
//
// End-users typically interact with the scheduler via the high-level Service
// façade exposed by the root package:
//
//	srv := coproc.New(coproc.WithWorkers(8))
//	rt  := srv.Runtime()
//	rt.Start(ctx)
//	tk, _ := rt.Spawn(ctx, "report.generate", body)
//
// For more details see the README and individual sub-packages.
package coproc
