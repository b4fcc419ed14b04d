// Package join implements structured fan-out/fan-in between coroutine.Tasks:
// a parent task spawns a batch of children tagged to a Group, then calls
// Wait to suspend itself until every child has reported completion via
// Group.MarkDone. The shape is the same rendezvous pattern a workflow
// runtime uses for joining asynchronous sub-executions, adapted here to
// processor.Suspend and coroutine.Wakeup instead of a workflow step's own
// callback chain.
package join
