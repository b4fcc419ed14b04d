// Package scheduler owns a fixed pool of processor.Processor instances,
// dispatches newly admitted tasks across them round-robin, and runs a
// watchdog that steals work away from a stalled processor so one stuck
// task cannot starve the rest of the pool. It is grounded on the
// service/allocator.Service ticker-driven polling loop for the watchdog's
// shape, adapted here from workflow-state polling to processor.Mark/
// IsBlocking-driven rebalancing.
package scheduler
