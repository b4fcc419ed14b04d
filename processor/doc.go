// Package processor implements the per-worker coroutine run loop: four
// intrusive task queues (new, runnable, wait, gc), a cooperative scheduling
// loop that runs each runnable task for one turn at a time, a suspend/wakeup
// protocol built on weak-reference tokens, work-stealing that protects the
// currently running task and its staged successor, and stall detection for
// a watchdog to act on. It is grounded on
// _examples/original_source/libgo/scheduler/processer.cpp for the run
// loop's exact control flow, and on the original workflow-engine's
// service/processor and service/allocator packages for Go construction
// and functional-option idiom.
package processor
