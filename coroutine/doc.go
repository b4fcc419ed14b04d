// Package coroutine provides the Task primitive that a processor.Processor
// schedules: a stackful coroutine emulated with a dedicated goroutine and a
// pair of rendezvous channels, a generation-tagged weak-reference arena used
// by suspend tokens, and the context-based replacement for a thread-local
// "current processor/task" pointer.
package coroutine
