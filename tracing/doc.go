// Package tracing integrates OpenTelemetry with the scheduler to provide
// distributed tracing information: one span per coroutine.Task, opened on
// its first SwapIn and closed on retirement, with suspend/wakeup/steal
// recorded as events on that span rather than spans of their own. All
// instrumentation is kept in a separate package so that applications which
// do not require tracing can exclude it from their build — every processor
// hook accepts nil.
package tracing
