// Package policy provides optional declarative rules for gating task
// admission into a scheduler.Scheduler – for example to require human
// approval for selected task names or to block a name outright.
package policy
