// Package approval implements the optional human-in-the-loop gate in front of
// task admission. A policy.Policy in ModeAsk can route a task name through a
// Request here and hold it until an explicit approve/reject Decision is
// recorded, instead of (or in addition to) deciding synchronously via
// policy.AskFunc.
package approval
