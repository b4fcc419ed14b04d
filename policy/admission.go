package policy

import "context"

// Admit runs the full admission decision for taskName: BlockList/AllowList
// first, then Mode. It is the single call site scheduler.AddTask wrappers
// should use instead of composing IsAllowed and a Mode switch themselves.
func (p *Policy) Admit(ctx context.Context, taskName string, args map[string]interface{}) bool {
	if p == nil {
		return true
	}
	if !p.IsAllowed(taskName) {
		return false
	}
	switch p.Mode {
	case ModeDeny:
		return false
	case ModeAsk:
		if p.Ask == nil {
			return true
		}
		return p.Ask(ctx, taskName, args, p)
	default:
		return true
	}
}
