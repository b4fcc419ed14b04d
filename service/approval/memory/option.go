package memory

import approval "github.com/viant/coproc/service/approval"

type Option func(*service)

// WithOnDecision registers a hook invoked synchronously after a request has
// been decided and before the decision event is published. Use it to re-admit
// a gated task into a scheduler once approved.
func WithOnDecision(fn func(r *approval.Request, d *approval.Decision)) Option {
	return func(s *service) { s.onDecision = fn }
}
