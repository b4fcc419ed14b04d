package processor

// GC drains the gc queue and drops a reference on every task in it. A task
// whose reference count reaches zero here releases its weak-reference
// arena slot, which is what makes any SuspendEntry still pointing at it
// resolve as dead from then on.
func (p *Processor) GC() {
	retired := p.gcQueue.PopAll()
	for _, tk := range retired {
		tk.DecrementRef()
	}
	if len(retired) > 0 && p.onGC != nil {
		p.onGC(retired)
	}
}
