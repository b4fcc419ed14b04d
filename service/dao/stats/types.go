package stats

import "time"

// ProcessorStats is a point-in-time snapshot of one processor.Processor,
// sampled periodically by the runtime for external observability.
type ProcessorStats struct {
	ProcessorID  string    `json:"processorId"` // primary key
	SwitchCount  uint64    `json:"switchCount"`
	RunnableSize int       `json:"runnableSize"`
	NewSize      int       `json:"newSize"`
	WaitSize     int       `json:"waitSize"`
	StealCount   int       `json:"stealCount"`
	GCCount      int       `json:"gcCount"`
	SampledAt    time.Time `json:"sampledAt"`
}
