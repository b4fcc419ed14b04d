package completion

import "time"

// CompletionRecord is written by the runtime's task-done hook for every
// task a processor retires, successful or not, so a supervisor can inspect
// how and when a task finished after the fact.
type CompletionRecord struct {
	TaskID      string    `json:"taskId"` // primary key
	TaskName    string    `json:"taskName"`
	ProcessorID string    `json:"processorId"`
	Err         string    `json:"err"`
	CompletedAt time.Time `json:"completedAt"`
}
