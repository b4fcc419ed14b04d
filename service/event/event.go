package event

import (
	"time"

	"github.com/viant/coproc/internal/clock"
)

// Context identifies which processor and task an Event is about, plus a
// free-form Kind distinguishing switch/suspend/wakeup/done events from one
// another.
type Context struct {
	ProcessorID string `json:"processorID"`
	TaskID      string `json:"taskID"`
	TaskName    string `json:"taskName"`
	Kind        string `json:"kind"`
	SwitchCount uint64 `json:"switchCount"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
