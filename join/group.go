package join

import (
	"strings"
	"sync"
	"time"

	"github.com/viant/coproc/coroutine"
	"github.com/viant/coproc/internal/clock"
)

// Group is a rendezvous for a set of child tasks spawned by a parent task.
// It tracks how many children were expected and how many have reported
// completion so far, and wakes the parent (once it has called Wait) as soon
// as the rendezvous condition for Mode is satisfied.
type Group struct {
	ID           string
	ParentTaskID string

	Expected int
	Mode     string // "all" (default), "first", "anyerror"

	mu        sync.Mutex
	completed int
	failed    int
	outputs   []interface{}
	doneAt    *time.Time
	entry     coroutine.SuspendEntry
	entrySet  bool
}

// NewGroup creates a Group expecting n child completions.
func NewGroup(id, parentTaskID string, n int) *Group {
	return &Group{ID: id, ParentTaskID: parentTaskID, Expected: n}
}

// Failed reports whether at least one child finished with an error.
func (g *Group) Failed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failed > 0
}

// Outputs returns a copy of every non-nil child output collected so far.
func (g *Group) Outputs() []interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]interface{}(nil), g.outputs...)
}

// Done reports whether the rendezvous condition has already fired.
func (g *Group) Done() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.doneAt != nil
}

// MarkDone registers a child's completion (failed indicates it ended in
// error) and wakes the parent task once the rendezvous condition for Mode
// is satisfied. Safe to call from any goroutine, any number of times past
// completion.
func (g *Group) MarkDone(failed bool, output interface{}) {
	g.mu.Lock()

	if failed {
		g.failed++
	}
	if output != nil {
		g.outputs = append(g.outputs, output)
	}
	g.completed++

	complete := false
	switch strings.ToLower(g.Mode) {
	case "first":
		complete = g.doneAt == nil
	case "anyerror":
		complete = g.doneAt == nil && (failed || (g.completed >= g.Expected && g.Expected > 0))
	default: // "all"
		complete = g.doneAt == nil && g.completed >= g.Expected && g.Expected > 0
	}

	var entry coroutine.SuspendEntry
	wake := false
	if complete {
		now := clock.Now()
		g.doneAt = &now
		if g.entrySet {
			entry, wake = g.entry, true
		}
	}
	g.mu.Unlock()

	if wake {
		coroutine.Wakeup(entry)
	}
}

// registerEntry stashes the parent's SuspendEntry so a MarkDone racing
// ahead of Wait's registration still wakes it. If the group is already
// complete by the time Wait registers, it wakes the entry immediately
// instead of stashing it.
func (g *Group) registerEntry(entry coroutine.SuspendEntry) {
	g.mu.Lock()
	alreadyDone := g.doneAt != nil
	if !alreadyDone {
		g.entry = entry
		g.entrySet = true
	}
	g.mu.Unlock()

	if alreadyDone {
		coroutine.Wakeup(entry)
	}
}
