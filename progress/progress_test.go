package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateAggregatesCounters(t *testing.T) {
	_, tr := WithNewTracker(context.Background(), "pool-1", "demo", nil)

	tr.Update(Delta{Total: 2, Pending: 2})
	tr.Update(Delta{Pending: -1, Running: 1})
	tr.Update(Delta{Running: -1, Completed: 1})

	snap := tr.Snapshot()
	assert.Equal(t, 2, snap.TotalTasks)
	assert.Equal(t, 1, snap.PendingTasks)
	assert.Equal(t, 0, snap.RunningTasks)
	assert.Equal(t, 1, snap.CompletedTasks)
}

func TestOnChangeFiresAfterUpdate(t *testing.T) {
	_, tr := WithNewTracker(context.Background(), "pool-1", "demo", nil)

	var seen Progress
	tr.OnChange(func(p Progress) { seen = p })
	tr.Update(Delta{Total: 1, Failed: 1})

	assert.Equal(t, 1, seen.TotalTasks)
	assert.Equal(t, 1, seen.FailedTasks)
}

func TestFromContextRoundTrips(t *testing.T) {
	ctx, tr := WithNewTracker(context.Background(), "pool-2", "demo", nil)
	tr.Update(Delta{Total: 1})

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, tr, got)

	snap, ok := GetSnapshot(ctx)
	assert.True(t, ok)
	assert.Equal(t, 1, snap.TotalTasks)

	UpdateCtx(ctx, Delta{Completed: 1})
	assert.Equal(t, 1, tr.Snapshot().CompletedTasks)
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tr *Progress
	tr.Update(Delta{Total: 1}) // must not panic
	assert.Equal(t, Progress{}, tr.Snapshot())
}
