package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/coproc/service/dao"
	"github.com/viant/coproc/service/dao/stats"
)

func TestSaveLoadOverwritesLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := New()

	assert.NoError(t, svc.Save(ctx, &stats.ProcessorStats{ProcessorID: "p1", SwitchCount: 1}))
	assert.NoError(t, svc.Save(ctx, &stats.ProcessorStats{ProcessorID: "p1", SwitchCount: 2}))

	got, err := svc.Load(ctx, "p1")
	assert.NoError(t, err)
	assert.EqualValues(t, uint64(2), got.SwitchCount)
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	svc := New()
	_, err := svc.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestSaveRejectsNilAndEmptyID(t *testing.T) {
	svc := New()
	ctx := context.Background()
	assert.ErrorIs(t, svc.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, svc.Save(ctx, &stats.ProcessorStats{}), dao.ErrInvalidID)
}

func TestListReturnsAllSnapshots(t *testing.T) {
	ctx := context.Background()
	svc := New()
	assert.NoError(t, svc.Save(ctx, &stats.ProcessorStats{ProcessorID: "p1"}))
	assert.NoError(t, svc.Save(ctx, &stats.ProcessorStats{ProcessorID: "p2"}))

	all, err := svc.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteRemovesSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := New()
	assert.NoError(t, svc.Save(ctx, &stats.ProcessorStats{ProcessorID: "p1"}))
	assert.NoError(t, svc.Delete(ctx, "p1"))
	_, err := svc.Load(ctx, "p1")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
