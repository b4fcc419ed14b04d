package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/coproc/service/dao"
	"github.com/viant/coproc/service/dao/completion"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := New()

	rec := &completion.CompletionRecord{TaskID: "t1", TaskName: "ingest", Err: "boom"}
	assert.NoError(t, svc.Save(ctx, rec))

	got, err := svc.Load(ctx, "t1")
	assert.NoError(t, err)
	assert.Equal(t, "boom", got.Err)
}

func TestListReturnsAllRecords(t *testing.T) {
	ctx := context.Background()
	svc := New()
	assert.NoError(t, svc.Save(ctx, &completion.CompletionRecord{TaskID: "t1"}))
	assert.NoError(t, svc.Save(ctx, &completion.CompletionRecord{TaskID: "t2"}))

	all, err := svc.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSaveRejectsNilAndEmptyID(t *testing.T) {
	svc := New()
	ctx := context.Background()
	assert.ErrorIs(t, svc.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, svc.Save(ctx, &completion.CompletionRecord{}), dao.ErrInvalidID)
}
