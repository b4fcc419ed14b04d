package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/coproc/service/messaging/memory"
)

func newMemoryService(t *testing.T) *Service {
	t.Helper()
	svc, err := New("memory", WithNewMemoryQueueConfig(func(name string) memory.Config {
		return memory.DefaultConfig()
	}))
	assert.NoError(t, err)
	return svc
}

func TestPublishDeliversToListener(t *testing.T) {
	svc := newMemoryService(t)

	var mu sync.Mutex
	var got *Event[any]
	received := make(chan struct{})
	svc.SetListener(func(e *Event[any]) {
		mu.Lock()
		got = e
		mu.Unlock()
		close(received)
	})

	evt := NewEvent[any](&Context{ProcessorID: "proc-0", TaskID: "t1", Kind: "switch"}, nil)
	err := svc.Publish(context.Background(), evt)
	assert.NoError(t, err)

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("listener never received the published event")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "proc-0", got.Context.ProcessorID)
	assert.Equal(t, "switch", got.Context.Kind)
}

func TestTypedPublisherRoundTrips(t *testing.T) {
	svc := newMemoryService(t)

	type payload struct{ N int }
	publisher, err := PublisherOf[payload](svc)
	assert.NoError(t, err)

	evt := NewEvent(&Context{Kind: "custom"}, payload{N: 7})
	assert.NoError(t, publisher.Publish(context.Background(), evt))

	got, err := publisher.Consume(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 7, got.Data.N)
}
