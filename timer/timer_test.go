package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAfterFires(t *testing.T) {
	svc := New()
	done := make(chan struct{})
	svc.After(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	assert.Equal(t, 0, svc.Pending())
}

func TestCancelPreventsCallback(t *testing.T) {
	svc := New()
	fired := false
	cancel := svc.After(50*time.Millisecond, func() { fired = true })
	cancel()

	time.Sleep(80 * time.Millisecond)
	assert.False(t, fired)
	assert.Equal(t, 0, svc.Pending())
}

func TestStopCancelsEverythingPending(t *testing.T) {
	svc := New()
	var count int
	for i := 0; i < 3; i++ {
		svc.After(time.Minute, func() { count++ })
	}
	assert.Equal(t, 3, svc.Pending())
	svc.Stop()
	assert.Equal(t, 0, svc.Pending())
}

func TestAtWithPastDeadlineFiresImmediately(t *testing.T) {
	svc := New()
	done := make(chan struct{})
	svc.At(time.Now().Add(-time.Hour), func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never fired for a past deadline")
	}
}
