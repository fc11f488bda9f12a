package services

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(2, 8)
	defer d.Stop()

	var ran int64
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		d.Enqueue("count", func() error {
			if atomic.AddInt64(&ran, 1) == 5 {
				close(done)
			}
			return nil
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("only %d of 5 jobs ran", atomic.LoadInt64(&ran))
	}
}

func TestDispatcherAbsorbsFailures(t *testing.T) {
	d := NewDispatcher(1, 8)
	defer d.Stop()

	done := make(chan struct{})
	d.Enqueue("boom", func() error {
		return errors.New("smtp unreachable")
	})
	d.Enqueue("after", func() error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a failing job")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, 1)

	block := make(chan struct{})
	d.Enqueue("block", func() error {
		<-block
		return nil
	})

	// fill the queue, then overflow it; Enqueue must return immediately
	var dropped int64
	for i := 0; i < 5; i++ {
		d.Enqueue("overflow", func() error {
			atomic.AddInt64(&dropped, -1) // ran, not dropped
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		close(block)
		d.Stop()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue or Stop blocked on a full queue")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	d := NewDispatcher(1, 1)
	d.Stop()
	d.Stop() // second call must not panic on a closed channel
}
