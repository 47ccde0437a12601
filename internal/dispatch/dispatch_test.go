// internal/dispatch/dispatch_test.go

package dispatch

import (
	"context"
	"testing"
	"time"

	"radiohal-go/hal"
)

func waitFired(t *testing.T, fired <-chan uint32, want uint32) {
	t.Helper()
	select {
	case pin := <-fired:
		if pin != want {
			t.Fatalf("callback fired for pin %d, want %d", pin, want)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for callback")
	}
}

func assertQuiet(t *testing.T, fired <-chan uint32) {
	t.Helper()
	select {
	case pin := <-fired:
		t.Fatalf("unexpected callback for pin %d", pin)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestDispatchEdgeMatching(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(8)
	w.Start(ctx)

	fired := make(chan uint32, 8)
	w.Attach(4, func() { fired <- 4 }, hal.Rising)

	w.Alert(4, hal.High)
	waitFired(t, fired, 4)

	// Falling observation must not trigger a rising registration.
	w.Alert(4, hal.Low)
	assertQuiet(t, fired)

	// Both matches either direction.
	w.Attach(4, func() { fired <- 4 }, hal.Both)
	w.Alert(4, hal.Low)
	waitFired(t, fired, 4)
	w.Alert(4, hal.High)
	waitFired(t, fired, 4)
}

func TestDispatchDetachClearsRegistration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(8)
	w.Start(ctx)

	fired := make(chan uint32, 8)
	w.Attach(7, func() { fired <- 7 }, hal.Falling)
	if !w.Attached(7) {
		t.Fatal("Attached(7) = false after Attach")
	}

	w.Detach(7)
	if w.Attached(7) {
		t.Fatal("Attached(7) = true after Detach")
	}
	w.Alert(7, hal.Low)
	assertQuiet(t, fired)
}

func TestDispatchReplacesRegistration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(8)
	w.Start(ctx)

	first := make(chan uint32, 1)
	second := make(chan uint32, 1)
	w.Attach(3, func() { first <- 3 }, hal.Rising)
	w.Attach(3, func() { second <- 3 }, hal.Falling)

	w.Alert(3, hal.Low)
	waitFired(t, second, 3)
	assertQuiet(t, first)
}

func TestDispatchIgnoresInvalidPins(t *testing.T) {
	w := New(4)
	w.Attach(hal.NC, func() {}, hal.Rising)
	w.Attach(hal.MaxUserPin+1, func() {}, hal.Rising)
	if w.Attached(hal.NC) || w.Attached(hal.MaxUserPin+1) {
		t.Fatal("out-of-range pin registered")
	}
	// No worker running; invalid alerts must not enqueue or panic.
	w.Alert(hal.NC, hal.High)
	if len(w.alerts) != 0 {
		t.Fatal("invalid pin alert enqueued")
	}
}

func TestDispatchDropsWhenQueueFull(t *testing.T) {
	// Not started: the queue fills and further alerts are dropped.
	w := New(2)
	w.Alert(1, hal.High)
	w.Alert(1, hal.High)
	w.Alert(1, hal.High)
	if got := w.Drops(); got != 1 {
		t.Fatalf("Drops() = %d, want 1", got)
	}
}

func TestDispatchStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := New(4)
	w.Start(ctx)
	cancel()
	select {
	case <-w.Stopped():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
