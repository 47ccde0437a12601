// internal/dispatch/dispatch.go
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"radiohal-go/hal"
)

// Alert is one observed signal change on a watched pin, captured by a
// backend watcher at the moment the edge fired.
type Alert struct {
	Pin   uint32
	Level hal.Level
}

// Worker emulates edge-triggered interrupts on top of a backend's
// polling/watch mechanism. Watchers feed observed alerts in; a single
// dispatch goroutine compares each alert against the registered mode and
// invokes the stored callback when they match.
type Worker struct {
	// Written by watchers; sends MUST NOT block:
	alerts  chan Alert
	stopped chan struct{}

	// Registration state: three parallel arrays indexed by pin number.
	mu        sync.Mutex
	enabled   [hal.MaxUserPin + 1]bool
	modes     [hal.MaxUserPin + 1]hal.Edge
	callbacks [hal.MaxUserPin + 1]hal.ISR

	drops uint32 // watcher-side drop counter
}

func New(buf int) *Worker {
	if buf <= 0 {
		buf = 64
	}
	return &Worker{
		alerts:  make(chan Alert, buf),
		stopped: make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case a := <-w.alerts:
				w.dispatch(a)
			}
		}
	}()
}

// Stopped is closed once the dispatch goroutine has exited.
func (w *Worker) Stopped() <-chan struct{} { return w.stopped }

// Attach enables the emulated interrupt for pin, replacing any previous
// registration. Out-of-range pins are ignored.
func (w *Worker) Attach(pin uint32, cb hal.ISR, edge hal.Edge) {
	if !hal.ValidPin(pin) {
		return
	}
	w.mu.Lock()
	w.enabled[pin] = true
	w.modes[pin] = edge
	w.callbacks[pin] = cb
	w.mu.Unlock()
}

// Detach clears all three registration slots for pin.
func (w *Worker) Detach(pin uint32) {
	if !hal.ValidPin(pin) {
		return
	}
	w.mu.Lock()
	w.enabled[pin] = false
	w.modes[pin] = hal.NoEdge
	w.callbacks[pin] = nil
	w.mu.Unlock()
}

// Attached reports whether an interrupt is currently enabled for pin.
func (w *Worker) Attached(pin uint32) bool {
	if !hal.ValidPin(pin) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled[pin]
}

// Alert feeds one observation from a watcher. Non-blocking: if the queue
// is full the alert is dropped and counted, never stalling the watcher.
func (w *Worker) Alert(pin uint32, level hal.Level) {
	if !hal.ValidPin(pin) {
		return
	}
	select {
	case w.alerts <- Alert{Pin: pin, Level: level}:
	default:
		atomic.AddUint32(&w.drops, 1)
	}
}

// Drops returns the number of alerts discarded due to a full queue.
func (w *Worker) Drops() uint32 { return atomic.LoadUint32(&w.drops) }

func (w *Worker) dispatch(a Alert) {
	w.mu.Lock()
	enabled := w.enabled[a.Pin]
	mode := w.modes[a.Pin]
	cb := w.callbacks[a.Pin]
	w.mu.Unlock()

	// Enabled, level matches the registered mode, and a callback exists.
	if enabled && cb != nil && edgeMatches(mode, a.Level) {
		cb()
	}
}

// edgeMatches maps an observed level onto the registered edge mode: a high
// observation is the tail of a rising edge, a low one of a falling edge.
func edgeMatches(e hal.Edge, l hal.Level) bool {
	switch e {
	case hal.Rising:
		return l == hal.High
	case hal.Falling:
		return l == hal.Low
	case hal.Both:
		return true
	default:
		return false
	}
}
