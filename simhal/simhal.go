// simhal/simhal.go

// Package simhal is an in-memory HAL backend for desktop runs and tests.
// Pin levels are plain state, SPI defaults to loopback, and driving a pin
// from the outside fires the same interrupt dispatch a real edge would.
package simhal

import (
	"context"
	"sync"
	"time"

	"radiohal-go/hal"
	"radiohal-go/internal/dispatch"
	"radiohal-go/x/timex"
)

const alertQueueDepth = 64

type Hal struct {
	mu     sync.Mutex
	inited bool
	levels [hal.MaxUserPin + 1]hal.Level
	modes  [hal.MaxUserPin + 1]hal.PinMode

	spiOpen bool
	// Transfer overrides the SPI exchange; nil means loopback (in = out).
	Transfer func(out, in []byte) error

	disp   *dispatch.Worker
	cancel context.CancelFunc
	start  time.Time
}

var _ hal.Hal = (*Hal)(nil)

func New() *Hal {
	return &Hal{
		disp:  dispatch.New(alertQueueDepth),
		start: time.Now(),
	}
}

func (h *Hal) Init() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inited {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.disp.Start(ctx)
	h.spiOpen = true
	h.inited = true
	return nil
}

func (h *Hal) Term() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.inited {
		return nil
	}
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.disp = dispatch.New(alertQueueDepth)
	h.spiOpen = false
	h.inited = false
	return nil
}

func (h *Hal) PinMode(pin uint32, mode hal.PinMode) {
	if !hal.ValidPin(pin) {
		return
	}
	h.mu.Lock()
	h.modes[pin] = mode
	h.mu.Unlock()
}

func (h *Hal) DigitalWrite(pin uint32, level hal.Level) {
	if !hal.ValidPin(pin) {
		return
	}
	h.mu.Lock()
	h.levels[pin] = level
	h.mu.Unlock()
}

func (h *Hal) DigitalRead(pin uint32) hal.Level {
	if !hal.ValidPin(pin) {
		return hal.Low
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.levels[pin]
}

// Drive simulates an external signal landing on pin: the level is stored
// and the observation is fed to interrupt dispatch, like a real edge.
func (h *Hal) Drive(pin uint32, level hal.Level) {
	if !hal.ValidPin(pin) {
		return
	}
	h.mu.Lock()
	h.levels[pin] = level
	disp := h.disp
	h.mu.Unlock()
	disp.Alert(pin, level)
}

// LevelOf reports the current simulated level of pin, Low for invalid pins.
func (h *Hal) LevelOf(pin uint32) hal.Level { return h.DigitalRead(pin) }

// Mode reports the configured direction of pin.
func (h *Hal) Mode(pin uint32) hal.PinMode {
	if !hal.ValidPin(pin) {
		return hal.Input
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.modes[pin]
}

func (h *Hal) AttachInterrupt(pin uint32, cb hal.ISR, edge hal.Edge) {
	if cb == nil || edge == hal.NoEdge {
		return
	}
	h.mu.Lock()
	disp := h.disp
	h.mu.Unlock()
	disp.Attach(pin, cb, edge)
}

func (h *Hal) DetachInterrupt(pin uint32) {
	h.mu.Lock()
	disp := h.disp
	h.mu.Unlock()
	disp.Detach(pin)
}

func (h *Hal) Delay(ms uint64) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (h *Hal) DelayMicroseconds(us uint64) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

func (h *Hal) Millis() uint64 { return timex.SinceMs(h.start) }
func (h *Hal) Micros() uint64 { return timex.SinceUs(h.start) }

func (h *Hal) PulseIn(pin uint32, state hal.Level, timeoutUS uint64) uint64 {
	if !hal.ValidPin(pin) {
		return 0
	}
	start := h.Micros()
	for h.DigitalRead(pin) == state {
		if h.Micros()-start > timeoutUS {
			return 0
		}
		// The simulated pin only changes from another goroutine; yield
		// instead of spinning flat out.
		time.Sleep(50 * time.Microsecond)
	}
	return h.Micros() - start
}

func (h *Hal) SpiBegin() error {
	h.mu.Lock()
	h.spiOpen = true
	h.mu.Unlock()
	return nil
}

func (h *Hal) SpiBeginTransaction() {}
func (h *Hal) SpiEndTransaction()  {}

func (h *Hal) SpiTransfer(out, in []byte) error {
	h.mu.Lock()
	open := h.spiOpen
	xfer := h.Transfer
	h.mu.Unlock()
	if !open {
		return hal.ErrNoSPI
	}
	if xfer != nil {
		return xfer(out, in)
	}
	copy(in, out)
	return nil
}

func (h *Hal) SpiEnd() error {
	h.mu.Lock()
	h.spiOpen = false
	h.mu.Unlock()
	return nil
}
