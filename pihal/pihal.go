// pihal/pihal.go
//go:build !tinygo

// Package pihal adapts the HAL contract onto a Raspberry Pi style
// single-board computer through periph.io. Pin I/O and SPI forward
// straight into the platform driver; edge interrupts are emulated with a
// WaitForEdge watcher per pin feeding the dispatch worker.
package pihal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"radiohal-go/hal"
	"radiohal-go/internal/dispatch"
	"radiohal-go/x/mathx"
	"radiohal-go/x/timex"
)

const (
	defaultSPIPath   = "/dev/spidev0.0"
	defaultSPIHz     = 2_000_000
	defaultEnablePin = 18 // Waveshare LoRaWAN hat radio-enable line

	minSPIHz = 5_000
	maxSPIHz = 125_000_000

	alertQueueDepth = 64
)

// Options configures the backend. The zero value targets a Waveshare-style
// hat on the first SPI bus.
type Options struct {
	// SPIPath is the spidev port name. Default "/dev/spidev0.0".
	SPIPath string
	// SPIHz is the SPI clock in hertz, clamped to the Pi's usable range.
	// Default 2 MHz.
	SPIHz int64
	// EnablePin is the BCM number of the radio-enable line, driven high on
	// Init and low on Term. 0 selects the default (18); negative disables.
	EnablePin int
}

// Test seams; production code uses the periph defaults.
type pinLookup func(pin uint32) gpio.PinIO
type portOpener func(path string) (spi.PortCloser, error)

type Hal struct {
	opts Options

	lookup   pinLookup
	open     portOpener
	hostInit func() error

	mu       sync.Mutex
	inited   bool
	port     spi.PortCloser
	conn     spi.Conn
	watchers map[uint32]*watcher
	disp     *dispatch.Worker
	cancel   context.CancelFunc

	start time.Time
}

var _ hal.Hal = (*Hal)(nil)

func New(opts Options) *Hal {
	if opts.SPIPath == "" {
		opts.SPIPath = defaultSPIPath
	}
	if opts.SPIHz == 0 {
		opts.SPIHz = defaultSPIHz
	}
	opts.SPIHz = mathx.Clamp(opts.SPIHz, minSPIHz, maxSPIHz)
	if opts.EnablePin == 0 {
		opts.EnablePin = defaultEnablePin
	}
	return &Hal{
		opts:     opts,
		lookup:   lookupByNumber,
		open:     spireg.Open,
		hostInit: initHost,
		watchers: map[uint32]*watcher{},
		disp:     dispatch.New(alertQueueDepth),
		start:    time.Now(),
	}
}

func lookupByNumber(pin uint32) gpio.PinIO {
	return gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
}

func initHost() error {
	_, err := host.Init()
	return err
}

// Init loads the periph host drivers, opens the SPI session, raises the
// radio-enable line and starts interrupt dispatch. Idempotent.
func (h *Hal) Init() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inited {
		return nil
	}
	if err := h.hostInit(); err != nil {
		return fmt.Errorf("init periph host: %w", err)
	}
	if err := h.spiBeginLocked(); err != nil {
		return err
	}
	if h.opts.EnablePin >= 0 {
		if p := h.lookup(uint32(h.opts.EnablePin)); p != nil {
			if err := p.Out(gpio.High); err != nil {
				return fmt.Errorf("raise enable pin %d: %w", h.opts.EnablePin, err)
			}
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.disp.Start(ctx)
	h.inited = true
	return nil
}

// Term stops all watchers, ends the SPI session and pulls the enable line
// low again. Idempotent; the backend may be Init-ed again afterwards.
func (h *Hal) Term() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.inited {
		return nil
	}
	for pin, w := range h.watchers {
		w.halt()
		delete(h.watchers, pin)
	}
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	// Fresh worker so a later Init starts clean.
	h.disp = dispatch.New(alertQueueDepth)
	if err := h.spiEndLocked(); err != nil {
		return err
	}
	if h.opts.EnablePin >= 0 {
		if p := h.lookup(uint32(h.opts.EnablePin)); p != nil {
			_ = p.Out(gpio.Low)
		}
	}
	h.inited = false
	return nil
}

// pin resolves a user GPIO number, nil for NC/out-of-range pins.
func (h *Hal) pin(pin uint32) gpio.PinIO {
	if !hal.ValidPin(pin) {
		return nil
	}
	return h.lookup(pin)
}

func (h *Hal) PinMode(pin uint32, mode hal.PinMode) {
	p := h.pin(pin)
	if p == nil {
		return
	}
	switch mode {
	case hal.Input:
		_ = p.In(gpio.PullNoChange, gpio.NoEdge)
	case hal.Output:
		_ = p.Out(gpio.Low)
	}
}

func (h *Hal) DigitalWrite(pin uint32, level hal.Level) {
	p := h.pin(pin)
	if p == nil {
		return
	}
	_ = p.Out(gpioLevel(level))
}

func (h *Hal) DigitalRead(pin uint32) hal.Level {
	p := h.pin(pin)
	if p == nil {
		return hal.Low
	}
	return hal.LevelOf(p.Read() == gpio.High)
}

// AttachInterrupt registers cb and starts a watcher goroutine on the pin.
// periph has no callback API, so the watcher blocks in WaitForEdge and
// feeds observations to the dispatch worker, which emulates the interrupt.
func (h *Hal) AttachInterrupt(pin uint32, cb hal.ISR, edge hal.Edge) {
	p := h.pin(pin)
	if p == nil || cb == nil || edge == hal.NoEdge {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.inited {
		return
	}
	if prev, ok := h.watchers[pin]; ok {
		prev.halt()
		delete(h.watchers, pin)
	}
	h.disp.Attach(pin, cb, edge)
	w := newWatcher(p, pin, h.disp)
	if err := w.start(edge); err != nil {
		h.disp.Detach(pin)
		return
	}
	h.watchers[pin] = w
}

func (h *Hal) DetachInterrupt(pin uint32) {
	if !hal.ValidPin(pin) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.watchers[pin]; ok {
		w.halt()
		delete(h.watchers, pin)
	}
	h.disp.Detach(pin)
}

func (h *Hal) Delay(ms uint64) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (h *Hal) DelayMicroseconds(us uint64) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

func (h *Hal) Millis() uint64 { return timex.SinceMs(h.start) }
func (h *Hal) Micros() uint64 { return timex.SinceUs(h.start) }

// PulseIn busy-polls the pin until it leaves state and returns the elapsed
// microseconds, 0 on NC pin or timeout.
func (h *Hal) PulseIn(pin uint32, state hal.Level, timeoutUS uint64) uint64 {
	p := h.pin(pin)
	if p == nil {
		return 0
	}
	_ = p.In(gpio.PullNoChange, gpio.NoEdge)
	want := gpioLevel(state)
	start := h.Micros()
	for p.Read() == want {
		if h.Micros()-start > timeoutUS {
			return 0
		}
	}
	return h.Micros() - start
}

func gpioLevel(l hal.Level) gpio.Level {
	if l == hal.High {
		return gpio.High
	}
	return gpio.Low
}

func gpioEdge(e hal.Edge) gpio.Edge {
	switch e {
	case hal.Rising:
		return gpio.RisingEdge
	case hal.Falling:
		return gpio.FallingEdge
	case hal.Both:
		return gpio.BothEdges
	default:
		return gpio.NoEdge
	}
}

// spiBeginLocked opens the spidev port and connects at the configured
// clock, mode 0, 8 bits. No-op when a session is already open.
func (h *Hal) spiBeginLocked() error {
	if h.conn != nil {
		return nil
	}
	port, err := h.open(h.opts.SPIPath)
	if err != nil {
		return fmt.Errorf("open spi %s: %w", h.opts.SPIPath, err)
	}
	conn, err := port.Connect(physic.Frequency(h.opts.SPIHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return fmt.Errorf("connect spi %s: %w", h.opts.SPIPath, err)
	}
	h.port = port
	h.conn = conn
	return nil
}

func (h *Hal) spiEndLocked() error {
	if h.port == nil {
		return nil
	}
	err := h.port.Close()
	h.port = nil
	h.conn = nil
	if err != nil {
		return fmt.Errorf("close spi: %w", err)
	}
	return nil
}

func (h *Hal) SpiBegin() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.spiBeginLocked()
}

// Transactions are serialized by the periph port itself.
func (h *Hal) SpiBeginTransaction() {}
func (h *Hal) SpiEndTransaction()  {}

func (h *Hal) SpiTransfer(out, in []byte) error {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	if conn == nil {
		return hal.ErrNoSPI
	}
	return conn.Tx(out, in)
}

func (h *Hal) SpiEnd() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.spiEndLocked()
}
