// pihal/irq.go
//go:build !tinygo

package pihal

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"

	"radiohal-go/hal"
	"radiohal-go/internal/dispatch"
)

// watchPollTimeout bounds WaitForEdge so a halted watcher notices the quit
// signal even if Halt does not wake the blocked call.
const watchPollTimeout = 100 * time.Millisecond

// watcher turns periph's blocking WaitForEdge into alert callbacks for one
// pin. One watcher goroutine per attached interrupt.
type watcher struct {
	pin  gpio.PinIO
	num  uint32
	disp *dispatch.Worker
	quit chan struct{}
	done chan struct{}
}

func newWatcher(p gpio.PinIO, num uint32, disp *dispatch.Worker) *watcher {
	return &watcher{
		pin:  p,
		num:  num,
		disp: disp,
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (w *watcher) start(edge hal.Edge) error {
	if err := w.pin.In(gpio.PullNoChange, gpioEdge(edge)); err != nil {
		return fmt.Errorf("watch pin %d: %w", w.num, err)
	}
	go w.run()
	return nil
}

func (w *watcher) run() {
	defer close(w.done)
	for {
		fired := w.pin.WaitForEdge(watchPollTimeout)
		select {
		case <-w.quit:
			return
		default:
		}
		if fired {
			// Capture the level now; the dispatcher matches it against
			// the registered mode.
			w.disp.Alert(w.num, hal.LevelOf(w.pin.Read() == gpio.High))
		}
	}
}

// halt stops the watcher and waits for its goroutine to exit, then drops
// edge detection on the pin.
func (w *watcher) halt() {
	close(w.quit)
	_ = w.pin.Halt()
	<-w.done
	_ = w.pin.In(gpio.PullNoChange, gpio.NoEdge)
}
