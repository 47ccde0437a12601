// radiodrv/radiodrv.go

// Package radiodrv exposes a HAL as the hardware glue an nRF24-style
// transceiver driver expects: SPI conversations under chip select, plus
// control of the CE line.
package radiodrv

import (
	"errors"

	"radiohal-go/hal"
)

// ErrOddArgs is returned when WriteRead is called with an unpaired
// argument list.
var ErrOddArgs = errors.New("odd_write_read_args")

// CE pulse width; nRF24 class parts need a >=10 µs strobe.
const cePulseUS = 10

type Driver struct {
	h  hal.Hal
	cs uint32
	ce uint32
}

// New configures both control lines and returns the driver glue. CS idles
// high, CE idles low. Either line may be hal.NC when the board wires it
// elsewhere.
func New(h hal.Hal, csPin, cePin uint32) *Driver {
	h.PinMode(csPin, hal.Output)
	h.DigitalWrite(csPin, hal.High)
	h.PinMode(cePin, hal.Output)
	h.DigitalWrite(cePin, hal.Low)
	return &Driver{h: h, cs: csPin, ce: cePin}
}

// WriteRead performs one SPI conversation under CS. Arguments are
// out/in pairs: each out slice is clocked onto the bus while the matching
// in slice fills from it. A nil out sends zeros; a nil in discards the
// received bytes. Returns the number of bytes stored into in slices.
func (d *Driver) WriteRead(oi ...[]byte) (int, error) {
	if len(oi)%2 != 0 {
		return 0, ErrOddArgs
	}
	d.h.SpiBeginTransaction()
	defer d.h.SpiEndTransaction()
	d.h.DigitalWrite(d.cs, hal.Low)
	defer d.h.DigitalWrite(d.cs, hal.High)

	n := 0
	for k := 0; k < len(oi); k += 2 {
		o, i := oi[k], oi[k+1]
		m := len(o)
		if len(i) > m {
			m = len(i)
		}
		if m == 0 {
			continue
		}
		out := make([]byte, m)
		copy(out, o)
		in := make([]byte, m)
		if err := d.h.SpiTransfer(out, in); err != nil {
			return n, err
		}
		n += copy(i, in)
	}
	return n, nil
}

// SetCE drives the CE line: 0 low, 1 high, 2 pulses CE high for 10 µs and
// leaves it low.
func (d *Driver) SetCE(v int) error {
	switch v {
	case 0:
		d.h.DigitalWrite(d.ce, hal.Low)
	case 1:
		d.h.DigitalWrite(d.ce, hal.High)
	case 2:
		d.h.DigitalWrite(d.ce, hal.High)
		d.h.DelayMicroseconds(cePulseUS)
		d.h.DigitalWrite(d.ce, hal.Low)
	default:
		return hal.ErrUnsupported
	}
	return nil
}
