// drvshim/spishim.go
package drvshim

import (
	"tinygo.org/x/drivers"

	"radiohal-go/hal"
)

// SPI adapts a HAL SPI session to the tinygo drivers.SPI shape so driver
// code written against that interface can be hosted on this HAL.
type SPI struct {
	h hal.Hal
}

func NewSPI(h hal.Hal) SPI { return SPI{h: h} }

var _ drivers.SPI = SPI{}

// Tx delegates to SpiTransfer. One of w/r may be nil for write-only or
// read-only exchanges; mismatched non-nil lengths are rejected.
func (s SPI) Tx(w, r []byte) error {
	switch {
	case len(w) == 0 && len(r) == 0:
		return nil
	case len(r) == 0:
		return s.h.SpiTransfer(w, make([]byte, len(w)))
	case len(w) == 0:
		return s.h.SpiTransfer(make([]byte, len(r)), r)
	case len(w) != len(r):
		return hal.ErrUnsupported
	default:
		return s.h.SpiTransfer(w, r)
	}
}

// Transfer exchanges a single byte.
func (s SPI) Transfer(b byte) (byte, error) {
	var in [1]byte
	err := s.h.SpiTransfer([]byte{b}, in[:])
	return in[0], err
}
