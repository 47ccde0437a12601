// drvshim/spishim_test.go

package drvshim

import (
	"errors"
	"testing"

	"radiohal-go/hal"
	"radiohal-go/simhal"
)

func newOpenHal(t *testing.T) *simhal.Hal {
	t.Helper()
	h := simhal.New()
	if err := h.SpiBegin(); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestTxLoopback(t *testing.T) {
	s := NewSPI(newOpenHal(t))
	w := []byte{0x55, 0xaa}
	r := make([]byte, 2)
	if err := s.Tx(w, r); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if r[0] != 0x55 || r[1] != 0xaa {
		t.Fatalf("loopback mismatch: %x", r)
	}
}

func TestTxHalfDuplexShapes(t *testing.T) {
	h := newOpenHal(t)
	var lastOut []byte
	h.Transfer = func(out, in []byte) error {
		lastOut = append([]byte(nil), out...)
		for i := range in {
			in[i] = 0x42
		}
		return nil
	}
	s := NewSPI(h)

	if err := s.Tx([]byte{1, 2}, nil); err != nil {
		t.Fatalf("write-only Tx: %v", err)
	}
	if len(lastOut) != 2 || lastOut[0] != 1 {
		t.Fatalf("write-only out = %x", lastOut)
	}

	r := make([]byte, 3)
	if err := s.Tx(nil, r); err != nil {
		t.Fatalf("read-only Tx: %v", err)
	}
	if r[0] != 0x42 || len(lastOut) != 3 {
		t.Fatalf("read-only exchange wrong: r=%x out=%x", r, lastOut)
	}

	if err := s.Tx(nil, nil); err != nil {
		t.Fatalf("empty Tx: %v", err)
	}
	if err := s.Tx([]byte{1}, make([]byte, 2)); !errors.Is(err, hal.ErrUnsupported) {
		t.Fatalf("mismatched Tx: %v, want ErrUnsupported", err)
	}
}

func TestTransferByte(t *testing.T) {
	s := NewSPI(newOpenHal(t))
	got, err := s.Transfer(0x9c)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got != 0x9c {
		t.Fatalf("Transfer = %#x, want 0x9c", got)
	}
}

func TestTxErrorsWithoutSession(t *testing.T) {
	s := NewSPI(simhal.New())
	if err := s.Tx([]byte{1}, make([]byte, 1)); !errors.Is(err, hal.ErrNoSPI) {
		t.Fatalf("err = %v, want ErrNoSPI", err)
	}
}
