// radiodrv/radiodrv_test.go

package radiodrv

import (
	"errors"
	"testing"

	"radiohal-go/hal"
	"radiohal-go/simhal"
)

const (
	csPin = 8
	cePin = 25
)

func TestNewIdlesLines(t *testing.T) {
	h := simhal.New()
	New(h, csPin, cePin)
	if h.LevelOf(csPin) != hal.High {
		t.Fatal("CS must idle high")
	}
	if h.LevelOf(cePin) != hal.Low {
		t.Fatal("CE must idle low")
	}
}

func TestWriteReadPairsUnderCS(t *testing.T) {
	h := simhal.New()
	if err := h.SpiBegin(); err != nil {
		t.Fatal(err)
	}
	d := New(h, csPin, cePin)

	var csDuringTransfer []hal.Level
	status := byte(0x0e)
	h.Transfer = func(out, in []byte) error {
		csDuringTransfer = append(csDuringTransfer, h.LevelOf(csPin))
		for i := range in {
			if i == 0 {
				in[i] = status
			} else {
				in[i] = out[i] ^ 0xff
			}
		}
		return nil
	}

	// Register-read shape: command byte echoed as status, then a payload
	// clocked out against zeros.
	cmd := []byte{0x07}
	val := make([]byte, 2)
	n, err := d.WriteRead(cmd, cmd, nil, val)
	if err != nil {
		t.Fatalf("WriteRead: %v", err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	if cmd[0] != status {
		t.Fatalf("status byte = %#x, want %#x", cmd[0], status)
	}
	for _, l := range csDuringTransfer {
		if l != hal.Low {
			t.Fatal("CS not held low during conversation")
		}
	}
	if h.LevelOf(csPin) != hal.High {
		t.Fatal("CS not released after conversation")
	}
}

func TestWriteReadOddArgs(t *testing.T) {
	h := simhal.New()
	d := New(h, csPin, cePin)
	if _, err := d.WriteRead([]byte{1}); !errors.Is(err, ErrOddArgs) {
		t.Fatalf("err = %v, want ErrOddArgs", err)
	}
}

func TestWriteReadReleasesCSOnError(t *testing.T) {
	h := simhal.New() // SPI never begun: transfer fails
	d := New(h, csPin, cePin)
	if _, err := d.WriteRead([]byte{1}, make([]byte, 1)); !errors.Is(err, hal.ErrNoSPI) {
		t.Fatalf("err = %v, want ErrNoSPI", err)
	}
	if h.LevelOf(csPin) != hal.High {
		t.Fatal("CS left asserted after error")
	}
}

func TestSetCE(t *testing.T) {
	h := simhal.New()
	d := New(h, csPin, cePin)

	if err := d.SetCE(1); err != nil || h.LevelOf(cePin) != hal.High {
		t.Fatalf("SetCE(1): err=%v level=%v", err, h.LevelOf(cePin))
	}
	if err := d.SetCE(0); err != nil || h.LevelOf(cePin) != hal.Low {
		t.Fatalf("SetCE(0): err=%v level=%v", err, h.LevelOf(cePin))
	}
	if err := d.SetCE(2); err != nil || h.LevelOf(cePin) != hal.Low {
		t.Fatalf("SetCE(2): err=%v level=%v (pulse must end low)", err, h.LevelOf(cePin))
	}
	if err := d.SetCE(3); !errors.Is(err, hal.ErrUnsupported) {
		t.Fatalf("SetCE(3): %v, want ErrUnsupported", err)
	}
}
