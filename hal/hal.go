// hal/hal.go
package hal

// PinMode selects the direction of a GPIO pin.
type PinMode uint8

const (
	Input PinMode = iota
	Output
)

// Level is a GPIO logic level.
type Level uint8

const (
	Low Level = iota
	High
)

// Edge selection for emulated interrupts.
type Edge uint8

const (
	NoEdge Edge = iota
	Rising
	Falling
	Both
)

// Pull configures the input resistor of a pin.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// NC marks a not-connected pin. Operations addressed to NC are silently
// ignored, matching the convention of the radio driver libraries this HAL
// serves: drivers pass NC for optional lines they do not use.
const NC uint32 = 0xffffffff

// MaxUserPin is the highest user-addressable GPIO number.
const MaxUserPin = 31

// ISR is an emulated interrupt callback. It runs on the HAL's dispatch
// goroutine and must not block.
type ISR func()

// ValidPin reports whether pin addresses a real user GPIO.
func ValidPin(pin uint32) bool {
	return pin != NC && pin <= MaxUserPin
}

// Hal is the capability set a radio transceiver driver needs from the board:
// pin I/O, emulated edge interrupts, timing and an SPI session. Backends
// translate these into calls against the platform's GPIO/SPI driver.
type Hal interface {
	// Init brings up the backend: platform driver, SPI session and, when
	// configured, the radio-enable line. Term releases everything again.
	// Both are idempotent.
	Init() error
	Term() error

	// Pin I/O. NC and out-of-range pins are silently ignored; reads on
	// such pins return Low.
	PinMode(pin uint32, mode PinMode)
	DigitalWrite(pin uint32, level Level)
	DigitalRead(pin uint32) Level

	// AttachInterrupt registers cb for the given edge on pin. Attaching to
	// an already-watched pin replaces the previous registration. Detach on
	// a never-attached pin is a no-op.
	AttachInterrupt(pin uint32, cb ISR, edge Edge)
	DetachInterrupt(pin uint32)

	// Timing. Millis and Micros count from a backend-local monotonic start.
	Delay(ms uint64)
	DelayMicroseconds(us uint64)
	Millis() uint64
	Micros() uint64

	// PulseIn waits for the pin to leave state and returns the elapsed
	// time in microseconds, or 0 on an NC pin or timeout.
	PulseIn(pin uint32, state Level, timeoutUS uint64) uint64

	// SPI session. Begin/End are idempotent; Transfer before Begin returns
	// ErrNoSPI. BeginTransaction/EndTransaction bracket one conversation
	// for backends that need it and are otherwise no-ops.
	SpiBegin() error
	SpiBeginTransaction()
	SpiTransfer(out, in []byte) error
	SpiEndTransaction()
	SpiEnd() error
}

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	case Both:
		return "both"
	default:
		return "none"
	}
}

// ParseEdge maps a config/shell token onto an Edge.
func ParseEdge(s string) (Edge, bool) {
	switch s {
	case "rising":
		return Rising, true
	case "falling":
		return Falling, true
	case "both":
		return Both, true
	case "none":
		return NoEdge, true
	}
	return NoEdge, false
}

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// LevelOf converts a boolean pin reading to a Level.
func LevelOf(high bool) Level {
	if high {
		return High
	}
	return Low
}
