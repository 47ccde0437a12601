// hal/errors.go
package hal

import "errors"

var (
	// Backend/session lifecycle
	ErrClosed = errors.New("closed")
	ErrNoSPI  = errors.New("no_spi_session")

	// Addressing
	ErrUnknownPin = errors.New("unknown_pin")

	// Generic / pass-through
	ErrUnsupported = errors.New("unsupported")
)
