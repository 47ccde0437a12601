// internal/shell/shell.go

// Package shell is the pinshell command evaluator: a small line language
// for exercising a HAL during board bring-up.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"radiohal-go/hal"
	"radiohal-go/radiodrv"
)

// ErrQuit is returned by Eval for the quit command.
var ErrQuit = errors.New("quit")

type Shell struct {
	h   hal.Hal
	drv *radiodrv.Driver // optional; enables the ce command
	log *log.Logger
}

func New(h hal.Hal, drv *radiodrv.Driver, logger *log.Logger) *Shell {
	return &Shell{h: h, drv: drv, log: logger}
}

// Run reads commands from r until EOF or quit, writing results to w.
func (s *Shell) Run(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	fmt.Fprint(w, "> ")
	for sc.Scan() {
		out, err := s.Eval(sc.Text())
		switch {
		case errors.Is(err, ErrQuit):
			return nil
		case err != nil:
			fmt.Fprintf(w, "error: %v\n", err)
		case out != "":
			fmt.Fprintln(w, out)
		}
		fmt.Fprint(w, "> ")
	}
	return sc.Err()
}

// Eval executes one command line and returns its printable result.
func (s *Shell) Eval(line string) (string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	if len(args) == 0 {
		return "", nil
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "mode":
		return s.evalMode(args)
	case "write":
		return s.evalWrite(args)
	case "read":
		return s.evalRead(args)
	case "watch":
		return s.evalWatch(args)
	case "unwatch":
		return s.evalUnwatch(args)
	case "xfer":
		return s.evalXfer(args)
	case "pulse":
		return s.evalPulse(args)
	case "delay":
		return s.evalDelay(args)
	case "millis":
		return strconv.FormatUint(s.h.Millis(), 10), nil
	case "micros":
		return strconv.FormatUint(s.h.Micros(), 10), nil
	case "ce":
		return s.evalCE(args)
	case "help":
		return helpText, nil
	case "quit", "exit":
		return "", ErrQuit
	default:
		return "", fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

const helpText = `commands:
  mode <pin> in|out        set pin direction
  write <pin> 0|1          drive a pin
  read <pin>               read a pin level
  watch <pin> rising|falling|both   log emulated interrupts
  unwatch <pin>            stop watching a pin
  xfer <byte>...           SPI transfer, bytes in hex (0x..) or decimal
  pulse <pin> 0|1 <us>     measure a pulse with timeout in microseconds
  delay <ms>               sleep
  millis | micros          HAL clock
  ce 0|1|2                 drive the CE line (2 = 10us pulse)
  quit`

func (s *Shell) evalMode(args []string) (string, error) {
	if len(args) != 2 {
		return "", errors.New("usage: mode <pin> in|out")
	}
	pin, err := parsePin(args[0])
	if err != nil {
		return "", err
	}
	switch args[1] {
	case "in":
		s.h.PinMode(pin, hal.Input)
	case "out":
		s.h.PinMode(pin, hal.Output)
	default:
		return "", fmt.Errorf("bad mode %q", args[1])
	}
	return fmt.Sprintf("pin %d %s", pin, args[1]), nil
}

func (s *Shell) evalWrite(args []string) (string, error) {
	if len(args) != 2 {
		return "", errors.New("usage: write <pin> 0|1")
	}
	pin, err := parsePin(args[0])
	if err != nil {
		return "", err
	}
	level, err := parseLevel(args[1])
	if err != nil {
		return "", err
	}
	s.h.DigitalWrite(pin, level)
	s.log.Printf("write pin=%d level=%s", pin, level)
	return fmt.Sprintf("pin %d <- %s", pin, level), nil
}

func (s *Shell) evalRead(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: read <pin>")
	}
	pin, err := parsePin(args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("pin %d = %s", pin, s.h.DigitalRead(pin)), nil
}

func (s *Shell) evalWatch(args []string) (string, error) {
	if len(args) != 2 {
		return "", errors.New("usage: watch <pin> rising|falling|both")
	}
	pin, err := parsePin(args[0])
	if err != nil {
		return "", err
	}
	edge, ok := hal.ParseEdge(args[1])
	if !ok || edge == hal.NoEdge {
		return "", fmt.Errorf("bad edge %q", args[1])
	}
	s.h.AttachInterrupt(pin, func() {
		s.log.Printf("irq pin=%d edge=%s", pin, edge)
	}, edge)
	return fmt.Sprintf("watching pin %d (%s)", pin, edge), nil
}

func (s *Shell) evalUnwatch(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: unwatch <pin>")
	}
	pin, err := parsePin(args[0])
	if err != nil {
		return "", err
	}
	s.h.DetachInterrupt(pin)
	return fmt.Sprintf("unwatched pin %d", pin), nil
}

func (s *Shell) evalXfer(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("usage: xfer <byte>...")
	}
	out := make([]byte, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return "", fmt.Errorf("bad byte %q: %w", a, err)
		}
		out[i] = byte(v)
	}
	in := make([]byte, len(out))
	s.h.SpiBeginTransaction()
	err := s.h.SpiTransfer(out, in)
	s.h.SpiEndTransaction()
	if err != nil {
		return "", err
	}
	s.log.Printf("xfer out=%x in=%x", out, in)
	return fmt.Sprintf("%x", in), nil
}

func (s *Shell) evalPulse(args []string) (string, error) {
	if len(args) != 3 {
		return "", errors.New("usage: pulse <pin> 0|1 <timeout_us>")
	}
	pin, err := parsePin(args[0])
	if err != nil {
		return "", err
	}
	level, err := parseLevel(args[1])
	if err != nil {
		return "", err
	}
	timeout, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return "", fmt.Errorf("bad timeout %q: %w", args[2], err)
	}
	us := s.h.PulseIn(pin, level, timeout)
	return fmt.Sprintf("%d us", us), nil
}

func (s *Shell) evalDelay(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("usage: delay <ms>")
	}
	ms, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return "", fmt.Errorf("bad delay %q: %w", args[0], err)
	}
	s.h.Delay(ms)
	return "", nil
}

func (s *Shell) evalCE(args []string) (string, error) {
	if s.drv == nil {
		return "", errors.New("no ce line configured")
	}
	if len(args) != 1 {
		return "", errors.New("usage: ce 0|1|2")
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("bad ce value %q", args[0])
	}
	if err := s.drv.SetCE(v); err != nil {
		return "", err
	}
	return fmt.Sprintf("ce %d", v), nil
}

func parsePin(tok string) (uint32, error) {
	if strings.EqualFold(tok, "nc") {
		return hal.NC, nil
	}
	v, err := strconv.ParseUint(tok, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad pin %q: %w", tok, err)
	}
	return uint32(v), nil
}

func parseLevel(tok string) (hal.Level, error) {
	switch tok {
	case "0", "low":
		return hal.Low, nil
	case "1", "high":
		return hal.High, nil
	}
	return hal.Low, fmt.Errorf("bad level %q", tok)
}
