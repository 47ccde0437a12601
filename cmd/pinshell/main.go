// cmd/pinshell/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"radiohal-go/hal"
	"radiohal-go/internal/config"
	"radiohal-go/internal/shell"
	"radiohal-go/pihal"
	"radiohal-go/radiodrv"
	"radiohal-go/simhal"
)

func main() {
	cfgPath := flag.String("config", "", "path to pinshell YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Command results go to stdout; the event log additionally lands in a
	// rotated file for later inspection.
	events := log.New(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}), "", log.LstdFlags|log.Lmicroseconds)

	h := newBackend(cfg)
	if err := h.Init(); err != nil {
		log.Fatalf("hal init: %v", err)
	}
	defer func() {
		if err := h.Term(); err != nil {
			log.Printf("hal term: %v", err)
		}
	}()

	var drv *radiodrv.Driver
	if cfg.Pins.CE >= 0 || cfg.Pins.CS >= 0 {
		drv = radiodrv.New(h, config.Pin(cfg.Pins.CS), config.Pin(cfg.Pins.CE))
	}

	fmt.Printf("pinshell: backend=%s spi=%s@%dHz (help for commands)\n",
		cfg.Backend, cfg.SPI.Path, cfg.SPI.SpeedHz)

	if err := shell.New(h, drv, events).Run(os.Stdin, os.Stdout); err != nil {
		log.Fatalf("shell: %v", err)
	}
}

func newBackend(cfg *config.Config) hal.Hal {
	switch cfg.Backend {
	case "pi":
		return pihal.New(pihal.Options{
			SPIPath:   cfg.SPI.Path,
			SPIHz:     cfg.SPI.SpeedHz,
			EnablePin: cfg.Pins.Enable,
		})
	default:
		return simhal.New()
	}
}
