// Package scan walks addressable buses and reports which addresses answer.
package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cep-go/errcode"
	"cep-go/hal"
	"cep-go/types"

	"tinygo.org/x/drivers"
)

// Standard 7-bit range, excluding reserved addresses.
const (
	FirstAddr uint8 = 0x08
	LastAddr  uint8 = 0x77
)

// Finding is one address that answered. It is discarded once resolved.
type Finding struct {
	BusID   int
	Addr    uint8
	Chipset string // set by Confirm while the bus was held; "" if unclaimed
}

// BusStatus is the outcome of scanning one bus.
type BusStatus struct {
	ID    int
	Found int
	Err   error
}

// Result is the scanner's output.
type Result struct {
	// Capabilities holds one i2c capability per bus that opened.
	Capabilities []types.Capability
	Findings     []Finding
	Buses        []BusStatus
}

// ConfirmFunc names the chipset at addr. It runs while the bus is still held.
type ConfirmFunc func(bus drivers.I2C, busID int, addr uint8) string

// Scanner scans buses on a platform.
type Scanner struct {
	Platform hal.Platform
	Log      *slog.Logger
	Confirm  ConfirmFunc
}

// Scan probes each bus in order. A bus that fails to open contributes nothing.
func (s *Scanner) Scan(ctx context.Context, buses []hal.BusConfig) Result {
	log := s.logger()
	var res Result
	for _, cfg := range buses {
		if ctx.Err() != nil {
			break
		}
		capBus, found, err := s.scanBus(ctx, cfg)
		res.Buses = append(res.Buses, BusStatus{ID: cfg.ID, Found: len(found), Err: err})
		if errcode.Is(err, errcode.BusUnavailable) {
			log.Warn("bus skipped", "bus", cfg.ID, "sda", cfg.SDA, "scl", cfg.SCL, "code", errcode.Of(err), "err", err)
			continue
		}
		if err != nil {
			log.Warn("bus scan ended early", "bus", cfg.ID, "found", len(found), "err", err)
		}
		log.Debug("bus scanned", "bus", cfg.ID, "found", len(found))
		res.Capabilities = append(res.Capabilities, types.I2C{Buses: []types.I2CBus{capBus}})
		res.Findings = append(res.Findings, found...)
	}
	return res
}

// scanBus holds the bus for the whole walk and confirmation pass and
// releases it on every exit path.
func (s *Scanner) scanBus(ctx context.Context, cfg hal.BusConfig) (capBus types.I2CBus, found []Finding, err error) {
	capBus = types.I2CBus{ID: cfg.ID, SDA: cfg.SDA, SCL: cfg.SCL, FreqHz: cfg.FreqHz, DevicesFound: []types.Addr{}}

	bus, err := s.Platform.OpenI2C(cfg)
	if err != nil {
		if !errcode.Is(err, errcode.BusUnavailable) {
			err = errcode.New(errcode.BusUnavailable, "open", fmt.Sprintf("bus %d", cfg.ID), err)
		}
		return capBus, nil, err
	}
	defer func() {
		if cerr := bus.Close(); cerr != nil {
			s.logger().Warn("bus release", "bus", cfg.ID, "code", errcode.Of(cerr), "err", cerr)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = errcode.New(errcode.Error, "scan", fmt.Sprintf("bus %d: panic: %v", cfg.ID, r), nil)
		}
	}()

	walk(ctx, bus, func(a uint8) {
		capBus.DevicesFound = append(capBus.DevicesFound, types.Addr(a))
		found = append(found, Finding{BusID: cfg.ID, Addr: a})
	})
	if s.Confirm != nil {
		for i := range found {
			found[i].Chipset = s.Confirm(bus, cfg.ID, found[i].Addr)
		}
	}
	return capBus, found, ctx.Err()
}

func (s *Scanner) logger() *slog.Logger {
	if s.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Log
}

// walk visits, ascending, each address in [FirstAddr, LastAddr] that
// acknowledges a one-byte read. It stops early when ctx is done.
func walk(ctx context.Context, bus drivers.I2C, visit func(uint8)) {
	buf := []byte{0}
	for a := FirstAddr; a <= LastAddr; a++ {
		if ctx.Err() != nil {
			return
		}
		if bus.Tx(uint16(a), nil, buf) == nil {
			visit(a)
		}
	}
}
