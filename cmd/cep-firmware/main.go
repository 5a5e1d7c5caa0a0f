//go:build rp2040

// Command cep-firmware runs the enumeration service on an RP2040 board and
// writes each capability document to the USB console and UART0.
package main

import (
	"context"
	"io"
	"log/slog"
	"machine"
	"time"

	"cep-go/bus"
	"cep-go/chipset/builtin"
	"cep-go/config"
	"cep-go/hal/boards"
	"cep-go/hal/platform/mcu"
	"cep-go/services/cep"
	svcconfig "cep-go/services/config"
	"cep-go/services/heartbeat"
	"cep-go/transport"
)

// Set with -ldflags "-X main.board=feather-rp2040 -X main.version=1.2.0".
var (
	board   = "pico"
	version = "dev"
)

func main() {
	// Give the USB console time to enumerate.
	time.Sleep(2 * time.Second)
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelInfo}))

	b, ok := boards.Lookup(board)
	if !ok {
		log.Error("unknown board", "board", board)
		b = boards.Board{Name: board}
	}
	cfg, err := svcconfig.Embedded(board)
	if err != nil {
		log.Warn("using default config", "err", err)
		cfg = config.Default()
	}
	if cfg.Firmware == "" {
		cfg.Firmware = version
	}

	reg, fails := builtin.Load(log)
	log.Info("registry loaded", "plugins", reg.Len(), "skipped", len(fails))

	var out io.Writer = machine.Serial
	if uart, err := transport.OpenUART(0, 115200, machine.GP0, machine.GP1, log); err == nil {
		out = io.MultiWriter(machine.Serial, uart.W)
	} else {
		log.Warn("uart0 unavailable", "err", err)
	}
	serial := &transport.Serial{W: out, Log: log}

	bb := bus.NewBus(4)
	svc := &cep.Service{
		Platform: mcu.New(b),
		Registry: reg,
		Log:      log,
		NewDeliverer: func(string, *slog.Logger) (transport.Deliverer, error) {
			return serial, nil
		},
	}
	_ = (&heartbeat.Service{Log: log}).Start(ctx, bb.NewConnection("heartbeat"))
	_ = svc.Start(ctx, bb.NewConnection("cep"))
	svcconfig.NewConfigService(log).Start(ctx, bb.NewConnection("config"), cfg)

	select {}
}
