//go:build tinygo

package transport

import (
	"log/slog"
	"machine"

	"cep-go/errcode"

	"github.com/jangala-dev/tinygo-uartx/uartx"
)

// OpenUART configures uart0 or uart1 and returns a Serial deliverer on it.
func OpenUART(id int, baud uint32, tx, rx machine.Pin, log *slog.Logger) (*Serial, error) {
	var hw *uartx.UART
	switch id {
	case 0:
		hw = uartx.UART0
	case 1:
		hw = uartx.UART1
	default:
		return nil, errcode.New(errcode.UnknownBus, "uart", "no such uart", nil)
	}
	// Defaults inside uartx apply if zero.
	if err := hw.Configure(uartx.UARTConfig{BaudRate: baud, TX: tx, RX: rx}); err != nil {
		return nil, errcode.New(errcode.BusUnavailable, "uart", "configure", err)
	}
	return &Serial{W: hw, Log: log}, nil
}
