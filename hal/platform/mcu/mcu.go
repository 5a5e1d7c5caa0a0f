//go:build rp2040

// Package mcu is the runtime adapter for RP2040 firmware built with TinyGo.
package mcu

import (
	"image/color"
	"machine"
	"sync"

	"cep-go/errcode"
	"cep-go/hal"
	"cep-go/hal/boards"

	"tinygo.org/x/drivers/ws2812"
)

// RP2040 memory sizes. Flash is the board's QSPI part.
const (
	ramKB          = 264
	defaultFlashKB = 2048
)

// Platform implements hal.Platform, hal.MemoryInfo, hal.AnalogReader and
// hal.LEDWriter on the machine package.
type Platform struct {
	board   boards.Board
	FlashKB uint32

	mu      sync.Mutex
	held    map[int]bool
	adcInit sync.Once
}

var (
	_ hal.Platform     = (*Platform)(nil)
	_ hal.MemoryInfo   = (*Platform)(nil)
	_ hal.AnalogReader = (*Platform)(nil)
	_ hal.LEDWriter    = (*Platform)(nil)
)

func New(b boards.Board) *Platform {
	return &Platform{board: b.WithDefaults(), FlashKB: defaultFlashKB, held: map[int]bool{}}
}

func (p *Platform) Board() boards.Board { return p.board }

func (p *Platform) NamedPins() map[string]int {
	if !p.board.Declarative {
		return nil
	}
	return p.board.Pins
}

func (p *Platform) OpenI2C(cfg hal.BusConfig) (hal.I2CBus, error) {
	var hw *machine.I2C
	switch cfg.ID {
	case 0:
		hw = machine.I2C0
	case 1:
		hw = machine.I2C1
	default:
		return nil, errcode.New(errcode.BusUnavailable, "i2c open", "no such bus", nil)
	}

	p.mu.Lock()
	if p.held[cfg.ID] {
		p.mu.Unlock()
		return nil, errcode.New(errcode.Busy, "i2c open", "bus held", nil)
	}
	p.held[cfg.ID] = true
	p.mu.Unlock()

	sda := machine.Pin(cfg.SDA)
	scl := machine.Pin(cfg.SCL)
	sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
	scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := hw.Configure(machine.I2CConfig{SDA: sda, SCL: scl, Frequency: cfg.FreqHz}); err != nil {
		p.release(cfg.ID)
		return nil, errcode.New(errcode.BusUnavailable, "i2c open", "configure", err)
	}
	return hal.Own(hw, 0, func() error { p.release(cfg.ID); return nil }), nil
}

func (p *Platform) release(id int) {
	p.mu.Lock()
	delete(p.held, id)
	p.mu.Unlock()
}

func (p *Platform) UniqueID() ([]byte, error) {
	id := machine.DeviceID()
	if len(id) == 0 {
		return nil, errcode.HardwareAbsent
	}
	return id, nil
}

func (p *Platform) ClockHz() (uint32, error) { return machine.CPUFrequency(), nil }

func (p *Platform) MemoryKB() (uint32, uint32, error) { return ramKB, p.FlashKB, nil }

// FilesystemStats reports absent: firmware images carry no filesystem.
func (p *Platform) FilesystemStats(string) (hal.FSStats, error) {
	return hal.FSStats{}, errcode.HardwareAbsent
}

func (p *Platform) WirelessStatus() (hal.WirelessStatus, error) {
	return hal.WirelessStatus{}, errcode.HardwareAbsent
}

// ReadAnalog samples pins 26-29, the RP2040's ADC inputs.
func (p *Platform) ReadAnalog(pin int) (uint16, error) {
	if pin < 26 || pin > 29 {
		return 0, errcode.UnknownPin
	}
	p.adcInit.Do(machine.InitADC)
	a := machine.ADC{Pin: machine.Pin(pin)}
	a.Configure(machine.ADCConfig{})
	return a.Get(), nil
}

// WriteLED drives a WS2812 strip on pin. The protocol has no
// acknowledgement, so any pin that configures as an output succeeds.
func (p *Platform) WriteLED(pin int, pixels []color.RGBA) error {
	if pin < 0 || pin > 29 {
		return errcode.UnknownPin
	}
	mp := machine.Pin(pin)
	mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return ws2812.New(mp).WriteColors(pixels)
}
