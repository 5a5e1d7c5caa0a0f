// Package sim is a scripted platform for tests and desktop runs. Buses hold
// register-file devices that answer reads the way the real chips answer the
// identity probes.
package sim

import (
	"errors"
	"image/color"
	"sync"

	"cep-go/errcode"
	"cep-go/hal"
	"cep-go/hal/boards"
)

// ErrNACK is returned for transactions to an address with no device.
var ErrNACK = errors.New("sim: no ack")

// Device is a register file. Reads start at the register named by the last
// single-byte write and auto-increment.
type Device struct {
	Regs  map[byte]byte
	Panic bool // panic on any transaction
	Fail  bool // fail every transaction
}

// Bus is one simulated bus.
type Bus struct {
	Devices map[uint8]*Device
	OpenErr error // returned by OpenI2C when set

	mu     sync.Mutex
	opens  int
	closes int
	held   bool
}

// Counts reports how many times the bus was opened and closed.
func (b *Bus) Counts() (opens, closes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens, b.closes
}

// Platform implements hal.Platform, hal.MemoryInfo, hal.AnalogReader and hal.LEDWriter.
type Platform struct {
	BoardDesc boards.Board
	Buses     map[int]*Bus

	ID      []byte
	Clock   uint32
	RAMKB   uint32
	FlashKB uint32
	FS      map[string]hal.FSStats
	Wifi    *hal.WirelessStatus

	// AnalogPins answer reads; LEDPins accept writes. Other pins error.
	AnalogPins map[int]bool
	LEDPins    map[int]bool

	mu      sync.Mutex
	LEDLog  []int // pins written, in order
	ReadLog []int // analog pins read, in order
}

var (
	_ hal.Platform     = (*Platform)(nil)
	_ hal.MemoryInfo   = (*Platform)(nil)
	_ hal.AnalogReader = (*Platform)(nil)
	_ hal.LEDWriter    = (*Platform)(nil)
)

// New returns an empty platform for board b.
func New(b boards.Board) *Platform {
	return &Platform{BoardDesc: b.WithDefaults(), Buses: map[int]*Bus{}}
}

// Attach places dev at addr on bus id, creating the bus if needed.
func (p *Platform) Attach(id int, addr uint8, dev *Device) *Platform {
	b := p.Buses[id]
	if b == nil {
		b = &Bus{Devices: map[uint8]*Device{}}
		p.Buses[id] = b
	}
	b.Devices[addr] = dev
	return p
}

func (p *Platform) Board() boards.Board { return p.BoardDesc }

func (p *Platform) NamedPins() map[string]int {
	if !p.BoardDesc.Declarative {
		return nil
	}
	return p.BoardDesc.Pins
}

func (p *Platform) OpenI2C(cfg hal.BusConfig) (hal.I2CBus, error) {
	b, ok := p.Buses[cfg.ID]
	if !ok {
		return nil, errcode.New(errcode.BusUnavailable, "sim open", "no bus", nil)
	}
	if b.OpenErr != nil {
		return nil, errcode.New(errcode.BusUnavailable, "sim open", "", b.OpenErr)
	}
	b.mu.Lock()
	if b.held {
		b.mu.Unlock()
		return nil, errcode.New(errcode.Busy, "sim open", "bus held", nil)
	}
	b.held = true
	b.opens++
	b.mu.Unlock()
	return &handle{bus: b}, nil
}

func (p *Platform) UniqueID() ([]byte, error) {
	if len(p.ID) == 0 {
		return nil, errcode.HardwareAbsent
	}
	return p.ID, nil
}

func (p *Platform) ClockHz() (uint32, error) {
	if p.Clock == 0 {
		return 0, errcode.HardwareAbsent
	}
	return p.Clock, nil
}

func (p *Platform) MemoryKB() (uint32, uint32, error) {
	if p.RAMKB == 0 && p.FlashKB == 0 {
		return 0, 0, errcode.HardwareAbsent
	}
	return p.RAMKB, p.FlashKB, nil
}

func (p *Platform) FilesystemStats(mount string) (hal.FSStats, error) {
	st, ok := p.FS[mount]
	if !ok {
		return hal.FSStats{}, errcode.HardwareAbsent
	}
	return st, nil
}

func (p *Platform) WirelessStatus() (hal.WirelessStatus, error) {
	if p.Wifi == nil {
		return hal.WirelessStatus{}, errcode.HardwareAbsent
	}
	return *p.Wifi, nil
}

func (p *Platform) ReadAnalog(pin int) (uint16, error) {
	p.mu.Lock()
	p.ReadLog = append(p.ReadLog, pin)
	p.mu.Unlock()
	if !p.AnalogPins[pin] {
		return 0, errcode.UnknownPin
	}
	return 2048, nil
}

func (p *Platform) WriteLED(pin int, pixels []color.RGBA) error {
	p.mu.Lock()
	p.LEDLog = append(p.LEDLog, pin)
	p.mu.Unlock()
	if !p.LEDPins[pin] {
		return errcode.UnknownPin
	}
	return nil
}

// handle is a held bus.
type handle struct {
	bus    *Bus
	closed bool
	ptr    map[uint8]byte
}

func (h *handle) Tx(addr uint16, w, r []byte) error {
	if h.closed {
		return errcode.BusUnavailable
	}
	dev, ok := h.bus.Devices[uint8(addr)]
	if !ok {
		return ErrNACK
	}
	if dev.Panic {
		panic("sim: device fault")
	}
	if dev.Fail {
		return errcode.Error
	}
	if h.ptr == nil {
		h.ptr = map[uint8]byte{}
	}
	reg := h.ptr[uint8(addr)]
	if len(w) > 0 {
		reg = w[0]
		for i, v := range w[1:] {
			if dev.Regs == nil {
				dev.Regs = map[byte]byte{}
			}
			dev.Regs[reg+byte(i)] = v
		}
	}
	for i := range r {
		r[i] = dev.Regs[reg+byte(i)]
	}
	h.ptr[uint8(addr)] = reg
	return nil
}

func (h *handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.bus.mu.Lock()
	h.bus.held = false
	h.bus.closes++
	h.bus.mu.Unlock()
	return nil
}
