// Package hal is the hardware-access interface consumed by the scanner and
// the feature probes. Runtime adapters under hal/platform implement it; the
// document schema and assembler depend on nothing else.
package hal

import (
	"image/color"

	"cep-go/hal/boards"

	"tinygo.org/x/drivers"
)

// BusConfig is one bus to scan.
type BusConfig = boards.Bus

// I2CBus is an exclusively held bus handle. Close releases it.
type I2CBus interface {
	drivers.I2C
	Close() error
}

// FSStats is a filesystem's geometry.
type FSStats struct {
	BlockSize   uint64
	TotalBlocks uint64
	FreeBlocks  uint64
	Label       string
}

// WirelessStatus is a snapshot of the wireless interface. IP, SSID and RSSI
// are only meaningful while Connected.
type WirelessStatus struct {
	MAC       []byte
	Connected bool
	IP        string
	SSID      string
	RSSI      int
	HasRSSI   bool
}

// Platform is the capability-query interface. Methods report
// errcode.HardwareAbsent when the runtime has no such facility.
type Platform interface {
	// Board returns the descriptor the platform runs on.
	Board() boards.Board
	// NamedPins enumerates named pins; nil when the runtime cannot name pins.
	NamedPins() map[string]int
	// OpenI2C acquires a bus. It fails with errcode.BusUnavailable.
	OpenI2C(cfg BusConfig) (I2CBus, error)
	UniqueID() ([]byte, error)
	ClockHz() (uint32, error)
	FilesystemStats(mount string) (FSStats, error)
	WirelessStatus() (WirelessStatus, error)
}

// Optional facilities, discovered by type assertion.

// MemoryInfo reports RAM and flash sizes.
type MemoryInfo interface {
	MemoryKB() (ramKB, flashKB uint32, err error)
}

// AnalogReader samples an analog pin.
type AnalogReader interface {
	ReadAnalog(pin int) (uint16, error)
}

// LEDWriter writes a strip of addressable LEDs on a pin.
type LEDWriter interface {
	WriteLED(pin int, pixels []color.RGBA) error
}
