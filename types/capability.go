package types

import (
	"encoding/json"
	"errors"
	"strconv"

	"cep-go/x/conv"
)

// Kind is the discriminator carried in every capability's "type" field.
type Kind string

const (
	KindCompute  Kind = "compute"
	KindI2C      Kind = "i2c"
	KindSensor   Kind = "sensor"
	KindDisplay  Kind = "display"
	KindADC      Kind = "adc"
	KindGPIO     Kind = "gpio"
	KindNeopixel Kind = "neopixel"
	KindStorage  Kind = "storage"
	KindNetwork  Kind = "network"
)

// Capability is one typed entry of a capability document.
type Capability interface {
	Kind() Kind
}

// Addr is a 7-bit bus address. It encodes as "0x" plus two lowercase hex digits.
type Addr uint8

func (a Addr) String() string {
	var buf [4]byte
	return string(conv.Addr7(buf[:], uint8(a)))
}

func (a Addr) MarshalJSON() ([]byte, error) {
	var buf [6]byte
	buf[0] = '"'
	conv.Addr7(buf[1:5], uint8(a))
	buf[5] = '"'
	return append([]byte(nil), buf[:]...), nil
}

func (a *Addr) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, ok := conv.ParseAddr7(s)
	if !ok {
		return errors.New("types: invalid address " + strconv.Quote(s))
	}
	*a = Addr(v)
	return nil
}

// ---- compute ----

// Compute reports clock and memory sizes. Zero means unknown and is omitted.
type Compute struct {
	MHz     uint32 `json:"mhz,omitempty"`
	RAMKB   uint32 `json:"ram_kb,omitempty"`
	FlashKB uint32 `json:"flash_kb,omitempty"`
}

func (Compute) Kind() Kind { return KindCompute }

// ---- i2c ----

// NoPin marks a bus pin the runtime cannot name, such as a Linux bus found
// only by its device node.
const NoPin = -1

// I2CBus is one scanned bus.
type I2CBus struct {
	ID           int    `json:"id"`
	SDA          int    `json:"sda" jsonschema:"minimum=-1" jsonschema_description:"Data pin, or -1 when the runtime cannot name it."`
	SCL          int    `json:"scl" jsonschema:"minimum=-1" jsonschema_description:"Clock pin, or -1 when the runtime cannot name it."`
	FreqHz       uint32 `json:"freq_hz"`
	DevicesFound []Addr `json:"devices_found"`
}

// I2C is the bus-level capability. The scanner emits one per bus.
type I2C struct {
	Buses []I2CBus `json:"buses"`
}

func (I2C) Kind() Kind { return KindI2C }

// ---- chipset-resolved peripherals ----

// Peripheral is a chipset resolved at a bus address. Class selects the
// emitted type (sensor, display or adc); the optional fields carry
// chipset-specific detail.
type Peripheral struct {
	Class    Kind     `json:"-"`
	Chipset  string   `json:"chipset"`
	Bus      string   `json:"bus"`
	BusID    int      `json:"bus_id"`
	Address  Addr     `json:"address"`
	Provides []string `json:"provides"`

	WidthPx    int   `json:"width_px,omitempty"`
	HeightPx   int   `json:"height_px,omitempty"`
	Color      *bool `json:"color,omitempty"`
	Resolution int   `json:"resolution,omitempty"`
	Channels   int   `json:"channels,omitempty"`
}

func (p Peripheral) Kind() Kind {
	if p.Class == "" {
		return KindSensor
	}
	return p.Class
}

// ---- on-chip features ----

// Analog lists analog-capable pins.
type Analog struct {
	Pins       []int `json:"pins"`
	Resolution int   `json:"resolution"`
}

func (Analog) Kind() Kind { return KindADC }

// GPIO lists digital pins the runtime can name or the caller supplied.
type GPIO struct {
	DigitalOut []int `json:"digital_out"`
	DigitalIn  []int `json:"digital_in"`
}

func (GPIO) Kind() Kind { return KindGPIO }

// Neopixel is an addressable-LED output.
type Neopixel struct {
	Pin     int `json:"pin"`
	MaxLEDs int `json:"max_leds"`
}

func (Neopixel) Kind() Kind { return KindNeopixel }

// Storage describes the root filesystem volume.
type Storage struct {
	StorageKind string `json:"kind"`
	Label       string `json:"label,omitempty"`
	TotalKB     uint64 `json:"total_kb,omitempty"`
	FreeKB      uint64 `json:"free_kb,omitempty"`
}

func (Storage) Kind() Kind { return KindStorage }

// Interface is one network interface. IP, SSID and RSSI are present only
// while associated.
type Interface struct {
	Kind   string `json:"kind"`
	MAC    string `json:"mac"`
	IP     string `json:"ip,omitempty"`
	SSID   string `json:"ssid,omitempty"`
	RSSIdB *int   `json:"rssi_db,omitempty"`
}

// Network lists network interfaces.
type Network struct {
	Interfaces []Interface `json:"interfaces"`
}

func (Network) Kind() Kind { return KindNetwork }

// Unknown preserves a capability whose type this build does not know.
// It re-encodes verbatim.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (u Unknown) Kind() Kind { return Kind(u.Type) }

func (u Unknown) MarshalJSON() ([]byte, error) { return u.Raw, nil }
