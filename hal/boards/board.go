// Package boards holds per-board descriptors: named pins, default buses and
// the candidate lists used by best-effort hardware probes.
package boards

import "sort"

// Bus is one addressable bus and its control pins.
type Bus struct {
	ID     int    `yaml:"id" json:"id"`
	SDA    int    `yaml:"sda" json:"sda"`
	SCL    int    `yaml:"scl" json:"scl"`
	FreqHz uint32 `yaml:"freq_hz" json:"freq_hz"`
}

// DefaultFreqHz is used for buses declared without a frequency.
const DefaultFreqHz = 100_000

// Board describes what a board exposes. It must not include operating state.
type Board struct {
	Name string `yaml:"name"`

	// Declarative boards name their pins (A0, D4, NEOPIXEL, SDA...). Probes
	// read names instead of actively probing candidates.
	Declarative bool           `yaml:"declarative"`
	Pins        map[string]int `yaml:"pins"`

	I2C []Bus `yaml:"i2c"`

	Analog struct {
		Candidates []int `yaml:"candidates"`
		Resolution int   `yaml:"resolution"`
	} `yaml:"analog"`

	Neopixel struct {
		Candidates []int `yaml:"candidates"`
		MaxLEDs    int   `yaml:"max_leds"`
	} `yaml:"neopixel"`

	Storage struct {
		Kind  string `yaml:"kind"`
		Mount string `yaml:"mount"`
		Label string `yaml:"label"`
	} `yaml:"storage"`
}

// WithDefaults fills zero fields with protocol defaults.
func (b Board) WithDefaults() Board {
	for i := range b.I2C {
		if b.I2C[i].FreqHz == 0 {
			b.I2C[i].FreqHz = DefaultFreqHz
		}
	}
	if b.Analog.Resolution == 0 {
		b.Analog.Resolution = 12
	}
	if b.Neopixel.MaxLEDs == 0 {
		b.Neopixel.MaxLEDs = 64
	}
	if b.Storage.Kind == "" {
		b.Storage.Kind = "flash"
	}
	if b.Storage.Mount == "" {
		b.Storage.Mount = "/"
	}
	return b
}

// Pin looks up a named pin.
func (b Board) Pin(name string) (int, bool) {
	n, ok := b.Pins[name]
	return n, ok
}

// PinsWithPrefix returns the pins named prefix+<digits> sorted by that number,
// e.g. A0, A1, A10 for "A".
func (b Board) PinsWithPrefix(prefix string) []int {
	type named struct{ idx, pin int }
	var list []named
	for name, pin := range b.Pins {
		if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		idx, ok := atoi(name[len(prefix):])
		if !ok {
			continue
		}
		list = append(list, named{idx, pin})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].idx < list[j].idx })
	out := make([]int, 0, len(list))
	for _, n := range list {
		out = append(out, n.pin)
	}
	return out
}

func atoi(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, len(s) > 0
}
