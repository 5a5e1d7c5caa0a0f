package boards

import "sort"

// Built-in descriptors. Pin numbers are GPIO numbers.
var builtin = map[string]Board{
	// ESP32 DevKit: no pin naming, so analog and LED pins are probed.
	"esp32-devkit": func() Board {
		b := Board{Name: "esp32-devkit"}
		b.I2C = []Bus{{ID: 0, SDA: 21, SCL: 22, FreqHz: 100_000}}
		b.Analog.Candidates = []int{32, 33, 34, 35, 36, 39}
		b.Analog.Resolution = 12
		b.Neopixel.Candidates = []int{5, 13, 27, 16}
		return b
	}(),

	"pico": func() Board {
		b := Board{Name: "pico"}
		b.I2C = []Bus{
			{ID: 0, SDA: 4, SCL: 5, FreqHz: 100_000},
			{ID: 1, SDA: 2, SCL: 3, FreqHz: 100_000},
		}
		b.Analog.Candidates = []int{26, 27, 28}
		b.Analog.Resolution = 12
		return b
	}(),

	"feather-rp2040": func() Board {
		b := Board{
			Name:        "feather-rp2040",
			Declarative: true,
			Pins: map[string]int{
				"SDA": 2, "SCL": 3, "NEOPIXEL": 16,
				"A0": 26, "A1": 27, "A2": 28, "A3": 29,
				"D4": 6, "D5": 7, "D6": 8, "D9": 9, "D10": 10, "D11": 11, "D12": 12, "D13": 13,
			},
		}
		b.I2C = []Bus{{ID: 1, SDA: 2, SCL: 3, FreqHz: 100_000}}
		b.Analog.Resolution = 16
		return b
	}(),

	"raspberrypi": func() Board {
		b := Board{
			Name:        "raspberrypi",
			Declarative: true,
			Pins: map[string]int{
				"SDA": 2, "SCL": 3,
				"D4": 4, "D5": 5, "D6": 6, "D12": 12, "D13": 13, "D16": 16,
				"D17": 17, "D22": 22, "D23": 23, "D24": 24, "D25": 25, "D26": 26, "D27": 27,
			},
		}
		b.I2C = []Bus{{ID: 1, SDA: 2, SCL: 3, FreqHz: 100_000}}
		b.Storage.Kind = "disk"
		b.Storage.Mount = "/"
		return b
	}(),
}

// Lookup returns a built-in descriptor with defaults applied.
func Lookup(name string) (Board, bool) {
	b, ok := builtin[name]
	if !ok {
		return Board{}, false
	}
	return clone(b).WithDefaults(), true
}

// Names lists the built-in descriptors, sorted.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for n := range builtin {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func clone(b Board) Board {
	if b.Pins != nil {
		pins := make(map[string]int, len(b.Pins))
		for k, v := range b.Pins {
			pins[k] = v
		}
		b.Pins = pins
	}
	b.I2C = append([]Bus(nil), b.I2C...)
	b.Analog.Candidates = append([]int(nil), b.Analog.Candidates...)
	b.Neopixel.Candidates = append([]int(nil), b.Neopixel.Candidates...)
	return b
}
