package probe

import (
	"image/color"

	"cep-go/hal"
	"cep-go/hal/boards"
	"cep-go/types"
)

// Analog lists analog pins. Declarative platforms report their A<n> pins;
// others try a read on each candidate and keep the pins that answer. A nil
// candidates list uses the board's.
func Analog(p hal.Platform, candidates []int) (types.Capability, bool) {
	b := p.Board()
	if named := p.NamedPins(); named != nil {
		pins := boards.Board{Pins: named}.PinsWithPrefix("A")
		if len(pins) == 0 {
			return nil, false
		}
		return types.Analog{Pins: pins, Resolution: resolution(b, 16)}, true
	}

	r, ok := p.(hal.AnalogReader)
	if !ok {
		return nil, false
	}
	if candidates == nil {
		candidates = b.Analog.Candidates
	}
	var pins []int
	for _, pin := range candidates {
		if _, err := r.ReadAnalog(pin); err == nil {
			pins = append(pins, pin)
		}
	}
	if len(pins) == 0 {
		return nil, false
	}
	return types.Analog{Pins: pins, Resolution: resolution(b, 12)}, true
}

func resolution(b boards.Board, def int) int {
	if b.Analog.Resolution > 0 {
		return b.Analog.Resolution
	}
	return def
}

// NeopixelPinName is the board pin name of an on-board addressable LED.
const NeopixelPinName = "NEOPIXEL"

// Neopixel finds an addressable-LED output. A declared NEOPIXEL pin wins;
// otherwise the first candidate that accepts a one-pixel write is taken.
// Misses are expected; a hit needs a successful hardware write.
func Neopixel(p hal.Platform, candidates []int) (types.Capability, bool) {
	b := p.Board()
	maxLEDs := b.Neopixel.MaxLEDs
	if maxLEDs == 0 {
		maxLEDs = 64
	}
	if named := p.NamedPins(); named != nil {
		if pin, ok := (boards.Board{Pins: named}).Pin(NeopixelPinName); ok {
			return types.Neopixel{Pin: pin, MaxLEDs: maxLEDs}, true
		}
	}

	w, ok := p.(hal.LEDWriter)
	if !ok {
		return nil, false
	}
	if candidates == nil {
		candidates = b.Neopixel.Candidates
	}
	off := []color.RGBA{{}}
	for _, pin := range candidates {
		if err := w.WriteLED(pin, off); err == nil {
			return types.Neopixel{Pin: pin, MaxLEDs: maxLEDs}, true
		}
	}
	return nil, false
}

// GPIO reports digital pins. Caller-supplied lists win; otherwise a
// declarative platform's D<n> pins are reported as both inputs and outputs.
// Pins are never driven.
func GPIO(p hal.Platform, out, in []int) (types.Capability, bool) {
	if len(out) > 0 || len(in) > 0 {
		return types.GPIO{DigitalOut: append([]int{}, out...), DigitalIn: append([]int{}, in...)}, true
	}
	named := p.NamedPins()
	if named == nil {
		return nil, false
	}
	pins := boards.Board{Pins: named}.PinsWithPrefix("D")
	if len(pins) == 0 {
		return nil, false
	}
	return types.GPIO{DigitalOut: pins, DigitalIn: append([]int{}, pins...)}, true
}
