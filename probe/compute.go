package probe

import (
	"cep-go/hal"
	"cep-go/types"
)

// Compute reports clock and memory. It always yields a capability; fields
// the platform cannot supply are left out.
func Compute(p hal.Platform) (types.Capability, bool) {
	var c types.Compute
	if hz, err := p.ClockHz(); err == nil {
		c.MHz = hz / 1_000_000
	}
	if m, ok := p.(hal.MemoryInfo); ok {
		if ram, flash, err := m.MemoryKB(); err == nil {
			c.RAMKB = ram
			c.FlashKB = flash
		}
	}
	return c, true
}
