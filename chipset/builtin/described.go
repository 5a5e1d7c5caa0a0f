package builtin

import (
	"cep-go/chipset"
	"cep-go/types"
)

// SSD1306 is a 128x64 monochrome OLED controller.
func SSD1306() (chipset.Plugin, error) {
	d := i2c("ssd1306", []string{"display"}, 0x3C, 0x3D)
	return chipset.Plugin{
		Descriptor: d,
		Describe: func(busID int, addr uint8) types.Capability {
			color := false
			return types.Peripheral{
				Class:    types.KindDisplay,
				Chipset:  d.Name,
				Bus:      d.Bus,
				BusID:    busID,
				Address:  types.Addr(addr),
				Provides: []string{"display"},
				WidthPx:  128,
				HeightPx: 64,
				Color:    &color,
			}
		},
	}, nil
}

// ADS1115 is a 4-channel 16-bit ADC.
func ADS1115() (chipset.Plugin, error) {
	d := i2c("ads1115", []string{"adc"}, 0x48, 0x49, 0x4A, 0x4B)
	return chipset.Plugin{
		Descriptor: d,
		Describe: func(busID int, addr uint8) types.Capability {
			return types.Peripheral{
				Class:      types.KindADC,
				Chipset:    d.Name,
				Bus:        d.Bus,
				BusID:      busID,
				Address:    types.Addr(addr),
				Provides:   []string{"adc"},
				Resolution: 16,
				Channels:   4,
			}
		},
	}, nil
}
