// Package builtin is the chipset registration list compiled into every image.
package builtin

import (
	"log/slog"

	"cep-go/chipset"
)

// Entries returns the registration list in resolution order. Entries with a
// nil Load name parts this build carries no plugin for; they are reported as
// load failures and skipped.
func Entries() []chipset.Entry {
	return []chipset.Entry{
		{Name: "bme280", Load: BME280},
		{Name: "ssd1306", Load: SSD1306},
		{Name: "ws2812"},  // found by the neopixel probe, has no bus address
		{Name: "pcm5102"}, // I2S DAC, has no bus address
		{Name: "ina219", Load: INA219},
		{Name: "ads1115", Load: ADS1115},
		{Name: "mpu6050", Load: MPU6050}, // shares 0x68 with ds3231; identified first
		{Name: "ds3231", Load: DS3231},
		{Name: "aht20", Load: AHT20},
	}
}

// Load builds the registry from Entries.
func Load(log *slog.Logger) (*chipset.Registry, []chipset.LoadFailure) {
	return chipset.Load(Entries(), log)
}

func i2c(name string, provides []string, addrs ...uint8) chipset.Descriptor {
	return chipset.Descriptor{Name: name, Bus: chipset.BusI2C, Addresses: addrs, Provides: provides}
}
