package builtin

import (
	"cep-go/chipset"
	"cep-go/drivers/aht20"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/bme280"
	"tinygo.org/x/drivers/ds3231"
	"tinygo.org/x/drivers/mpu6050"
)

// BME280 is the Bosch environmental sensor; identified by chip id 0x60.
func BME280() (chipset.Plugin, error) {
	return chipset.Plugin{
		Descriptor: i2c("bme280", []string{"temperature", "humidity", "pressure"}, 0x76, 0x77),
		Identify: func(bus drivers.I2C, addr uint8) bool {
			d := bme280.New(bus)
			d.Address = uint16(addr)
			return d.Connected()
		},
	}, nil
}

// INA219 is a current/power monitor. It has no identity register.
func INA219() (chipset.Plugin, error) {
	return chipset.Plugin{
		Descriptor: i2c("ina219", []string{"voltage", "current", "power"}, 0x40, 0x41, 0x44, 0x45),
	}, nil
}

// MPU6050 is a 6-axis IMU; WHO_AM_I reads 0x68 at either address.
func MPU6050() (chipset.Plugin, error) {
	return chipset.Plugin{
		Descriptor: i2c("mpu6050", []string{"acceleration", "gyroscope", "temperature"}, 0x68, 0x69),
		Identify: func(bus drivers.I2C, addr uint8) bool {
			d := mpu6050.New(bus)
			d.Address = uint16(addr)
			return d.Connected()
		},
	}, nil
}

// DS3231 is a real-time clock. It is accepted when its temperature
// registers read back inside the part's operating range.
func DS3231() (chipset.Plugin, error) {
	return chipset.Plugin{
		Descriptor: i2c("ds3231", []string{"rtc", "temperature"}, 0x68),
		Identify: func(bus drivers.I2C, addr uint8) bool {
			d := ds3231.New(bus)
			d.Address = uint16(addr)
			mc, err := d.ReadTemperature()
			return err == nil && mc >= -40_000 && mc <= 85_000
		},
	}, nil
}

// AHT20 is a temperature/humidity sensor; identified by its status byte.
func AHT20() (chipset.Plugin, error) {
	return chipset.Plugin{
		Descriptor: i2c("aht20", []string{"temperature", "humidity"}, aht20.Address),
		Identify: func(bus drivers.I2C, addr uint8) bool {
			d := aht20.New(bus)
			d.Address = uint16(addr)
			return d.Connected()
		},
	}, nil
}
