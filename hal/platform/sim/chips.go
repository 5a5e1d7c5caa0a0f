package sim

import (
	"cep-go/hal"
	"cep-go/hal/boards"
)

// Register files that satisfy each chip's identity probe.

func BME280() *Device  { return &Device{Regs: map[byte]byte{0xD0: 0x60}} }
func MPU6050() *Device { return &Device{Regs: map[byte]byte{0x75: 0x68}} }
func AHT20() *Device   { return &Device{Regs: map[byte]byte{0x71: 0x18}} }

// DS3231 reports 25.25 C in its temperature registers and has no WHO_AM_I.
func DS3231() *Device {
	return &Device{Regs: map[byte]byte{0x0E: 0x1C, 0x11: 25, 0x12: 0x40, 0x75: 0x00}}
}

// Blank answers every read with zeros (SSD1306, INA219, ADS1115 and unknown parts).
func Blank() *Device { return &Device{} }

// Desktop mirrors a typical ESP32 dev board: a BME280 and an SSD1306 on
// bus 0, 240 MHz, 4 MiB flash filesystem and an associated Wi-Fi station.
func Desktop() *Platform {
	b, _ := boards.Lookup("esp32-devkit")
	p := New(b)
	p.Attach(0, 0x76, BME280()).Attach(0, 0x3C, Blank())
	p.ID = []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	p.Clock = 240_000_000
	p.RAMKB = 320
	p.FlashKB = 4096
	p.FS = map[string]hal.FSStats{"/": {BlockSize: 4096, TotalBlocks: 512, FreeBlocks: 256}}
	p.Wifi = &hal.WirelessStatus{
		MAC:       []byte{0x24, 0x6F, 0x28, 0x01, 0x02, 0x03},
		Connected: true,
		IP:        "192.168.1.99",
		SSID:      "MockSSID",
		RSSI:      -55,
		HasRSSI:   true,
	}
	p.AnalogPins = map[int]bool{32: true, 34: true}
	p.LEDPins = map[int]bool{13: true, 27: true}
	return p
}
