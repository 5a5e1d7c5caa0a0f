// Package aht20 is a minimal driver for the AHT20 temperature/humidity
// sensor, limited to what enumeration needs: status reads and an identity
// check that does not start a measurement.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided, without releasing the bus.
package aht20

import "tinygo.org/x/drivers"

// I2C address.
const Address = 0x38

// Command and status bits (per datasheet).
const (
	cmdStatus = 0x71

	statusCalibrated = 0x08
	// Bits 5-6 read back as zero on genuine parts.
	statusReservedMask = 0x60
)

// Device wraps an I2C connection to an AHT20 device.
type Device struct {
	bus     drivers.I2C
	Address uint16
}

// New creates a new AHT20 connection. The I2C bus must already be configured.
// This function only creates the Device object; it does not touch the device.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Status reads and returns the status byte.
func (d *Device) Status() (byte, error) {
	data := []byte{0}
	if err := d.bus.Tx(d.Address, []byte{cmdStatus}, data); err != nil {
		return 0, err
	}
	return data[0], nil
}

// Connected reports whether the part at Address answers like an AHT20: the
// status read succeeds, the calibration bit is set and the reserved bits are
// clear.
func (d *Device) Connected() bool {
	st, err := d.Status()
	if err != nil {
		return false
	}
	return st&statusCalibrated != 0 && st&statusReservedMask == 0
}
