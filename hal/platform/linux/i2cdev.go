//go:build linux && !tinygo

package linux

import (
	"cep-go/errcode"

	"golang.org/x/sys/unix"
)

// i2cSlave is I2C_SLAVE from linux/i2c-dev.h.
const i2cSlave = 0x0703

// devBus is a /dev/i2c-N handle. Each Tx selects the target address and
// performs a write then a read.
type devBus struct {
	fd   int
	addr uint16
}

func (d *devBus) Tx(addr uint16, w, r []byte) error {
	if d.addr != addr {
		if err := unix.IoctlSetInt(d.fd, i2cSlave, int(addr)); err != nil {
			return errcode.New(errcode.Error, "i2c addr", "", err)
		}
		d.addr = addr
	}
	if len(w) > 0 {
		if _, err := unix.Write(d.fd, w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		if _, err := unix.Read(d.fd, r); err != nil {
			return err
		}
	}
	return nil
}
