package aht20

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type statusBus struct {
	status byte
	err    error
	lastW  []byte
}

func (b *statusBus) Tx(addr uint16, w, r []byte) error {
	b.lastW = append([]byte(nil), w...)
	if b.err != nil {
		return b.err
	}
	if len(r) > 0 {
		r[0] = b.status
	}
	return nil
}

func TestConnected(t *testing.T) {
	cases := []struct {
		name   string
		status byte
		err    error
		want   bool
	}{
		{"calibrated idle", 0x18, nil, true},
		{"calibrated busy", 0x98, nil, true},
		{"uncalibrated", 0x10, nil, false},
		{"reserved bits set", 0x68, nil, false},
		{"nack", 0x18, errors.New("nack"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bus := &statusBus{status: tc.status, err: tc.err}
			d := New(bus)
			assert.Equal(t, tc.want, d.Connected())
			assert.Equal(t, []byte{cmdStatus}, bus.lastW)
		})
	}
}
