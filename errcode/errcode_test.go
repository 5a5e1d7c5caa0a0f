package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", BusUnavailable, BusUnavailable},
		{"wrapped code", fmt.Errorf("open: %w", HardwareAbsent), HardwareAbsent},
		{"E", New(PluginLoadFailure, "load", "bme280", nil), PluginLoadFailure},
		{"wrapped E", fmt.Errorf("x: %w", New(TransportFailure, "post", "", errors.New("refused"))), TransportFailure},
		{"plain", errors.New("boom"), Error},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Of(tc.err))
		})
	}
}

func TestEError(t *testing.T) {
	cause := errors.New("no such device")
	e := New(BusUnavailable, "i2c open", "bus 1", cause)

	assert.Equal(t, "i2c open: bus_unavailable: bus 1: no such device", e.Error())
	assert.ErrorIs(t, e, cause)
	assert.True(t, Is(e, BusUnavailable))
	assert.False(t, Is(nil, BusUnavailable))
}
