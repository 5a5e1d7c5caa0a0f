package sim

import (
	"testing"

	"cep-go/errcode"
	"cep-go/hal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterReads(t *testing.T) {
	p := Desktop()
	bus, err := p.OpenI2C(hal.BusConfig{ID: 0})
	require.NoError(t, err)
	defer bus.Close()

	id := []byte{0}
	require.NoError(t, bus.Tx(0x76, []byte{0xD0}, id))
	assert.Equal(t, byte(0x60), id[0])

	assert.ErrorIs(t, bus.Tx(0x10, nil, id), ErrNACK)
}

func TestBusIsExclusive(t *testing.T) {
	p := Desktop()
	a, err := p.OpenI2C(hal.BusConfig{ID: 0})
	require.NoError(t, err)

	_, err = p.OpenI2C(hal.BusConfig{ID: 0})
	assert.Equal(t, errcode.Busy, errcode.Of(err))

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	opens, closes := p.Buses[0].Counts()
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, closes)

	b, err := p.OpenI2C(hal.BusConfig{ID: 0})
	require.NoError(t, err)
	b.Close()
}

func TestMissingFacilitiesReportHardwareAbsent(t *testing.T) {
	p := New(Desktop().Board())

	_, err := p.OpenI2C(hal.BusConfig{ID: 3})
	assert.Equal(t, errcode.BusUnavailable, errcode.Of(err))
	_, err = p.UniqueID()
	assert.Equal(t, errcode.HardwareAbsent, errcode.Of(err))
	_, err = p.WirelessStatus()
	assert.Equal(t, errcode.HardwareAbsent, errcode.Of(err))
	_, err = p.FilesystemStats("/")
	assert.Equal(t, errcode.HardwareAbsent, errcode.Of(err))
	assert.Nil(t, p.NamedPins())
}
