//go:build linux && !tinygo

package linux

import (
	"testing"
	"testing/fstest"

	"cep-go/errcode"
	"cep-go/hal/boards"
	"cep-go/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fake() *Platform {
	p := New(boards.Board{Name: "sbc"})
	p.Dev = fstest.MapFS{
		"i2c-1":  {},
		"i2c-10": {},
		"tty0":   {},
	}
	p.Etc = fstest.MapFS{"machine-id": {Data: []byte("0123456789abcdef0123456789abcdef\n")}}
	p.Sys = fstest.MapFS{
		"devices/system/cpu/cpu0/cpufreq/cpuinfo_max_freq": {Data: []byte("1500000\n")},
		"class/net/wlan0/wireless/.keep":                   {},
		"class/net/wlan0/address":                          {Data: []byte("dc:a6:32:01:02:03\n")},
		"class/net/wlan0/operstate":                        {Data: []byte("down\n")},
		"class/net/eth0/address":                           {Data: []byte("dc:a6:32:0a:0b:0c\n")},
	}
	p.Proc = fstest.MapFS{
		"net/wireless": {Data: []byte("Inter-| sta-|   Quality        |   Discarded packets\n" +
			" face | tus | link level noise |  nwid  crypt   frag  retry   misc | beacon | 22\n" +
			" wlan0: 0000   70.  -40.  -256        0      0      0      0     12        0\n")},
	}
	p.DevDir = "/nonexistent"
	return p
}

func TestBusDiscovery(t *testing.T) {
	p := fake()
	buses := p.Board().I2C
	require.Len(t, buses, 2)
	assert.Equal(t, 1, buses[0].ID)
	assert.Equal(t, 10, buses[1].ID)
	assert.Equal(t, uint32(boards.DefaultFreqHz), buses[1].FreqHz)
	assert.Equal(t, types.NoPin, buses[0].SDA)
	assert.Equal(t, types.NoPin, buses[0].SCL)
}

func TestDiscoveredBusPinsFromBoard(t *testing.T) {
	p := fake()
	p.board = boards.Board{Name: "sbc", Pins: map[string]int{"SDA1": 2, "SCL1": 3}}
	buses := p.Board().I2C
	require.Len(t, buses, 2)
	assert.Equal(t, boards.Bus{ID: 1, SDA: 2, SCL: 3, FreqHz: boards.DefaultFreqHz}, buses[0])
	assert.Equal(t, types.NoPin, buses[1].SDA)
}

func TestDeclaredBusesWin(t *testing.T) {
	p := fake()
	b, _ := boards.Lookup("raspberrypi")
	p.board = b
	assert.Equal(t, []boards.Bus{{ID: 1, SDA: 2, SCL: 3, FreqHz: 100_000}}, p.Board().I2C)
	assert.Equal(t, 4, p.NamedPins()["D4"])
}

func TestOpenMissingBus(t *testing.T) {
	_, err := fake().OpenI2C(boards.Bus{ID: 1})
	assert.True(t, errcode.Is(err, errcode.BusUnavailable))
}

func TestIdentityAndClock(t *testing.T) {
	p := fake()
	id, err := p.UniqueID()
	require.NoError(t, err)
	assert.Len(t, id, 16)

	hz, err := p.ClockHz()
	require.NoError(t, err)
	assert.Equal(t, uint32(1_500_000_000), hz)

	p.Etc = fstest.MapFS{}
	_, err = p.UniqueID()
	assert.ErrorIs(t, err, errcode.HardwareAbsent)
}

func TestWirelessDown(t *testing.T) {
	ws, err := fake().WirelessStatus()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xdc, 0xa6, 0x32, 0x01, 0x02, 0x03}, []byte(ws.MAC))
	assert.False(t, ws.Connected)
	assert.False(t, ws.HasRSSI)
}

type fakeRadio struct {
	link Link
	err  error
}

func (r fakeRadio) Link(string) (Link, error) { return r.link, r.err }

func connected(radio Radio) *Platform {
	p := fake()
	p.Sys.(fstest.MapFS)["class/net/wlan0/operstate"] = &fstest.MapFile{Data: []byte("up\n")}
	p.IPv4 = func(name string) string {
		if name == "wlan0" {
			return "192.168.1.50"
		}
		return ""
	}
	p.Radio = radio
	return p
}

func TestWirelessAssociated(t *testing.T) {
	ws, err := connected(fakeRadio{link: Link{SSID: "lab-net", RSSI: -52, HasRSSI: true}}).WirelessStatus()
	require.NoError(t, err)
	assert.True(t, ws.Connected)
	assert.Equal(t, "192.168.1.50", ws.IP)
	assert.Equal(t, "lab-net", ws.SSID)
	assert.True(t, ws.HasRSSI)
	assert.Equal(t, -52, ws.RSSI)
}

func TestWirelessRadioFallsBackToProc(t *testing.T) {
	ws, err := connected(fakeRadio{err: errcode.HardwareAbsent}).WirelessStatus()
	require.NoError(t, err)
	assert.True(t, ws.Connected)
	assert.Empty(t, ws.SSID)
	assert.True(t, ws.HasRSSI)
	assert.Equal(t, -40, ws.RSSI)

	ws, err = connected(nil).WirelessStatus()
	require.NoError(t, err)
	assert.Equal(t, -40, ws.RSSI)
}

func TestWirelessDownIgnoresRadio(t *testing.T) {
	p := fake()
	p.Radio = fakeRadio{link: Link{SSID: "lab-net", RSSI: -52, HasRSSI: true}}
	ws, err := p.WirelessStatus()
	require.NoError(t, err)
	assert.False(t, ws.Connected)
	assert.Empty(t, ws.SSID)
}

func TestSignal(t *testing.T) {
	rssi, ok := fake().signal("wlan0")
	require.True(t, ok)
	assert.Equal(t, -40, rssi)

	_, ok = fake().signal("wlan1")
	assert.False(t, ok)
}

func TestNoWireless(t *testing.T) {
	p := fake()
	p.Sys = fstest.MapFS{}
	_, err := p.WirelessStatus()
	assert.ErrorIs(t, err, errcode.HardwareAbsent)
}
