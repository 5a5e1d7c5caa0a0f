package assemble

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"cep-go/chipset"
	"cep-go/chipset/builtin"
	"cep-go/hal"
	"cep-go/hal/boards"
	"cep-go/hal/platform/sim"
	"cep-go/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

func clock() time.Time { return fixed }

func registry(t *testing.T) *chipset.Registry {
	t.Helper()
	r, _ := builtin.Load(nil)
	return r
}

func kinds(doc types.Document) []types.Kind {
	var out []types.Kind
	for _, c := range doc.Capabilities {
		out = append(out, c.Kind())
	}
	return out
}

func TestDesktopDocument(t *testing.T) {
	a := New(sim.Desktop(), registry(t), WithClock(clock), WithFirmware("v1.4"))
	doc := a.Enumerate(context.Background())

	assert.Equal(t, types.Device{
		ID:         "aabbccddeeff",
		Class:      "microcontroller",
		Transport:  "network",
		Model:      "esp32-devkit",
		Firmware:   "1.4.0",
		ReportedAt: "2025-06-01T12:30:00Z",
	}, doc.Device)

	assert.Equal(t, []types.Kind{
		types.KindCompute, types.KindI2C, types.KindDisplay, types.KindSensor,
		types.KindADC, types.KindNeopixel, types.KindStorage, types.KindNetwork,
	}, kinds(doc))

	sensors := doc.Capabilities.OfKind(types.KindSensor)
	require.Len(t, sensors, 1)
	assert.Equal(t, "bme280", sensors[0].(types.Peripheral).Chipset)
	assert.Equal(t, types.Addr(0x76), sensors[0].(types.Peripheral).Address)

	displays := doc.Capabilities.OfKind(types.KindDisplay)
	require.Len(t, displays, 1)
	assert.Equal(t, "ssd1306", displays[0].(types.Peripheral).Chipset)

	assert.Equal(t, types.Compute{MHz: 240, RAMKB: 320, FlashKB: 4096}, doc.Capabilities[0])
}

func TestDocumentIsValidJSON(t *testing.T) {
	doc := New(sim.Desktop(), registry(t), WithClock(clock)).Enumerate(context.Background())
	b, err := types.Encode(doc)
	require.NoError(t, err)
	require.True(t, json.Valid(b))

	var generic map[string]any
	require.NoError(t, json.Unmarshal(b, &generic))
	dev := generic["device"].(map[string]any)
	assert.NotEmpty(t, dev["id"])
	assert.Equal(t, "microcontroller", dev["class"])
}

func TestNoBusHardware(t *testing.T) {
	p := sim.Desktop()
	p.Buses = map[int]*sim.Bus{}

	doc := New(p, registry(t)).Enumerate(context.Background())

	assert.False(t, doc.Has(types.KindI2C))
	assert.False(t, doc.Has(types.KindSensor))
	assert.False(t, doc.Has(types.KindDisplay))
	assert.True(t, doc.Has(types.KindCompute))
}

func TestMinimalPlatform(t *testing.T) {
	doc := New(sim.New(boards.Board{}), nil, WithClock(clock)).Enumerate(context.Background())

	assert.Equal(t, []types.Kind{types.KindCompute}, kinds(doc))
	assert.Equal(t, types.UnknownID, doc.Device.ID)
	assert.Equal(t, types.TransportUSB, doc.Device.Transport)
	assert.Equal(t, "microcontroller", doc.Device.Class)
	assert.NotNil(t, doc.Capabilities)
}

func TestWirelessNotConnected(t *testing.T) {
	p := sim.Desktop()
	p.Wifi = &hal.WirelessStatus{MAC: []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}}

	doc := New(p, registry(t)).Enumerate(context.Background())

	nets := doc.Capabilities.OfKind(types.KindNetwork)
	require.Len(t, nets, 1)
	iface := nets[0].(types.Network).Interfaces[0]
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", iface.MAC)
	assert.Empty(t, iface.IP)
	assert.Empty(t, iface.SSID)
	assert.Nil(t, iface.RSSIdB)

	b, err := types.Encode(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"ip"`)
	assert.NotContains(t, string(b), `"ssid"`)
}

func TestNoWirelessMeansUSB(t *testing.T) {
	p := sim.Desktop()
	p.Wifi = nil
	doc := New(p, registry(t)).Enumerate(context.Background())
	assert.Equal(t, types.TransportUSB, doc.Device.Transport)
	assert.False(t, doc.Has(types.KindNetwork))
}

func TestEveryClaimedAddressResolvesOnce(t *testing.T) {
	b, _ := boards.Lookup("pico")
	p := sim.New(b).
		Attach(0, 0x76, sim.BME280()).
		Attach(0, 0x12, sim.Blank()). // unknown part
		Attach(0, 0x68, sim.DS3231()).
		Attach(1, 0x48, sim.Blank()).
		Attach(1, 0x40, sim.Blank()).
		Attach(1, 0x68, sim.MPU6050())

	doc := New(p, registry(t)).Enumerate(context.Background())

	require.Len(t, doc.Capabilities.OfKind(types.KindI2C), 2)

	var got []string
	for _, c := range doc.Capabilities {
		if per, ok := c.(types.Peripheral); ok {
			got = append(got, per.Chipset+"@"+per.Address.String())
		}
	}
	assert.Equal(t, []string{"ds3231@0x68", "bme280@0x76", "ina219@0x40", "ads1115@0x48", "mpu6050@0x68"}, got)
}

func TestDescribePanicFallsBackToDefault(t *testing.T) {
	bad := chipset.Plugin{
		Descriptor: chipset.Descriptor{Name: "oled", Bus: chipset.BusI2C, Addresses: []uint8{0x3C}, Provides: []string{"display"}},
		Describe:   func(int, uint8) types.Capability { panic("bad describe") },
	}
	r, fails := chipset.Load([]chipset.Entry{{Name: "oled", Load: func() (chipset.Plugin, error) { return bad, nil }}}, nil)
	require.Empty(t, fails)

	doc := New(sim.Desktop(), r).Enumerate(context.Background())
	sensors := doc.Capabilities.OfKind(types.KindSensor)
	require.Len(t, sensors, 1)
	assert.Equal(t, "oled", sensors[0].(types.Peripheral).Chipset)
}

func TestPluginFailuresStayOutOfDocument(t *testing.T) {
	entries := append(builtin.Entries(), chipset.Entry{
		Name: "explosive",
		Load: func() (chipset.Plugin, error) { panic("import error") },
	})
	r, fails := chipset.Load(entries, nil)
	require.Len(t, fails, 3)

	doc := New(sim.Desktop(), r).Enumerate(context.Background())
	b, err := types.Encode(doc)
	require.NoError(t, err)
	for _, s := range []string{"explosive", "ws2812", "pcm5102", "error", "plugin_load_failure"} {
		assert.NotContains(t, string(b), s)
	}
	assert.Len(t, doc.Capabilities.OfKind(types.KindSensor), 1)
}

type panicky struct{ *sim.Platform }

func (panicky) WirelessStatus() (hal.WirelessStatus, error) { panic("radio driver missing") }
func (panicky) UniqueID() ([]byte, error)                   { panic("efuse read") }

func TestPanickingPlatformDegrades(t *testing.T) {
	doc := New(panicky{sim.Desktop()}, registry(t)).Enumerate(context.Background())

	assert.False(t, doc.Has(types.KindNetwork))
	assert.True(t, doc.Has(types.KindSensor))
	assert.Equal(t, types.UnknownID, doc.Device.ID)
	assert.Equal(t, "microcontroller", doc.Device.Class)
}

type recorder struct {
	mu       sync.Mutex
	buses    map[int]bool
	probes   map[string]bool
	resolved []string
}

func (r *recorder) BusScanned(id, _ int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buses[id] = ok
}

func (r *recorder) ProbeDone(name string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[name] = ok
}

func (r *recorder) Resolved(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, name)
}

func TestObserver(t *testing.T) {
	rec := &recorder{buses: map[int]bool{}, probes: map[string]bool{}}
	a := New(sim.Desktop(), registry(t),
		WithObserver(rec),
		WithBuses([]hal.BusConfig{{ID: 0, SDA: 21, SCL: 22, FreqHz: 100_000}, {ID: 7, SDA: 1, SCL: 2, FreqHz: 100_000}}),
	)
	a.Enumerate(context.Background())

	assert.Equal(t, map[int]bool{0: true, 7: false}, rec.buses)
	assert.Equal(t, map[string]bool{
		"compute": true, "adc": true, "neopixel": true, "storage": true, "gpio": false, "network": true,
	}, rec.probes)
	assert.Equal(t, []string{"ssd1306", "bme280"}, rec.resolved)
}

func TestGPIOSupplied(t *testing.T) {
	doc := New(sim.Desktop(), registry(t), WithGPIO([]int{2, 4}, []int{15})).Enumerate(context.Background())
	g := doc.Capabilities.OfKind(types.KindGPIO)
	require.Len(t, g, 1)
	assert.Equal(t, types.GPIO{DigitalOut: []int{2, 4}, DigitalIn: []int{15}}, g[0])
	// gpio sits between storage and network.
	k := kinds(doc)
	assert.Equal(t, types.KindGPIO, k[len(k)-2])
}

func TestEnumerateIsFreshEachCall(t *testing.T) {
	p := sim.Desktop()
	a := New(p, registry(t))
	first := a.Enumerate(context.Background())

	p.Attach(0, 0x77, sim.BME280())
	second := a.Enumerate(context.Background())

	assert.Len(t, first.Capabilities.OfKind(types.KindSensor), 1)
	assert.Len(t, second.Capabilities.OfKind(types.KindSensor), 2)
}

func TestNormalizeFirmware(t *testing.T) {
	assert.Equal(t, "1.2.0", NormalizeFirmware("1.2"))
	assert.Equal(t, "2.0.1-rc.1", NormalizeFirmware("v2.0.1-rc.1"))
	assert.Equal(t, "build-abc123", NormalizeFirmware("build-abc123"))
	assert.Equal(t, "unknown", NormalizeFirmware(""))
}
