package boards

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinsWithPrefixSortsNumerically(t *testing.T) {
	b := Board{Pins: map[string]int{"A10": 40, "A2": 28, "A0": 26, "ADC": 99, "D1": 1, "A": 7}}
	assert.Equal(t, []int{26, 28, 40}, b.PinsWithPrefix("A"))
	assert.Equal(t, []int{1}, b.PinsWithPrefix("D"))
	assert.Empty(t, b.PinsWithPrefix("X"))
}

func TestLookupAppliesDefaults(t *testing.T) {
	b, ok := Lookup("esp32-devkit")
	require.True(t, ok)
	assert.False(t, b.Declarative)
	assert.Equal(t, []Bus{{ID: 0, SDA: 21, SCL: 22, FreqHz: 100_000}}, b.I2C)
	assert.Equal(t, []int{32, 33, 34, 35, 36, 39}, b.Analog.Candidates)
	assert.Equal(t, []int{5, 13, 27, 16}, b.Neopixel.Candidates)
	assert.Equal(t, 64, b.Neopixel.MaxLEDs)
	assert.Equal(t, "flash", b.Storage.Kind)
	assert.Equal(t, "/", b.Storage.Mount)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestLookupReturnsCopies(t *testing.T) {
	a, _ := Lookup("feather-rp2040")
	a.Pins["NEOPIXEL"] = 99
	a.I2C[0].SDA = 99

	b, _ := Lookup("feather-rp2040")
	n, _ := b.Pin("NEOPIXEL")
	assert.Equal(t, 16, n)
	assert.Equal(t, 2, b.I2C[0].SDA)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "orangepi.yaml"), []byte(`
declarative: true
pins:
  SDA: 12
  SCL: 11
  D7: 7
i2c:
  - id: 0
    sda: 12
    scl: 11
storage:
  kind: disk
  label: rootfs
`), 0o644))

	all, err := LoadDir(dir)
	require.NoError(t, err)

	b, ok := all["orangepi"]
	require.True(t, ok)
	assert.True(t, b.Declarative)
	assert.Equal(t, uint32(DefaultFreqHz), b.I2C[0].FreqHz)
	assert.Equal(t, "rootfs", b.Storage.Label)
	assert.Equal(t, "/", b.Storage.Mount)

	_, ok = all["pico"]
	assert.True(t, ok, "built-ins are kept")
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("pins: [1, 2"), 0o644))
	_, err := LoadFile(p)
	assert.Error(t, err)
}

func TestNamesSortedAndResolvable(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	assert.True(t, sort.StringsAreSorted(names))
	for _, n := range names {
		b, ok := Lookup(n)
		require.True(t, ok, n)
		assert.Equal(t, n, b.Name)
	}
}

func TestPin(t *testing.T) {
	b := Board{Pins: map[string]int{"NEOPIXEL": 16}}
	pin, ok := b.Pin("NEOPIXEL")
	assert.True(t, ok)
	assert.Equal(t, 16, pin)
	_, ok = b.Pin("SDA0")
	assert.False(t, ok)
}
