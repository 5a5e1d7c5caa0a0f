package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cep-go/errcode"
	"cep-go/hal/boards"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
	assert.Equal(t, DefaultEndpoint, Default().Endpoint)
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
endpoint: nats://coord:4222/site.register
board: pico
buses:
  - {id: 1, sda: 2, scl: 3, freq_hz: 400000}
gpio:
  digital_out: [2, 3]
interval: 15s
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, "nats://coord:4222/site.register", c.Endpoint)
	assert.Equal(t, "pico", c.Board)
	assert.Equal(t, []boards.Bus{{ID: 1, SDA: 2, SCL: 3, FreqHz: 400000}}, c.Buses)
	assert.Equal(t, []int{2, 3}, c.GPIO.DigitalOut)
	assert.Equal(t, 15*time.Second, c.Interval)
	assert.Equal(t, DefaultMount, c.Mount, "unset keys keep defaults")

	c, err = Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "endpont: http://x",
		"bad scheme":     "endpoint: ftp://x",
		"no host":        "endpoint: http://",
		"zero frequency": "buses: [{id: 0, sda: 1, scl: 2}]",
		"negative id":    "buses: [{id: -1, sda: 1, scl: 2, freq_hz: 100000}]",
		"log level":      "log_level: loud",
		"interval":       "interval: -1s",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			require.Error(t, err)
			assert.Equal(t, errcode.InvalidParams, errcode.Of(err))
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	p := filepath.Join(t.TempDir(), "cep.yaml")
	require.NoError(t, os.WriteFile(p, []byte("model: bench-rig\n"), 0o644))
	c, err = Load(p)
	require.NoError(t, err)
	assert.Equal(t, "bench-rig", c.Model)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cep.yaml")
	require.NoError(t, os.WriteFile(p, []byte("model: a\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	require.NoError(t, Watch(ctx, p, nil, func(c Config) { got <- c }))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("model: x\n"), 0o644))
	require.NoError(t, os.WriteFile(p, []byte("log_level: loud\n"), 0o644))
	require.NoError(t, os.WriteFile(p, []byte("model: b\n"), 0o644))

	select {
	case c := <-got:
		assert.Equal(t, "b", c.Model)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload")
	}
}

func TestResolveBoard(t *testing.T) {
	b, err := Config{}.ResolveBoard("pico")
	require.NoError(t, err)
	assert.Equal(t, "pico", b.Name)

	_, err = Config{Board: "nope"}.ResolveBoard("pico")
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bench.yaml"), []byte("name: bench\ni2c:\n  - {id: 3, sda: 8, scl: 9}\n"), 0o644))

	b, err = Config{Board: "bench", BoardDir: dir}.ResolveBoard("")
	require.NoError(t, err)
	assert.Equal(t, 3, b.I2C[0].ID)

	b, err = Config{BoardFile: filepath.Join(dir, "bench.yaml")}.ResolveBoard("pico")
	require.NoError(t, err)
	assert.Equal(t, "bench", b.Name)
}
