package config

import (
	"context"
	"testing"
	"time"

	"cep-go/bus"
	"cep-go/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, sub *bus.Subscription) *bus.Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestPublishIsRetained(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test-config")
	svc := NewConfigService(nil)

	cfg := config.Default()
	cfg.Interval = 5 * time.Second
	svc.Start(context.Background(), conn, cfg)

	// Subscribing after the fact still sees both sections.
	sub := conn.Subscribe(bus.T("config", "#"))
	got := map[string]any{}
	for i := 0; i < 2; i++ {
		m := recv(t, sub)
		got[m.Topic.String()] = m.Payload
	}
	assert.Equal(t, cfg, got["config/cep"])
	assert.Equal(t, Heartbeat{Interval: 5 * time.Second}, got["config/heartbeat"])
}

func TestUpdatesRepublish(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("test-config")
	updates := make(chan config.Config, 1)
	svc := NewConfigService(nil)
	svc.Updates = updates

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx, conn, config.Default())

	sub := conn.Subscribe(TopicCEP)
	assert.Equal(t, config.DefaultEndpoint, recv(t, sub).Payload.(config.Config).Endpoint)

	next := config.Default()
	next.Endpoint = "http://other:4080"
	updates <- next
	assert.Equal(t, "http://other:4080", recv(t, sub).Payload.(config.Config).Endpoint)
}

func TestEmbedded(t *testing.T) {
	old := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(board string) ([]byte, bool) {
		if board != "pico" {
			return nil, false
		}
		return []byte("endpoint: http://10.0.0.2:4080\ninterval: 30s\n"), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = old })

	cfg, err := Embedded("pico")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:4080", cfg.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Interval)

	_, err = Embedded("unknown-board")
	assert.Error(t, err)
}

func TestBuiltInEmbeddedConfigsParse(t *testing.T) {
	for board := range embeddedConfigs {
		cfg, err := Embedded(board)
		require.NoError(t, err, board)
		assert.NotEmpty(t, cfg.Endpoint)
	}
}
