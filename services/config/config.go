// Package config publishes the agent configuration on the bus as retained
// messages so services pick up the current settings whenever they subscribe.
package config

import (
	"context"
	"io"
	"log/slog"
	"time"

	"cep-go/bus"
	"cep-go/config"
	"cep-go/errcode"
)

const serviceName = "config"

// Topics carrying each section.
var (
	TopicCEP       = bus.T("config", "cep")
	TopicHeartbeat = bus.T("config", "heartbeat")
)

// Heartbeat is the payload on TopicHeartbeat.
type Heartbeat struct {
	Interval time.Duration
}

// EmbeddedConfigLookup resolves the YAML compiled into a firmware image for
// a board. Host builds leave it empty and load files instead.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

// Embedded returns the parsed embedded config for board.
func Embedded(board string) (config.Config, error) {
	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return config.Config{}, errcode.New(errcode.InvalidParams, serviceName, "no embedded config for board "+board, nil)
	}
	return config.Parse(raw)
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	Log  *slog.Logger

	// Updates, when set, delivers replacement configs after the first.
	Updates <-chan config.Config
}

func NewConfigService(log *slog.Logger) *ConfigService {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ConfigService{Name: serviceName, Log: log}
}

// Publish replaces the retained sections with cfg.
func (s *ConfigService) Publish(conn *bus.Connection, cfg config.Config) {
	conn.Publish(conn.NewMessage(TopicCEP, cfg, true))
	conn.Publish(conn.NewMessage(TopicHeartbeat, Heartbeat{Interval: cfg.Interval}, true))
	s.Log.Debug("config published", "endpoint", cfg.Endpoint, "interval", cfg.Interval)
}

// Start publishes cfg, then each update, until ctx is done.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection, cfg config.Config) {
	s.Publish(conn, cfg)
	if s.Updates == nil {
		return
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-s.Updates:
				if !ok {
					return
				}
				s.Publish(conn, c)
			}
		}
	}()
}
