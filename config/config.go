// Package config holds the agent's YAML configuration.
package config

import (
	"net/url"
	"strings"
	"time"

	"cep-go/errcode"
	"cep-go/hal/boards"
)

// Defaults.
const (
	DefaultEndpoint = "http://jumpnet-host:4080"
	DefaultInterval = 60 * time.Second
	DefaultLogLevel = "info"
	DefaultMount    = "/"
)

// GPIO lists digital pins for platforms that cannot enumerate them.
type GPIO struct {
	DigitalOut []int `yaml:"digital_out,omitempty" json:"digital_out,omitempty"`
	DigitalIn  []int `yaml:"digital_in,omitempty" json:"digital_in,omitempty"`
}

// Config is the agent configuration. Zero-valued optional fields fall back
// to the board descriptor.
type Config struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Board names a built-in board; BoardFile points at a YAML descriptor
	// and wins when both are set. BoardDir is searched for descriptors.
	Board     string `yaml:"board,omitempty" json:"board,omitempty"`
	BoardFile string `yaml:"board_file,omitempty" json:"board_file,omitempty"`
	BoardDir  string `yaml:"board_dir,omitempty" json:"board_dir,omitempty"`

	Model    string `yaml:"model,omitempty" json:"model,omitempty"`
	Firmware string `yaml:"firmware,omitempty" json:"firmware,omitempty"`
	Mount    string `yaml:"mount,omitempty" json:"mount,omitempty"`

	Buses              []boards.Bus `yaml:"buses,omitempty" json:"buses,omitempty"`
	GPIO               GPIO         `yaml:"gpio,omitempty" json:"gpio,omitempty"`
	AnalogCandidates   []int        `yaml:"analog_candidates,omitempty" json:"analog_candidates,omitempty"`
	NeopixelCandidates []int        `yaml:"neopixel_candidates,omitempty" json:"neopixel_candidates,omitempty"`

	// Interval between registrations in watch mode.
	Interval    time.Duration `yaml:"interval" json:"interval"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty"`
	LogLevel    string        `yaml:"log_level" json:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Endpoint: DefaultEndpoint,
		Mount:    DefaultMount,
		Interval: DefaultInterval,
		LogLevel: DefaultLogLevel,
	}
}

// Validate rejects configurations the agent cannot act on.
func (c Config) Validate() error {
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			return errcode.New(errcode.InvalidParams, "config", "endpoint", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "nats", "tls":
		default:
			return errcode.New(errcode.InvalidParams, "config", "endpoint scheme "+strings.TrimSpace(u.Scheme)+" not supported", nil)
		}
		if u.Host == "" {
			return errcode.New(errcode.InvalidParams, "config", "endpoint has no host", nil)
		}
	}
	for _, b := range c.Buses {
		if b.ID < 0 || b.SDA < 0 || b.SCL < 0 {
			return errcode.New(errcode.InvalidParams, "config", "negative bus id or pin", nil)
		}
		if b.FreqHz == 0 {
			return errcode.New(errcode.InvalidParams, "config", "bus frequency must be set", nil)
		}
	}
	if c.Interval < 0 {
		return errcode.New(errcode.InvalidParams, "config", "negative interval", nil)
	}
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok && c.LogLevel != "" {
		return errcode.New(errcode.InvalidParams, "config", "unknown log level "+c.LogLevel, nil)
	}
	return nil
}

var levels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}
