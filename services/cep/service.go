// Package cep is the enumeration service. It registers a fresh capability
// document on startup, on every heartbeat tick and whenever the config
// changes, and answers document requests on the bus.
package cep

import (
	"context"
	"io"
	"log/slog"
	"time"

	"cep-go/assemble"
	"cep-go/bus"
	"cep-go/chipset"
	"cep-go/config"
	"cep-go/hal"
	"cep-go/services/heartbeat"
	"cep-go/transport"
	"cep-go/types"

	svcconfig "cep-go/services/config"
)

// Topics.
var (
	// TopicDocument holds the last document, retained.
	TopicDocument = bus.T("cep", "document")
	// TopicDelivery carries a Delivery after each registration attempt.
	TopicDelivery = bus.T("cep", "delivery")
	// TopicEnumerate answers requests with a fresh document.
	TopicEnumerate = bus.T("cep", "enumerate")
)

// Delivery reports one registration attempt.
type Delivery struct {
	Endpoint string
	OK       bool
	At       time.Time
}

// Service wires an assembler and a deliverer to the bus.
type Service struct {
	Platform hal.Platform
	Registry *chipset.Registry
	Log      *slog.Logger
	Observer assemble.Observer

	// NewDeliverer picks the transport for an endpoint. Defaults to transport.For.
	NewDeliverer func(endpoint string, log *slog.Logger) (transport.Deliverer, error)
	// Wrap, when set, decorates each deliverer (metrics).
	Wrap func(transport.Deliverer) transport.Deliverer

	Now func() time.Time

	cfg       config.Config
	haveCfg   bool
	assembler *assemble.Assembler
	deliverer transport.Deliverer
}

// Options maps a config onto assembler options.
func Options(cfg config.Config) []assemble.Option {
	var opts []assemble.Option
	if len(cfg.Buses) > 0 {
		opts = append(opts, assemble.WithBuses(cfg.Buses))
	}
	if len(cfg.GPIO.DigitalOut) > 0 || len(cfg.GPIO.DigitalIn) > 0 {
		opts = append(opts, assemble.WithGPIO(cfg.GPIO.DigitalOut, cfg.GPIO.DigitalIn))
	}
	if cfg.AnalogCandidates != nil {
		opts = append(opts, assemble.WithAnalogCandidates(cfg.AnalogCandidates))
	}
	if cfg.NeopixelCandidates != nil {
		opts = append(opts, assemble.WithNeopixelCandidates(cfg.NeopixelCandidates))
	}
	if cfg.Mount != "" {
		opts = append(opts, assemble.WithMount(cfg.Mount))
	}
	if cfg.Model != "" {
		opts = append(opts, assemble.WithModel(cfg.Model))
	}
	return append(opts, assemble.WithFirmware(cfg.Firmware))
}

func (s *Service) configure(cfg config.Config) {
	opts := append(Options(cfg), assemble.WithLogger(s.Log))
	if s.Observer != nil {
		opts = append(opts, assemble.WithObserver(s.Observer))
	}
	if s.Now != nil {
		opts = append(opts, assemble.WithClock(s.Now))
	}
	s.assembler = assemble.New(s.Platform, s.Registry, opts...)

	newD := s.NewDeliverer
	if newD == nil {
		newD = transport.For
	}
	d, err := newD(cfg.Endpoint, s.Log)
	if err != nil {
		s.Log.Warn("no transport for endpoint", "endpoint", cfg.Endpoint, "err", err)
		d = nil
	} else if s.Wrap != nil {
		d = s.Wrap(d)
	}
	s.deliverer = d
	s.cfg = cfg
	s.haveCfg = true
}

// register enumerates, publishes the document and delivers it.
func (s *Service) register(ctx context.Context, conn *bus.Connection) {
	doc := s.assembler.Enumerate(ctx)
	conn.Publish(conn.NewMessage(TopicDocument, doc, true))
	if s.deliverer == nil {
		return
	}
	ok := s.deliverer.Deliver(ctx, doc, s.cfg.Endpoint)
	at := time.Now()
	if s.Now != nil {
		at = s.Now()
	}
	conn.Publish(conn.NewMessage(TopicDelivery, Delivery{Endpoint: s.cfg.Endpoint, OK: ok, At: at}, false))
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(svcconfig.TopicCEP)
	tickSub := conn.Subscribe(heartbeat.TopicTick)
	reqSub := conn.Subscribe(TopicEnumerate)
	defer conn.Disconnect()

	for {
		select {
		case <-ctx.Done():
			s.Log.Info("cep service stopping")
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			cfg, ok := msg.Payload.(config.Config)
			if !ok {
				continue
			}
			s.configure(cfg)
			s.Log.Info("cep configured", "endpoint", cfg.Endpoint)
			s.register(ctx, conn)
		case _, ok := <-tickSub.Channel():
			if !ok {
				return
			}
			if s.haveCfg {
				s.register(ctx, conn)
			}
		case msg, ok := <-reqSub.Channel():
			if !ok {
				return
			}
			var doc types.Document
			if s.haveCfg {
				doc = s.assembler.Enumerate(ctx)
			} else {
				doc = assemble.New(s.Platform, s.Registry, assemble.WithLogger(s.Log)).Enumerate(ctx)
			}
			conn.Reply(msg, doc, false)
		}
	}
}

// Start launches the service loop.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.Log == nil {
		s.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	go s.serviceLoop(ctx, conn)
	return nil
}
