// Package heartbeat publishes the ticks that pace re-registration.
package heartbeat

import (
	"context"
	"io"
	"log/slog"
	"time"

	"cep-go/bus"
	svcconfig "cep-go/services/config"
)

// TopicTick carries a time.Time on every tick.
var TopicTick = bus.T("heartbeat", "tick")

// DefaultInterval applies until a config arrives.
const DefaultInterval = 60 * time.Second

type Service struct {
	Log *slog.Logger
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	log := s.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfgSub := conn.Subscribe(svcconfig.TopicHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	interval := DefaultInterval
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("heartbeat service stopping")
			return
		case t := <-tick.C:
			conn.Publish(conn.NewMessage(TopicTick, t, false))
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			hb, ok := msg.Payload.(svcconfig.Heartbeat)
			if !ok || hb.Interval <= 0 || hb.Interval == interval {
				continue
			}
			interval = hb.Interval
			tick.Reset(interval)
			log.Info("heartbeat interval set", "interval", interval)
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
