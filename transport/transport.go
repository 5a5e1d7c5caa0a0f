// Package transport delivers capability documents to the JumpNet
// coordinator. Delivery is best-effort: a Deliverer reports success or
// failure and never returns an error or panics into the caller.
package transport

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"cep-go/errcode"
	"cep-go/types"
)

// RegisterPath is appended to HTTP endpoints that do not already carry it.
const RegisterPath = "/devices/register"

// DefaultSubject is the NATS subject used when the endpoint names none.
const DefaultSubject = "jumpnet.devices.register"

// Deliverer sends one document to endpoint and reports whether the
// coordinator accepted it.
type Deliverer interface {
	Deliver(ctx context.Context, doc types.Document, endpoint string) bool
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, doc types.Document, endpoint string) bool

func (f DelivererFunc) Deliver(ctx context.Context, doc types.Document, endpoint string) bool {
	return f(ctx, doc, endpoint)
}

// For returns a deliverer for endpoint's scheme: http and https post to the
// register path, nats does a request/reply.
func For(endpoint string, log *slog.Logger) (Deliverer, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errcode.New(errcode.InvalidParams, "transport", "bad endpoint", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return &HTTP{Log: log}, nil
	case "nats", "tls":
		return &NATS{Log: log}, nil
	}
	return nil, errcode.New(errcode.InvalidParams, "transport", "unsupported scheme "+u.Scheme, nil)
}

// accepted is the coordinator's success rule.
func accepted(status int) bool { return status == 200 || status == 201 }

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// encode renders doc, recovering from a panicking encoder.
func encode(log *slog.Logger, doc types.Document) (b []byte, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("encode failed", "code", errcode.TransportFailure, "err", r)
			b, ok = nil, false
		}
	}()
	b, err := types.Encode(doc)
	if err != nil {
		log.Warn("encode failed", "code", errcode.TransportFailure, "err", err)
		return nil, false
	}
	return b, true
}
