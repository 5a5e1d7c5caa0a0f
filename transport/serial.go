package transport

import (
	"context"
	"io"
	"log/slog"

	"cep-go/errcode"
	"cep-go/types"
)

// LinePrefix marks a document line on a shared console.
const LinePrefix = "CEP "

// Serial writes each document as one prefixed JSON line. It is used when
// the device has no network stack and a host relays the line onward; the
// endpoint is ignored.
type Serial struct {
	W   io.Writer
	Log *slog.Logger
}

func (s *Serial) Deliver(_ context.Context, doc types.Document, _ string) bool {
	log := logger(s.Log)
	body, ok := encode(log, doc)
	if !ok {
		return false
	}
	line := make([]byte, 0, len(LinePrefix)+len(body)+1)
	line = append(line, LinePrefix...)
	line = append(line, body...)
	line = append(line, '\n')
	if _, err := s.W.Write(line); err != nil {
		log.Warn("serial write failed", "code", errcode.TransportFailure, "err", err)
		return false
	}
	log.Debug("document written", "bytes", len(line))
	return true
}
