package transport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cep-go/errcode"
	"cep-go/types"

	"github.com/google/uuid"
)

// DefaultHTTPTimeout bounds one registration POST.
const DefaultHTTPTimeout = 10 * time.Second

// Poster delivers a request body and returns the response status.
type Poster interface {
	Post(ctx context.Context, url string, header http.Header, body []byte) (int, error)
}

// HTTPPoster is a Poster over net/http.
type HTTPPoster struct {
	Client *http.Client
}

func (p HTTPPoster) Post(ctx context.Context, url string, header http.Header, body []byte) (int, error) {
	c := p.Client
	if c == nil {
		c = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := c.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}

// HTTP posts documents to <endpoint>/devices/register.
type HTTP struct {
	Poster Poster
	Log    *slog.Logger
}

// RegisterURL joins endpoint and RegisterPath unless endpoint already ends in it.
func RegisterURL(endpoint string) string {
	e := strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(e, RegisterPath) {
		return e
	}
	return e + RegisterPath
}

func (h *HTTP) Deliver(ctx context.Context, doc types.Document, endpoint string) bool {
	log := logger(h.Log)
	body, ok := encode(log, doc)
	if !ok {
		return false
	}
	p := h.Poster
	if p == nil {
		p = HTTPPoster{}
	}

	id := uuid.NewString()
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Set("X-Request-ID", id)

	url := RegisterURL(endpoint)
	status, err := p.Post(ctx, url, hdr, body)
	if err != nil {
		log.Warn("register failed", "url", url, "request_id", id, "code", errcode.TransportFailure, "err", err)
		return false
	}
	if !accepted(status) {
		log.Warn("register rejected", "url", url, "request_id", id, "status", status, "code", errcode.TransportFailure)
		return false
	}
	log.Info("registered", "url", url, "request_id", id, "status", status, "device", doc.Device.ID)
	return true
}
