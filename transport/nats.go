package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cep-go/errcode"
	"cep-go/types"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultNATSTimeout bounds one request/reply round trip.
const DefaultNATSTimeout = 5 * time.Second

// NATS registers over a request/reply exchange. The coordinator answers
// with a Status header or a JSON body carrying "status".
//
// When Conn is nil each Deliver dials the endpoint and closes the
// connection afterwards. An endpoint path, if any, names the subject.
type NATS struct {
	Conn    *nats.Conn
	Subject string
	Timeout time.Duration
	Log     *slog.Logger
}

func (n *NATS) Deliver(ctx context.Context, doc types.Document, endpoint string) bool {
	log := logger(n.Log)
	body, ok := encode(log, doc)
	if !ok {
		return false
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = DefaultNATSTimeout
	}

	server, subject := splitEndpoint(endpoint)
	if n.Subject != "" {
		subject = n.Subject
	}

	conn := n.Conn
	if conn == nil {
		c, err := nats.Connect(server, nats.Timeout(timeout), nats.Name("cep"))
		if err != nil {
			log.Warn("nats connect failed", "server", server, "code", errcode.TransportFailure, "err", err)
			return false
		}
		defer c.Close()
		conn = c
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	id := uuid.NewString()
	msg := nats.NewMsg(subject)
	msg.Data = body
	msg.Header.Set("Content-Type", "application/json")
	msg.Header.Set("X-Request-ID", id)

	reply, err := conn.RequestMsgWithContext(ctx, msg)
	if err != nil {
		log.Warn("register failed", "subject", subject, "request_id", id, "code", errcode.TransportFailure, "err", err)
		return false
	}
	status := replyStatus(reply)
	if !accepted(status) {
		log.Warn("register rejected", "subject", subject, "request_id", id, "status", status, "code", errcode.TransportFailure)
		return false
	}
	log.Info("registered", "subject", subject, "request_id", id, "status", status, "device", doc.Device.ID)
	return true
}

// splitEndpoint separates "nats://host:4222/subject" into a server URL and
// a subject, defaulting the subject.
func splitEndpoint(endpoint string) (server, subject string) {
	subject = DefaultSubject
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint, subject
	}
	if s := strings.Trim(u.Path, "/"); s != "" {
		subject = s
	}
	u.Path = ""
	return u.String(), subject
}

// replyStatus reads the reply's Status header, falling back to a JSON
// "status" field. Zero means neither was present.
func replyStatus(m *nats.Msg) int {
	if m.Header != nil {
		if s := m.Header.Get("Status"); s != "" {
			if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				return v
			}
		}
	}
	var body struct {
		Status int `json:"status"`
	}
	if json.Unmarshal(m.Data, &body) == nil {
		return body.Status
	}
	return 0
}
