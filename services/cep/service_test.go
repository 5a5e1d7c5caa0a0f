package cep

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"cep-go/bus"
	"cep-go/chipset/builtin"
	"cep-go/config"
	"cep-go/hal/boards"
	"cep-go/hal/platform/sim"
	"cep-go/services/heartbeat"
	"cep-go/transport"
	"cep-go/types"

	svcconfig "cep-go/services/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	endpoints []string
	docs      []types.Document
	ok        bool
}

func (r *recorder) Deliver(_ context.Context, doc types.Document, endpoint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints = append(r.endpoints, endpoint)
	r.docs = append(r.docs, doc)
	return r.ok
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func next(t *testing.T, sub *bus.Subscription) *bus.Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func start(t *testing.T, rec *recorder) (*bus.Bus, *bus.Connection) {
	t.Helper()
	reg, _ := builtin.Load(nil)
	b := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := &Service{
		Platform: sim.Desktop(),
		Registry: reg,
		NewDeliverer: func(string, *slog.Logger) (transport.Deliverer, error) {
			return rec, nil
		},
	}
	require.NoError(t, svc.Start(ctx, b.NewConnection("cep")))
	return b, b.NewConnection("test")
}

func TestRegistersOnConfigAndTick(t *testing.T) {
	rec := &recorder{ok: true}
	b, conn := start(t, rec)
	deliveries := conn.Subscribe(TopicDelivery)

	cfg := config.Default()
	cfg.Endpoint = "http://coord:4080"
	cfg.Firmware = "v2.1"
	conn.Publish(b.NewMessage(svcconfig.TopicCEP, cfg, true))

	d := next(t, deliveries).Payload.(Delivery)
	assert.True(t, d.OK)
	assert.Equal(t, "http://coord:4080", d.Endpoint)

	conn.Publish(b.NewMessage(heartbeat.TopicTick, time.Now(), false))
	next(t, deliveries)

	require.Equal(t, 2, rec.count())
	assert.Equal(t, []string{"http://coord:4080", "http://coord:4080"}, rec.endpoints)
	assert.Equal(t, "2.1.0", rec.docs[0].Device.Firmware)
	assert.Len(t, rec.docs[1].Capabilities.OfKind(types.KindSensor), 1)
}

func TestDocumentIsRetained(t *testing.T) {
	rec := &recorder{}
	b, conn := start(t, rec)
	deliveries := conn.Subscribe(TopicDelivery)
	conn.Publish(b.NewMessage(svcconfig.TopicCEP, config.Default(), true))

	d := next(t, deliveries).Payload.(Delivery)
	assert.False(t, d.OK)

	late := b.NewConnection("late")
	doc := next(t, late.Subscribe(TopicDocument)).Payload.(types.Document)
	assert.Equal(t, "aabbccddeeff", doc.Device.ID)
}

func TestEnumerateRequest(t *testing.T) {
	_, conn := start(t, &recorder{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var reply *bus.Message
	var err error
	// The service subscribes asynchronously; retry until it answers.
	require.Eventually(t, func() bool {
		rctx, rcancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer rcancel()
		reply, err = conn.RequestWait(rctx, conn.NewMessage(TopicEnumerate, nil, false))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	doc := reply.Payload.(types.Document)
	assert.True(t, doc.Has(types.KindCompute))
	assert.True(t, doc.Has(types.KindDisplay))
}

func TestOptions(t *testing.T) {
	cfg := config.Default()
	assert.Len(t, Options(cfg), 2, "mount and firmware")

	cfg.Buses = []boards.Bus{{ID: 1, SDA: 2, SCL: 3, FreqHz: 100_000}}
	cfg.GPIO.DigitalOut = []int{4}
	cfg.AnalogCandidates = []int{26}
	cfg.Model = "bench"
	assert.Len(t, Options(cfg), 6)
}
