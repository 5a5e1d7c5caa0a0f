// Package assemble builds a capability document from a platform and a
// chipset registry. Enumerate never fails: every stage degrades to
// contributing nothing, so the worst case is identity plus compute.
package assemble

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cep-go/chipset"
	"cep-go/errcode"
	"cep-go/hal"
	"cep-go/probe"
	"cep-go/scan"
	"cep-go/types"

	"tinygo.org/x/drivers"
)

// Observer receives per-stage outcomes. Implementations must be cheap.
type Observer interface {
	BusScanned(busID, found int, ok bool)
	ProbeDone(name string, ok bool)
	Resolved(chipset string)
}

type nopObserver struct{}

func (nopObserver) BusScanned(int, int, bool) {}
func (nopObserver) ProbeDone(string, bool)    {}
func (nopObserver) Resolved(string)           {}

// Assembler is stateless between calls; it holds configuration only.
type Assembler struct {
	platform hal.Platform
	registry *chipset.Registry

	log      *slog.Logger
	obs      Observer
	now      func() time.Time
	buses    []hal.BusConfig
	gpioOut  []int
	gpioIn   []int
	analog   []int
	neopixel []int
	mount    string
	model    string
	firmware string
}

// Option configures an Assembler.
type Option func(*Assembler)

func WithLogger(l *slog.Logger) Option { return func(a *Assembler) { a.log = l } }
func WithObserver(o Observer) Option   { return func(a *Assembler) { a.obs = o } }
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithBuses overrides the board's bus list.
func WithBuses(b []hal.BusConfig) Option { return func(a *Assembler) { a.buses = b } }

// WithGPIO supplies digital pin lists for platforms that cannot name pins.
func WithGPIO(out, in []int) Option {
	return func(a *Assembler) { a.gpioOut, a.gpioIn = out, in }
}

func WithAnalogCandidates(pins []int) Option   { return func(a *Assembler) { a.analog = pins } }
func WithNeopixelCandidates(pins []int) Option { return func(a *Assembler) { a.neopixel = pins } }
func WithMount(m string) Option                { return func(a *Assembler) { a.mount = m } }
func WithModel(m string) Option                { return func(a *Assembler) { a.model = m } }
func WithFirmware(v string) Option             { return func(a *Assembler) { a.firmware = v } }

// New returns an assembler. A nil registry resolves nothing.
func New(p hal.Platform, r *chipset.Registry, opts ...Option) *Assembler {
	a := &Assembler{
		platform: p,
		registry: r,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		obs:      nopObserver{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	if a.registry == nil {
		a.registry = (&chipset.Builder{}).Build()
	}
	return a
}

// Enumerate takes a fresh snapshot.
func (a *Assembler) Enumerate(ctx context.Context) types.Document {
	caps := types.Capabilities{}

	// Stage 1: the registry is loaded by the caller; record what it holds.
	a.log.Debug("registry ready", "plugins", a.registry.Len())

	// Stage 2: scan buses and resolve chipsets.
	var busCaps, resolved []types.Capability
	a.stage("scan", func() {
		busCaps, resolved = a.scanAndResolve(ctx)
	})

	// Stage 3: probes, in document order.
	a.run(&caps, "compute", func() (types.Capability, bool) { return probe.Compute(a.platform) })
	caps = append(caps, busCaps...)
	caps = append(caps, resolved...)
	a.run(&caps, "adc", func() (types.Capability, bool) { return probe.Analog(a.platform, a.analog) })
	a.run(&caps, "neopixel", func() (types.Capability, bool) { return probe.Neopixel(a.platform, a.neopixel) })
	a.run(&caps, "storage", func() (types.Capability, bool) { return probe.Storage(a.platform, a.mount) })
	a.run(&caps, "gpio", func() (types.Capability, bool) { return probe.GPIO(a.platform, a.gpioOut, a.gpioIn) })
	a.run(&caps, "network", func() (types.Capability, bool) { return probe.Network(a.platform) })

	// Stage 4: identity.
	var dev types.Device
	a.stage("identity", func() { dev = a.identity(caps) })
	if dev.ID == "" {
		dev = fallbackIdentity(a.now())
		if len(caps.OfKind(types.KindNetwork)) > 0 {
			dev.Transport = types.TransportNetwork
		}
	}

	a.log.Info("enumeration complete", "id", dev.ID, "capabilities", len(caps), "transport", dev.Transport)
	return types.Document{Device: dev, Capabilities: caps}
}

func (a *Assembler) run(caps *types.Capabilities, name string, fn func() (types.Capability, bool)) {
	c, ok := probe.Safe(a.log, name, fn)
	a.obs.ProbeDone(name, ok)
	if ok {
		*caps = append(*caps, c)
	}
}

// stage runs fn and swallows a panic.
func (a *Assembler) stage(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("stage failed", "stage", name, "code", errcode.Error, "err", fmt.Sprint(r))
		}
	}()
	fn()
}

func (a *Assembler) busList() []hal.BusConfig {
	if a.buses != nil {
		return a.buses
	}
	return a.platform.Board().I2C
}

func (a *Assembler) scanAndResolve(ctx context.Context) (busCaps, resolved []types.Capability) {
	s := scan.Scanner{
		Platform: a.platform,
		Log:      a.log,
		Confirm: func(bus drivers.I2C, _ int, addr uint8) string {
			p, ok := a.registry.Confirm(bus, addr)
			if !ok {
				return ""
			}
			return p.Name
		},
	}
	res := s.Scan(ctx, a.busList())
	for _, b := range res.Buses {
		a.obs.BusScanned(b.ID, b.Found, !errcode.Is(b.Err, errcode.BusUnavailable))
	}

	for _, f := range res.Findings {
		p, ok := a.resolve(f)
		if !ok {
			a.log.Debug("address unclaimed", "bus", f.BusID, "addr", types.Addr(f.Addr).String())
			continue
		}
		a.obs.Resolved(p.Name)
		resolved = append(resolved, a.describe(p, f))
	}
	return res.Capabilities, resolved
}

func (a *Assembler) resolve(f scan.Finding) (chipset.Plugin, bool) {
	if f.Chipset != "" {
		if p, ok := a.registry.Lookup(f.Chipset); ok {
			return p, true
		}
	}
	return a.registry.Resolve(f.Addr)
}

// describe falls back to the default capability when a plugin's Describe
// panics or returns nothing.
func (a *Assembler) describe(p chipset.Plugin, f scan.Finding) (c types.Capability) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("describe failed", "plugin", p.Name, "err", fmt.Sprint(r))
			p.Describe = nil
			c = p.Capability(f.BusID, f.Addr)
		}
	}()
	c = p.Capability(f.BusID, f.Addr)
	if c == nil {
		p.Describe = nil
		c = p.Capability(f.BusID, f.Addr)
	}
	return c
}
