// Package chipset resolves bus addresses to named chipsets.
//
// A Registry is built once from an explicit list of entries and is read-only
// afterwards; it is passed to the assembler as a dependency. Loading is
// best-effort: an entry that is absent, malformed or panics is skipped and
// reported, and the remaining entries still load.
package chipset

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"cep-go/errcode"
	"cep-go/types"

	"tinygo.org/x/drivers"
)

// BusI2C is the only bus kind chipsets are resolved on today.
const BusI2C = "i2c"

// Valid 7-bit address range; 0x00-0x07 and 0x78-0x7F are reserved.
const (
	MinAddr uint8 = 0x08
	MaxAddr uint8 = 0x77
)

// Descriptor is static chipset metadata.
type Descriptor struct {
	Name      string
	Bus       string
	Addresses []uint8
	Provides  []string
}

// Plugin is a descriptor plus optional behaviour.
type Plugin struct {
	Descriptor

	// Describe builds the capability for a resolved address. When nil a
	// default sensor capability is synthesised from the descriptor.
	Describe func(busID int, addr uint8) types.Capability

	// Identify confirms the chip by reading it while the bus is held. When
	// nil the address alone is trusted.
	Identify func(bus drivers.I2C, addr uint8) bool
}

// Capability returns the resolved capability for busID/addr.
func (p Plugin) Capability(busID int, addr uint8) types.Capability {
	if p.Describe != nil {
		return p.Describe(busID, addr)
	}
	return types.Peripheral{
		Class:    types.KindSensor,
		Chipset:  p.Name,
		Bus:      p.Bus,
		BusID:    busID,
		Address:  types.Addr(addr),
		Provides: append([]string{}, p.Provides...),
	}
}

// Entry names a plugin and how to load it. A nil Load means the plugin is
// not part of this build.
type Entry struct {
	Name string
	Load func() (Plugin, error)
}

// LoadFailure records one entry that did not load.
type LoadFailure struct {
	Name string
	Err  error
}

// Overlap is an address claimed by more than one plugin, in registration order.
type Overlap struct {
	Addr  uint8
	Names []string
}

// Registry is an immutable table of plugins indexed by address.
type Registry struct {
	plugins []Plugin
	byName  map[string]int
	byAddr  map[uint8][]int
}

// Builder accumulates plugins. It is not safe for concurrent use.
type Builder struct {
	plugins []Plugin
	byName  map[string]int
}

// Register validates p and indexes it under each of its addresses.
func (b *Builder) Register(p Plugin) error {
	if err := validate(p.Descriptor); err != nil {
		return err
	}
	if b.byName == nil {
		b.byName = map[string]int{}
	}
	if _, dup := b.byName[p.Name]; dup {
		return errcode.New(errcode.PluginLoadFailure, "register", "duplicate chipset "+p.Name, nil)
	}
	p.Addresses = append([]uint8(nil), p.Addresses...)
	p.Provides = append([]string(nil), p.Provides...)
	b.byName[p.Name] = len(b.plugins)
	b.plugins = append(b.plugins, p)
	return nil
}

// Build freezes the registered plugins.
func (b *Builder) Build() *Registry {
	r := &Registry{
		plugins: append([]Plugin(nil), b.plugins...),
		byName:  make(map[string]int, len(b.plugins)),
		byAddr:  map[uint8][]int{},
	}
	for i, p := range r.plugins {
		r.byName[p.Name] = i
		for _, a := range p.Addresses {
			r.byAddr[a] = append(r.byAddr[a], i)
		}
	}
	return r
}

func validate(d Descriptor) error {
	if d.Name == "" {
		return errcode.New(errcode.PluginLoadFailure, "validate", "empty name", nil)
	}
	if d.Bus != BusI2C {
		return errcode.New(errcode.PluginLoadFailure, "validate", fmt.Sprintf("%s: unsupported bus %q", d.Name, d.Bus), nil)
	}
	if len(d.Addresses) == 0 {
		return errcode.New(errcode.PluginLoadFailure, "validate", d.Name+": no addresses", nil)
	}
	seen := map[uint8]bool{}
	for _, a := range d.Addresses {
		if a < MinAddr || a > MaxAddr {
			return errcode.New(errcode.PluginLoadFailure, "validate", fmt.Sprintf("%s: address 0x%02x out of range", d.Name, a), nil)
		}
		if seen[a] {
			return errcode.New(errcode.PluginLoadFailure, "validate", fmt.Sprintf("%s: address 0x%02x listed twice", d.Name, a), nil)
		}
		seen[a] = true
	}
	return nil
}

// Load builds a registry from entries in order. Failures are logged, returned
// and otherwise ignored.
func Load(entries []Entry, log *slog.Logger) (*Registry, []LoadFailure) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var (
		b     Builder
		fails []LoadFailure
	)
	for _, e := range entries {
		p, err := loadOne(e)
		if err == nil {
			err = b.Register(p)
		}
		if err != nil {
			log.Warn("chipset plugin skipped", "plugin", e.Name, "code", errcode.Of(err), "err", err)
			fails = append(fails, LoadFailure{Name: e.Name, Err: err})
			continue
		}
		log.Debug("chipset plugin loaded", "plugin", p.Name, "addresses", len(p.Addresses))
	}
	r := b.Build()
	for _, o := range r.Overlaps() {
		log.Info("chipset address shared", "addr", types.Addr(o.Addr).String(), "plugins", o.Names, "resolves_to", o.Names[0])
	}
	return r, fails
}

func loadOne(e Entry) (p Plugin, err error) {
	if e.Load == nil {
		return Plugin{}, errcode.New(errcode.PluginLoadFailure, "load", e.Name+": not in this build", nil)
	}
	defer func() {
		if r := recover(); r != nil {
			p = Plugin{}
			err = errcode.New(errcode.PluginLoadFailure, "load", fmt.Sprintf("%s: panic: %v", e.Name, r), nil)
		}
	}()
	p, err = e.Load()
	if err != nil {
		return Plugin{}, errcode.New(errcode.PluginLoadFailure, "load", e.Name, err)
	}
	if p.Name != e.Name {
		return Plugin{}, errcode.New(errcode.PluginLoadFailure, "load", fmt.Sprintf("%s: plugin reports name %q", e.Name, p.Name), nil)
	}
	return p, nil
}

// Resolve returns the earliest-registered plugin claiming addr.
func (r *Registry) Resolve(addr uint8) (Plugin, bool) {
	idx := r.byAddr[addr]
	if len(idx) == 0 {
		return Plugin{}, false
	}
	return r.plugins[idx[0]], true
}

// Candidates returns every plugin claiming addr, in registration order.
func (r *Registry) Candidates(addr uint8) []Plugin {
	idx := r.byAddr[addr]
	out := make([]Plugin, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.plugins[i])
	}
	return out
}

// Confirm resolves addr using identity probes on a held bus. The first
// candidate that identifies, or has no Identify, wins. If every candidate
// rejects the chip, Resolve's answer is used so a claimed address still
// resolves to exactly one plugin.
func (r *Registry) Confirm(bus drivers.I2C, addr uint8) (Plugin, bool) {
	cands := r.Candidates(addr)
	if len(cands) == 0 {
		return Plugin{}, false
	}
	for _, p := range cands {
		if p.Identify == nil || identify(p, bus, addr) {
			return p, true
		}
	}
	return cands[0], true
}

func identify(p Plugin, bus drivers.I2C, addr uint8) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return p.Identify(bus, addr)
}

// Lookup finds a plugin by name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Plugin{}, false
	}
	return r.plugins[i], true
}

// Plugins returns the loaded plugins in registration order.
func (r *Registry) Plugins() []Plugin { return append([]Plugin(nil), r.plugins...) }

// Len is the number of loaded plugins.
func (r *Registry) Len() int { return len(r.plugins) }

// Overlaps lists addresses claimed by more than one plugin, ascending.
func (r *Registry) Overlaps() []Overlap {
	var out []Overlap
	for a, idx := range r.byAddr {
		if len(idx) < 2 {
			continue
		}
		o := Overlap{Addr: a}
		for _, i := range idx {
			o.Names = append(o.Names, r.plugins[i].Name)
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}
