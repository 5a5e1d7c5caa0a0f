//go:build linux && !tinygo

// Package linux is the runtime adapter for Linux single-board computers.
// Buses are /dev/i2c-N character devices; identity, clock, memory,
// storage and wireless state come from sysfs, procfs and statfs.
package linux

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"io/fs"
	"net"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"cep-go/errcode"
	"cep-go/hal"
	"cep-go/hal/boards"
	"cep-go/types"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jaypipes/ghw"
	"golang.org/x/sys/unix"
)

// Platform implements hal.Platform and hal.MemoryInfo.
type Platform struct {
	board boards.Board

	// Filesystem roots, replaceable in tests.
	Dev  fs.FS
	Sys  fs.FS
	Proc fs.FS
	Etc  fs.FS

	// DevDir is where bus device nodes are opened.
	DevDir string

	// Radio supplies SSID and signal; /proc/net/wireless is the signal fallback.
	Radio Radio
	// IPv4 returns an interface's first IPv4 address, or "".
	IPv4 func(iface string) string

	mu   sync.Mutex
	held map[int]bool
}

var (
	_ hal.Platform   = (*Platform)(nil)
	_ hal.MemoryInfo = (*Platform)(nil)
)

// New returns a platform for board b on the running system.
func New(b boards.Board) *Platform {
	return &Platform{
		board:  b.WithDefaults(),
		Dev:    os.DirFS("/dev"),
		Sys:    os.DirFS("/sys"),
		Proc:   os.DirFS("/proc"),
		Etc:    os.DirFS("/etc"),
		DevDir: "/dev",
		Radio:  nl80211{},
		IPv4:   ifaceIPv4,
		held:   map[int]bool{},
	}
}

// Board returns the descriptor. A board that declares no buses gets one
// per /dev/i2c-N node. Its pins come from board pins named SDA<n> and SCL<n>,
// else types.NoPin.
func (p *Platform) Board() boards.Board {
	b := p.board
	if len(b.I2C) == 0 {
		for _, id := range p.busIDs() {
			n := strconv.Itoa(id)
			b.I2C = append(b.I2C, boards.Bus{ID: id, SDA: pinOr(b, "SDA"+n), SCL: pinOr(b, "SCL"+n), FreqHz: boards.DefaultFreqHz})
		}
	}
	return b
}

func pinOr(b boards.Board, name string) int {
	if pin, ok := b.Pin(name); ok {
		return pin
	}
	return types.NoPin
}

func (p *Platform) busIDs() []int {
	matches, err := doublestar.Glob(p.Dev, "i2c-*")
	if err != nil {
		return nil
	}
	var ids []int
	for _, m := range matches {
		if id, err := strconv.Atoi(strings.TrimPrefix(m, "i2c-")); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func (p *Platform) NamedPins() map[string]int {
	if !p.board.Declarative {
		return nil
	}
	return p.board.Pins
}

func (p *Platform) OpenI2C(cfg hal.BusConfig) (hal.I2CBus, error) {
	p.mu.Lock()
	if p.held[cfg.ID] {
		p.mu.Unlock()
		return nil, errcode.New(errcode.Busy, "i2c open", "bus "+strconv.Itoa(cfg.ID)+" held", nil)
	}
	p.held[cfg.ID] = true
	p.mu.Unlock()

	dev := path.Join(p.DevDir, "i2c-"+strconv.Itoa(cfg.ID))
	fd, err := unix.Open(dev, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		p.unhold(cfg.ID)
		return nil, errcode.New(errcode.BusUnavailable, "i2c open", dev, err)
	}
	release := func() error {
		defer p.unhold(cfg.ID)
		return unix.Close(fd)
	}
	return hal.Own(&devBus{fd: fd}, 0, release), nil
}

func (p *Platform) unhold(id int) {
	p.mu.Lock()
	delete(p.held, id)
	p.mu.Unlock()
}

// UniqueID is the systemd machine id, falling back to the DMI product uuid.
func (p *Platform) UniqueID() ([]byte, error) {
	if b, err := fs.ReadFile(p.Etc, "machine-id"); err == nil {
		if id, err := hex.DecodeString(string(bytes.TrimSpace(b))); err == nil && len(id) > 0 {
			return id, nil
		}
	}
	if b, err := fs.ReadFile(p.Sys, "class/dmi/id/product_uuid"); err == nil {
		if id, err := hex.DecodeString(strings.ReplaceAll(string(bytes.TrimSpace(b)), "-", "")); err == nil && len(id) > 0 {
			return id, nil
		}
	}
	return nil, errcode.HardwareAbsent
}

// ClockHz is cpu0's maximum frequency.
func (p *Platform) ClockHz() (uint32, error) {
	b, err := fs.ReadFile(p.Sys, "devices/system/cpu/cpu0/cpufreq/cpuinfo_max_freq")
	if err != nil {
		return 0, errcode.New(errcode.HardwareAbsent, "clock", "", err)
	}
	khz, err := strconv.ParseUint(string(bytes.TrimSpace(b)), 10, 32)
	if err != nil {
		return 0, errcode.New(errcode.HardwareAbsent, "clock", "", err)
	}
	return uint32(khz * 1000), nil
}

// MemoryKB reports physical RAM. Linux boards have no flash in the
// microcontroller sense; storage is reported by FilesystemStats.
func (p *Platform) MemoryKB() (uint32, uint32, error) {
	mem, err := ghw.Memory()
	if err != nil {
		return 0, 0, errcode.New(errcode.HardwareAbsent, "memory", "", err)
	}
	if mem.TotalPhysicalBytes <= 0 {
		return 0, 0, errcode.HardwareAbsent
	}
	return uint32(mem.TotalPhysicalBytes / 1024), 0, nil
}

func (p *Platform) FilesystemStats(mount string) (hal.FSStats, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(mount, &st); err != nil {
		return hal.FSStats{}, errcode.New(errcode.HardwareAbsent, "statfs", mount, err)
	}
	return hal.FSStats{
		BlockSize:   uint64(st.Bsize),
		TotalBlocks: st.Blocks,
		FreeBlocks:  st.Bavail,
		Label:       p.board.Storage.Label,
	}, nil
}

// WirelessStatus reports the first interface with a wireless directory in
// sysfs. SSID and signal are added only while the link is up with an address.
func (p *Platform) WirelessStatus() (hal.WirelessStatus, error) {
	name, ok := p.wirelessIface()
	if !ok {
		return hal.WirelessStatus{}, errcode.HardwareAbsent
	}
	var ws hal.WirelessStatus
	if b, err := fs.ReadFile(p.Sys, "class/net/"+name+"/address"); err == nil {
		if mac, err := net.ParseMAC(string(bytes.TrimSpace(b))); err == nil {
			ws.MAC = mac
		}
	}
	oper, _ := fs.ReadFile(p.Sys, "class/net/"+name+"/operstate")
	if string(bytes.TrimSpace(oper)) == "up" && p.IPv4 != nil {
		ws.IP = p.IPv4(name)
		ws.Connected = ws.IP != ""
	}
	if ws.Connected {
		if p.Radio != nil {
			if l, err := p.Radio.Link(name); err == nil {
				ws.SSID = l.SSID
				ws.RSSI, ws.HasRSSI = l.RSSI, l.HasRSSI
			}
		}
		if !ws.HasRSSI {
			ws.RSSI, ws.HasRSSI = p.signal(name)
		}
	}
	if ws.MAC == nil {
		return hal.WirelessStatus{}, errcode.HardwareAbsent
	}
	return ws, nil
}

func (p *Platform) wirelessIface() (string, bool) {
	matches, err := doublestar.Glob(p.Sys, "class/net/*/wireless")
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return path.Base(path.Dir(matches[0])), true
}

// signal reads the level column of /proc/net/wireless.
func (p *Platform) signal(name string) (int, bool) {
	f, err := p.Proc.Open("net/wireless")
	if err != nil {
		return 0, false
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || strings.TrimSuffix(fields[0], ":") != name {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(fields[3], "."), 64)
		if err != nil {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

func ifaceIPv4(name string) string {
	ifc, err := net.InterfaceByName(name)
	if err != nil {
		return ""
	}
	addrs, err := ifc.Addrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		if n, ok := a.(*net.IPNet); ok && n.IP.To4() != nil {
			return n.IP.String()
		}
	}
	return ""
}
