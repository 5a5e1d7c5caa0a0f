//go:build linux && !tinygo

package linux

import (
	"cep-go/errcode"

	"github.com/mdlayher/wifi"
)

// Link is the association state of one wireless interface.
type Link struct {
	SSID    string
	RSSI    int
	HasRSSI bool
}

// Radio reports association state for a named interface.
type Radio interface {
	Link(iface string) (Link, error)
}

// nl80211 queries the kernel over generic netlink.
type nl80211 struct{}

func (nl80211) Link(name string) (Link, error) {
	c, err := wifi.New()
	if err != nil {
		return Link{}, errcode.New(errcode.HardwareAbsent, "nl80211", "", err)
	}
	defer c.Close()

	ifis, err := c.Interfaces()
	if err != nil {
		return Link{}, errcode.New(errcode.HardwareAbsent, "nl80211", "interfaces", err)
	}
	for _, ifi := range ifis {
		if ifi.Name != name {
			continue
		}
		var l Link
		// BSS fails when the interface is not associated.
		if bss, err := c.BSS(ifi); err == nil {
			l.SSID = bss.SSID
		}
		if sts, err := c.StationInfo(ifi); err == nil && len(sts) > 0 {
			l.RSSI, l.HasRSSI = sts[0].Signal, true
		}
		return l, nil
	}
	return Link{}, errcode.New(errcode.HardwareAbsent, "nl80211", name, nil)
}
