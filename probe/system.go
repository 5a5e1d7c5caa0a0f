package probe

import (
	"cep-go/hal"
	"cep-go/types"
	"cep-go/x/conv"
	"cep-go/x/strx"
)

// Storage reports the volume mounted at mount ("" uses the board's mount).
func Storage(p hal.Platform, mount string) (types.Capability, bool) {
	b := p.Board()
	mount = strx.First(mount, b.Storage.Mount, "/")
	st, err := p.FilesystemStats(mount)
	if err != nil {
		return nil, false
	}
	return types.Storage{
		StorageKind: strx.First(b.Storage.Kind, "flash"),
		Label:       strx.First(st.Label, b.Storage.Label),
		TotalKB:     st.BlockSize * st.TotalBlocks / 1024,
		FreeKB:      st.BlockSize * st.FreeBlocks / 1024,
	}, true
}

// Network reports the wireless interface. The MAC is always present when the
// hardware is; address, SSID and signal only while associated.
func Network(p hal.Platform) (types.Capability, bool) {
	ws, err := p.WirelessStatus()
	if err != nil {
		return nil, false
	}
	iface := types.Interface{Kind: "wifi", MAC: conv.MAC(ws.MAC)}
	if ws.Connected {
		iface.IP = ws.IP
		iface.SSID = ws.SSID
		if ws.HasRSSI {
			rssi := ws.RSSI
			iface.RSSIdB = &rssi
		}
	}
	return types.Network{Interfaces: []types.Interface{iface}}, true
}
