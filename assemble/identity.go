package assemble

import (
	"time"

	"cep-go/types"
	"cep-go/x/conv"
	"cep-go/x/strx"
	"cep-go/x/timex"

	"github.com/Masterminds/semver/v3"
)

func (a *Assembler) identity(caps types.Capabilities) types.Device {
	dev := fallbackIdentity(a.now())
	if id, err := a.platform.UniqueID(); err == nil && len(id) > 0 {
		dev.ID = conv.Hex(id)
	} else {
		a.log.Debug("unique id unavailable", "err", err)
	}
	if len(caps.OfKind(types.KindNetwork)) > 0 {
		dev.Transport = types.TransportNetwork
	}
	dev.Model = strx.First(a.model, a.platform.Board().Name, "unknown")
	dev.Firmware = NormalizeFirmware(a.firmware)
	return dev
}

func fallbackIdentity(now time.Time) types.Device {
	return types.Device{
		ID:         types.UnknownID,
		Class:      types.ClassMicrocontroller,
		Transport:  types.TransportUSB,
		Model:      "unknown",
		Firmware:   "unknown",
		ReportedAt: timex.UTCStamp(now),
	}
}

// NormalizeFirmware renders semantic versions canonically ("v1.2" becomes
// "1.2.0") and keeps anything else verbatim.
func NormalizeFirmware(v string) string {
	if v == "" {
		return "unknown"
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return v
	}
	return sv.String()
}
