// Package probe holds the feature detectors that run after the bus scan.
// Each returns (capability, true) when it found something and (nil, false)
// otherwise; no probe returns an error or lets a panic escape.
package probe

import (
	"fmt"
	"io"
	"log/slog"

	"cep-go/errcode"
	"cep-go/types"
)

// Safe runs fn and converts a panic into a miss.
func Safe(log *slog.Logger, name string, fn func() (types.Capability, bool)) (c types.Capability, ok bool) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("probe failed", "probe", name, "code", errcode.Error, "err", fmt.Sprint(r))
			c, ok = nil, false
		}
	}()
	c, ok = fn()
	if ok && c == nil {
		ok = false
	}
	log.Debug("probe done", "probe", name, "found", ok)
	return c, ok
}
