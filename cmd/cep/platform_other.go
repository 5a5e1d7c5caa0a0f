//go:build !linux && !tinygo

package main

import (
	"runtime"

	"cep-go/errcode"
	"cep-go/hal"
	"cep-go/hal/boards"
)

func hostPlatform(boards.Board) (hal.Platform, error) {
	return nil, errcode.New(errcode.HardwareAbsent, "platform", "no hardware adapter for "+runtime.GOOS+"; use --sim", nil)
}
