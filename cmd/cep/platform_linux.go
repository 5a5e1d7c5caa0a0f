//go:build linux && !tinygo

package main

import (
	"cep-go/hal"
	"cep-go/hal/boards"
	"cep-go/hal/platform/linux"
)

func hostPlatform(b boards.Board) (hal.Platform, error) { return linux.New(b), nil }
