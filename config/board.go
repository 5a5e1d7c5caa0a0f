//go:build !tinygo

package config

import (
	"cep-go/errcode"
	"cep-go/hal/boards"
)

// ResolveBoard picks the board descriptor the configuration names. The
// fallback is used when nothing is named.
func (c Config) ResolveBoard(fallback string) (boards.Board, error) {
	if c.BoardFile != "" {
		return boards.LoadFile(c.BoardFile)
	}
	name := c.Board
	if name == "" {
		name = fallback
	}
	if c.BoardDir != "" {
		all, err := boards.LoadDir(c.BoardDir)
		if err != nil {
			return boards.Board{}, err
		}
		if b, ok := all[name]; ok {
			return b, nil
		}
	} else if b, ok := boards.Lookup(name); ok {
		return b, nil
	}
	return boards.Board{}, errcode.New(errcode.InvalidParams, "config", "unknown board "+name, nil)
}
