//go:build !tinygo

package boards

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// LoadFile reads one YAML board descriptor.
func LoadFile(path string) (Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Board{}, fmt.Errorf("read board file: %w", err)
	}
	var b Board
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Board{}, fmt.Errorf("parse board file %s: %w", path, err)
	}
	if b.Name == "" {
		b.Name = trimExt(filepath.Base(path))
	}
	return b.WithDefaults(), nil
}

// LoadDir reads every *.yaml / *.yml descriptor under dir, keyed by name.
// Built-ins are included unless a file overrides them.
func LoadDir(dir string) (map[string]Board, error) {
	out := make(map[string]Board, len(builtin))
	for name := range builtin {
		b, _ := Lookup(name)
		out[name] = b
	}
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.{yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("glob board files: %w", err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		b, err := LoadFile(filepath.Join(dir, m))
		if err != nil {
			return nil, err
		}
		out[b.Name] = b
	}
	return out, nil
}

func trimExt(s string) string {
	return s[:len(s)-len(filepath.Ext(s))]
}
