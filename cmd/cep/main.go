// Package main is the cep agent: it enumerates this machine's hardware
// capabilities and registers them with a JumpNet coordinator.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"cep-go/chipset"
	"cep-go/chipset/builtin"
	"cep-go/config"
	"cep-go/hal"
	"cep-go/hal/boards"
	"cep-go/hal/platform/sim"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.3.0"
	BuildTime = "dev"
)

const appName = "cep"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globals are the persistent flags.
type globals struct {
	configPath string
	logLevel   string
	board      string
	sim        bool
}

func rootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Capability enumeration agent",
		Long: `cep scans this machine's buses and on-board features, builds a
capability document and registers it with a JumpNet coordinator.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.board, "board", "", "Board descriptor name, overrides config")
	cmd.PersistentFlags().BoolVar(&g.sim, "sim", false, "Use the simulated desktop platform")

	cmd.AddCommand(
		enumerateCmd(g),
		registerCmd(g),
		watchCmd(g),
		schemaCmd(),
		validateCmd(),
		chipsetsCmd(),
		boardsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

// env is everything a command needs, built from flags and config.
type env struct {
	cfg      config.Config
	log      *slog.Logger
	platform hal.Platform
	registry *chipset.Registry
}

func (g *globals) load(stderr io.Writer) (*env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.board != "" {
		cfg.Board = g.board
		cfg.BoardFile = ""
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := newLogger(stderr, cfg.LogLevel)

	var p hal.Platform
	if g.sim {
		p = sim.Desktop()
	} else {
		b, err := hostBoard(cfg)
		if err != nil {
			return nil, err
		}
		if p, err = hostPlatform(b); err != nil {
			return nil, err
		}
	}

	reg, fails := builtin.Load(log)
	log.Debug("registry loaded", "plugins", reg.Len(), "skipped", len(fails))
	return &env{cfg: cfg, log: log, platform: p, registry: reg}, nil
}

// hostBoard resolves the configured board, or describes the bare host.
func hostBoard(cfg config.Config) (boards.Board, error) {
	if cfg.Board != "" || cfg.BoardFile != "" {
		return cfg.ResolveBoard("")
	}
	b := boards.Board{Name: runtime.GOOS + "-" + runtime.GOARCH}
	b.Storage.Kind = "disk"
	return b.WithDefaults(), nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
