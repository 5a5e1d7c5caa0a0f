package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"cep-go/assemble"
	"cep-go/bus"
	"cep-go/chipset/builtin"
	"cep-go/config"
	"cep-go/errcode"
	"cep-go/hal/boards"
	"cep-go/metrics"
	"cep-go/schema"
	"cep-go/services/cep"
	svcconfig "cep-go/services/config"
	"cep-go/services/heartbeat"
	"cep-go/transport"
	"cep-go/types"

	"github.com/spf13/cobra"
)

func (e *env) assembler(opts ...assemble.Option) *assemble.Assembler {
	all := append(cep.Options(e.cfg), assemble.WithLogger(e.log))
	if e.cfg.Firmware == "" {
		all = append(all, assemble.WithFirmware(Version))
	}
	return assemble.New(e.platform, e.registry, append(all, opts...)...)
}

func enumerateCmd(g *globals) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "enumerate",
		Short: "Print this machine's capability document",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			doc := e.assembler().Enumerate(cmd.Context())
			b, err := types.Encode(doc)
			if err != nil {
				return err
			}
			if pretty {
				var out any
				if err := json.Unmarshal(b, &out); err != nil {
					return err
				}
				if b, err = json.MarshalIndent(out, "", "  "); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the output")
	return cmd
}

func registerCmd(g *globals) *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Enumerate once and register with the coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if endpoint != "" {
				e.cfg.Endpoint = endpoint
			}
			d, err := transport.For(e.cfg.Endpoint, e.log)
			if err != nil {
				return err
			}
			doc := e.assembler().Enumerate(cmd.Context())
			if !d.Deliver(cmd.Context(), doc, e.cfg.Endpoint) {
				return errcode.New(errcode.TransportFailure, "register", e.cfg.Endpoint, nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s with %s\n", doc.Device.ID, e.cfg.Endpoint)
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Coordinator endpoint, overrides config")
	return cmd
}

func watchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Register on an interval, reloading config on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runWatch(ctx, e, g.configPath)
		},
	}
}

func runWatch(ctx context.Context, e *env, configPath string) error {
	m := metrics.New()
	if e.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: e.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.log.Error("metrics server failed", "addr", e.cfg.MetricsAddr, "err", err)
			}
		}()
		defer srv.Close()
		e.log.Info("metrics listening", "addr", e.cfg.MetricsAddr)
	}

	b := bus.NewBus(8)

	cfgSvc := svcconfig.NewConfigService(e.log)
	if configPath != "" {
		updates := make(chan config.Config, 1)
		err := config.Watch(ctx, configPath, e.log, func(c config.Config) {
			select {
			case updates <- c:
			case <-ctx.Done():
			}
		})
		if err != nil {
			e.log.Warn("config watch disabled", "path", configPath, "err", err)
		} else {
			cfgSvc.Updates = updates
		}
	}

	cepSvc := &cep.Service{
		Platform: e.platform,
		Registry: e.registry,
		Log:      e.log,
		Observer: m,
		Wrap:     m.Deliverer,
	}
	if err := (&heartbeat.Service{Log: e.log}).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		return err
	}
	if err := cepSvc.Start(ctx, b.NewConnection("cep")); err != nil {
		return err
	}

	cfg := e.cfg
	if cfg.Firmware == "" {
		cfg.Firmware = Version
	}
	cfgSvc.Start(ctx, b.NewConnection("config"), cfg)

	mon := b.NewConnection("monitor").Subscribe(cep.TopicDelivery)
	for {
		select {
		case <-ctx.Done():
			e.log.Info("shutting down")
			return nil
		case msg, ok := <-mon.Channel():
			if !ok {
				return nil
			}
			if d, ok := msg.Payload.(cep.Delivery); ok && !d.OK {
				e.log.Warn("registration not accepted; will retry on next tick", "endpoint", d.Endpoint)
			}
		}
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the capability document JSON Schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := schema.JSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a capability document (stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				b   []byte
				err error
			)
			if len(args) == 0 || args[0] == "-" {
				b, err = io.ReadAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			if err := schema.Validate(b); err != nil {
				return err
			}
			doc, err := types.Decode(b)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			if n := len(doc.Capabilities) - len(doc.Capabilities.Known()); n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "ignored %d capabilities of unknown type\n", n)
			}
			return nil
		},
	}
}

func boardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List the built-in board descriptors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDECLARATIVE\tBUSES\tSTORAGE")
			for _, name := range boards.Names() {
				b, _ := boards.Lookup(name)
				fmt.Fprintf(w, "%s\t%t\t%d\t%s\n", b.Name, b.Declarative, len(b.I2C), b.Storage.Kind)
			}
			return w.Flush()
		},
	}
}

func chipsetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chipsets",
		Short: "List the chipset plugins compiled into this build",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(io.Discard, "error")
			reg, fails := builtin.Load(log)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBUS\tADDRESSES\tPROVIDES")
			for _, p := range reg.Plugins() {
				addrs := ""
				for i, a := range p.Addresses {
					if i > 0 {
						addrs += ","
					}
					addrs += types.Addr(a).String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", p.Name, p.Bus, addrs, p.Provides)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, o := range reg.Overlaps() {
				fmt.Fprintf(cmd.OutOrStdout(), "shared %s: %v (default %s)\n", types.Addr(o.Addr).String(), o.Names, o.Names[0])
			}
			sort.Slice(fails, func(i, j int) bool { return fails[i].Name < fails[j].Name })
			for _, f := range fails {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped %s: %v\n", f.Name, f.Err)
			}
			return nil
		},
	}
}
