package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vango-dev/keyedlist/internal/config"
	klerrors "github.com/vango-dev/keyedlist/internal/errors"
	"github.com/vango-dev/keyedlist/pkg/cell"
	"github.com/vango-dev/keyedlist/pkg/dom"
	"github.com/vango-dev/keyedlist/pkg/keyed"
	"github.com/vango-dev/keyedlist/pkg/live"
	"github.com/vango-dev/keyedlist/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		port     int
		host     string
		key      string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve <script.json>",
		Short: "Stream a replayed script to browsers",
		Long: `Serve replays a script in a loop and streams every change of the
list to connected browsers over WebSocket.

Reconciliation metrics are served at the configured metrics path.

Examples:
  keyedlist serve todo.json
  keyedlist serve todo.json --port=8080 --interval=250ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if interval > 0 {
				cfg.Replay.Interval = interval.String()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, args[0], key)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from keyedlist.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from keyedlist.json)")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Item field used as the key (default from script)")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Pause between steps (default from keyedlist.json)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, path, key string) error {
	script, err := loadScript(path)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	root := dom.NewElement("ul")
	lc := live.Config{
		Title:       "keyedlist: " + path,
		Logger:      logger,
		MetricsPath: cfg.Metrics.Path,
	}

	var observers []keyed.Option
	if cfg.MetricsEnabled() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		lc.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		observers = append(observers, keyed.WithObserver(telemetry.NewMetrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithRegistry(reg),
		)))
	}
	if cfg.Tracing.Enabled {
		observers = append(observers, keyed.WithObserver(telemetry.NewTracing(
			telemetry.WithTracerName(cfg.Tracing.TracerName),
		)))
	}
	srv := live.NewServer(root, lc)

	src := cell.New(script.Steps[0])
	opts := append([]keyed.Option{
		keyed.WithName("serve"),
		keyed.WithLogger(logger),
		keyed.WithObserver(srv),
		keyed.WithErrorHandler(func(err error) {
			logger.Error("reconcile failed", "error", klerrors.FromError(err, "E002").FormatCompact())
		}),
	}, observers...)
	opts = append(opts, keyOption(key, script, cfg.Replay.Key)...)
	r, err := keyed.New[any](src, renderItem, opts...)
	if err != nil {
		return err
	}
	defer r.Dispose()
	srv.Mutate(func() { r.Mount(root) })

	go replayLoop(ctx, src, script.Steps, cfg.Interval())

	out := cmd.OutOrStdout()
	success(out, "Serving %s", cfg.URL())
	if cfg.MetricsEnabled() {
		info(out, "metrics at %s%s", cfg.URL(), cfg.Metrics.Path)
	}
	return srv.Run(ctx, cfg.Address())
}

// replayLoop cycles through steps until ctx is done.
func replayLoop(ctx context.Context, src *cell.Cell[[]any], steps [][]any, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i = (i + 1) % len(steps)
			src.Set(steps[i])
		}
	}
}
