package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/obsidianstack/composite/agent/internal/auth"
	"github.com/obsidianstack/composite/agent/internal/backend"
	"github.com/obsidianstack/composite/agent/internal/config"
	"github.com/obsidianstack/composite/agent/internal/runner"
	"github.com/obsidianstack/composite/agent/internal/status"
	"github.com/obsidianstack/composite/agent/internal/telemetry"
)

const (
	serviceName = "composite-agent"
	version     = "0.1.0"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run every composite once and exit; non-zero exit if any failed")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("composite-agent starting", "config", *configPath, "once", *once)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"backend", cfg.Backend.Type,
		"composites", len(cfg.Composites),
		"concurrency", cfg.Concurrency,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, serviceName, version)
	if err != nil {
		slog.Error("failed to init tracing", "err", err)
		os.Exit(1)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Warn("tracing shutdown", "err", err)
		}
	}()

	if *once {
		if err := runOnce(ctx, cfg); err != nil {
			slog.Error("one-shot run failed", "err", err)
			cancel()
			os.Exit(1)
		}
		slog.Info("one-shot run complete", "composites", len(cfg.Composites))
		return
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	st := status.New(cfg.StatusTTL)
	go st.Run(ctx)
	hub := status.NewHub(st, cfg.StreamInterval)
	go hub.Run(ctx)

	build := func(ctx context.Context, c *config.Config) (*runner.Runner, error) {
		client, err := backend.New(ctx, c.Backend)
		if err != nil {
			return nil, err
		}
		return runner.New(c, client,
			runner.WithMetrics(metrics),
			runner.WithStatus(st),
			runner.WithLogger(slog.Default()),
		)
	}
	sup := runner.NewSupervisor(build, func(name string) {
		metrics.Forget(name)
		st.Remove(name)
		slog.Info("composite removed", "composite", name)
	})

	if err := sup.Apply(ctx, cfg); err != nil {
		slog.Error("failed to start composites", "err", err)
		os.Exit(1)
	}
	if len(cfg.Composites) == 0 {
		slog.Warn("no composites configured, agent will idle")
	}

	// Listen settings are read once; a reload only swaps the composites.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			if updated.HTTPPort != cfg.HTTPPort || updated.APIAuth != cfg.APIAuth ||
				updated.StreamInterval != cfg.StreamInterval {
				slog.Warn("listen and stream settings only change on restart")
			}
			if err := sup.Apply(ctx, updated); err != nil {
				slog.Error("config reload rejected, keeping previous composites", "err", err)
			}
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           newMux(cfg, metrics, st, hub),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("composite-agent shutting down")

	sup.Stop()
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		slog.Warn("http server shutdown", "err", err)
	}
}

// runOnce backs the -once flag.
func runOnce(ctx context.Context, cfg *config.Config) error {
	client, err := backend.New(ctx, cfg.Backend)
	if err != nil {
		return err
	}
	r, err := runner.New(cfg, client)
	if err != nil {
		return err
	}
	return r.RunOnce(ctx)
}

func newMux(cfg *config.Config, metrics *telemetry.Metrics, st *status.Store, hub *status.Hub) http.Handler {
	protect := auth.APIKey(cfg.APIAuth.Mode, cfg.APIAuth.Header, cfg.APIAuth.Key())

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/api/v1/stream", protect(hub))
	mux.Handle("/api/v1/", protect(status.NewHandler(st)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
