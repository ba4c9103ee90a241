// Command relaybrokerd runs the line-delimited pub/sub broker: parse the
// listen port, construct the engine and its optional admin HTTP server,
// run until SIGINT/SIGTERM, then exit.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/axmq/relaybroker/internal/config"
	"github.com/axmq/relaybroker/internal/engine"
	"github.com/axmq/relaybroker/internal/hook"
	"github.com/axmq/relaybroker/internal/metrics"
	"github.com/axmq/relaybroker/internal/network"
	"github.com/axmq/relaybroker/internal/store"
	"github.com/axmq/relaybroker/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.New()
	if err := cfg.ParseFlags(args); err != nil {
		fmt.Fprintln(os.Stderr, "relaybrokerd:", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "relaybrokerd:", err)
		return 1
	}

	log := logger.New(parseLevel(cfg.LogLevel))

	reg := metrics.NewRegistry()
	hooks := hook.NewManager()
	e := engine.New(log, reg, hooks, cfg.LostTimeout, cfg.SweepInterval)

	addr := fmt.Sprintf(":%d", cfg.Port)
	listener := network.NewListener(addr, e.AcceptHandler())
	if err := listener.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "relaybrokerd:", err)
		return 1
	}
	defer listener.Close()

	go e.Run(listener.Addr().String())

	sampler := metrics.NewSystemSampler(reg)
	history := metrics.NewHistory(store.NewMemoryStore[metrics.Snapshot](), 500)
	samplerStop := make(chan struct{})
	go sampler.Run(5*time.Second, samplerStop)
	go recordHistory(history, e, samplerStop)

	var admin *http.Server
	if cfg.MetricsAddr != "" {
		admin = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: metrics.NewAdminServer(reg, e.Snapshot, history),
		}
		go func() {
			if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("admin server error", "err", err)
			}
		}()
		log.Info("admin server listening", "addr", cfg.MetricsAddr)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	close(samplerStop)
	e.Stop()

	if admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = admin.Shutdown(ctx)
	}

	return 0
}

// recordHistory periodically snapshots the engine into history, on its
// own goroutine so /stats/history has a trend to show without the
// engine's own event loop ever blocking on it.
func recordHistory(history *metrics.History, e *engine.Engine, stop <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			history.Record(e.Snapshot())
		case <-stop:
			return
		}
	}
}

func parseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
