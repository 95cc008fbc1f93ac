// Command fretsense runs the guitar-string detection server: it listens to
// an audio source, tracks which open string is ringing, and serves the
// result over HTTP and WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fretsense/fretsense/internal/config"
	"github.com/fretsense/fretsense/internal/health"
	"github.com/fretsense/fretsense/internal/observe"
	"github.com/fretsense/fretsense/internal/server"
	"github.com/fretsense/fretsense/internal/session"
	"github.com/fretsense/fretsense/pkg/audio"
	"github.com/fretsense/fretsense/pkg/audio/portaudio"
	"github.com/fretsense/fretsense/pkg/audio/wavfile"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "fretsense: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "fretsense: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("fretsense starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"source", cfg.Audio.Source,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry providers ───────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Audio source ──────────────────────────────────────────────────────────
	source, err := newSource(cfg)
	if err != nil {
		slog.Error("failed to open audio source", "err", err)
		return 1
	}
	defer func() {
		if err := source.Close(); err != nil {
			slog.Warn("audio source close error", "err", err)
		}
	}()

	// ── Session controller ────────────────────────────────────────────────────
	metrics := observe.DefaultMetrics()
	ctrl := session.New(session.Config{
		Interval: cfg.Session.Interval(),
		Analyzer: cfg.AnalyzerConfig(),
	}, source, metrics)

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := server.New(server.Config{
		Addr:           cfg.Server.ListenAddr,
		StreamInterval: cfg.Session.Interval(),
	}, ctrl, newHealth(cfg, ctrl), metrics)

	printStartupSummary(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if cfg.Session.Autostart {
		if err := ctrl.Start(gctx); err != nil {
			slog.Error("failed to start listening session", "err", err)
			return 1
		}
		slog.Info("listening session autostarted")
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")
	if err := ctrl.Stop(); err != nil && !errors.Is(err, session.ErrNotRunning) {
		slog.Warn("session stop error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// newSource opens the configured audio frame source.
func newSource(cfg *config.Config) (audio.FrameSource, error) {
	switch cfg.Audio.Source {
	case config.SourceWAV:
		return wavfile.New(cfg.Audio.WAVPath, cfg.Audio.FrameSize)
	default:
		return portaudio.New(cfg.Audio.SampleRate, cfg.Audio.FrameSize)
	}
}

// newHealth assembles the readiness checkers for the configured deployment.
func newHealth(cfg *config.Config, ctrl *session.Controller) *health.Handler {
	checkers := []health.Checker{
		{Name: "session", Check: func(context.Context) error {
			if cfg.Session.Autostart && !ctrl.Running() {
				return errors.New("listening loop not running")
			}
			return nil
		}},
	}
	if cfg.Audio.Source == config.SourceWAV {
		checkers = append(checkers, health.Checker{Name: "source", Check: func(context.Context) error {
			_, err := os.Stat(cfg.Audio.WAVPath)
			return err
		}})
	}
	return health.New(checkers...)
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        fretsense — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printField("Source", string(cfg.Audio.Source))
	if cfg.Audio.Source == config.SourceWAV {
		printField("WAV path", cfg.Audio.WAVPath)
	}
	printField("Sample rate", fmt.Sprintf("%d Hz", cfg.Audio.SampleRate))
	printField("Frame size", fmt.Sprintf("%d samples", cfg.Audio.FrameSize))
	printField("Interval", cfg.Session.Interval().String())
	if cfg.Session.Autostart {
		printField("Autostart", "yes")
	} else {
		printField("Autostart", "no")
	}
	printField("Listen addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printField(name, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", name, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
