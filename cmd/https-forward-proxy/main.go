package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"https-forward-proxy/internal/client"
	"https-forward-proxy/internal/config"
	"https-forward-proxy/internal/handler"
	"https-forward-proxy/internal/metrics"
	"https-forward-proxy/internal/server"
	"https-forward-proxy/internal/service"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("https-forward-proxy"),
		kong.Description("Plain HTTP to HTTPS forwarding proxy for legacy clients."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With("component", "fx")}
		}),
		fx.Provide(
			func() *config.CLI { return &cli },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			newLogger,
			metrics.New,
			server.NewEcho,
			newServer,
			client.NewUpstreamClient,
			service.NewForwardService,
			handler.NewForwardHandler,
			handler.NewHealthHandler,
		),
		fx.Invoke(handler.RegisterRoutes, logConfigSource, startServer),
	).Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		h = slog.NewJSONHandler(os.Stdout, opts)
	default:
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(h)
}

func newServer(e *echo.Echo, logger *slog.Logger) *server.Server {
	return server.New(e, config.ListenAddr, logger)
}

func logConfigSource(cfg *config.Config, logger *slog.Logger) {
	if cfg.FilePath() == "" {
		logger.Info("no config file found; using defaults")
		return
	}
	logger.Info("loaded config", "path", cfg.FilePath())
}

// startServer ties the listener to the fx lifecycle. fx stops the app on
// SIGINT/SIGTERM and the process exits 0 after Stop returns.
func startServer(lc fx.Lifecycle, s *server.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
}
