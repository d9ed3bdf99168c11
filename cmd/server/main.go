package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Olprog59/go-noticegen/internal/app"
	"github.com/Olprog59/go-noticegen/internal/config"
	"github.com/Olprog59/go-noticegen/internal/logging"
	"github.com/Olprog59/go-noticegen/internal/transport/web"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// main is the application entry point / Point d'entrée de l'application
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run initializes and starts the HTTP server / Initialise et démarre le serveur HTTP
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	closeLogger := setupLogger(cfg)
	defer closeLogger()

	logStartupInfo(cfg)

	// Initialize container with all dependencies
	container, err := app.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	mw := web.NewMiddleware(cfg, container.Metrics, container.EditorAuth)
	defer mw.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      web.NewMux(web.NewHandler(container), mw),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}

// logStartupInfo displays startup information / Affiche les informations de démarrage
func logStartupInfo(conf *config.Config) {
	slog.Info("🚀 Starting noticegen",
		"environment", conf.Environment,
		"port", conf.Server.Port,
		"session_store", conf.Database.Type,
		"session_ttl", conf.Session.TTL,
		"max_body", humanize.IBytes(uint64(max(conf.Server.MaxBodyBytes, 0))),
	)
	slog.Debug("effective configuration",
		"session", conf.Session,
		"security", conf.Security,
	)

	if conf.RateLimiter.Enabled {
		slog.Info("🛡️  Rate limiter enabled",
			"global_rps", conf.RateLimiter.RPS,
			"global_burst", conf.RateLimiter.Burst,
		)
	} else {
		slog.Warn("⚠️  Rate limiter is DISABLED")
	}

	slog.Info("🔗 CMS links",
		"client_service_centre", conf.CMS.ClientServiceCentre.Href,
		"correspondence_procedures", conf.CMS.CorrespondenceProcedures.Href,
		"alert_link", conf.CMS.AlertTarget.Href,
	)
}

// setupLogger configures structured logger / Configure le logger structuré
//
// The returned func flushes pending Loki batches.
func setupLogger(conf *config.Config) func() {
	level := logging.ParseLevel(conf.Logging.Level)

	var consoleHandler slog.Handler
	if strings.ToLower(conf.Logging.Format) == "json" {
		consoleHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:       level,
			AddSource:   conf.IsProduction(),
			ReplaceAttr: logging.Redact(),
		})
	} else {
		consoleHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: logging.Redact(),
		})
	}

	if !conf.Logging.LokiEnabled {
		slog.SetDefault(slog.New(consoleHandler))
		slog.Info("📊 Logging configured",
			"level", level.String(),
			"format", conf.Logging.Format,
			"loki_enabled", false,
		)
		return func() {}
	}

	lokiHandler := logging.NewLokiHandler(
		conf.Logging.LokiURL,
		conf.Logging.LokiLabels,
		conf.Logging.LokiBatchSize,
		true,
		level,
	)
	slog.SetDefault(slog.New(logging.NewMultiHandler(consoleHandler, lokiHandler)))

	slog.Info("📊 Logging configured",
		"level", level.String(),
		"format", conf.Logging.Format,
		"loki_enabled", true,
		"loki_url", conf.Logging.LokiURL,
	)

	return func() {
		if err := lokiHandler.Close(); err != nil {
			log.Printf("loki flush failed: %v", err)
		}
	}
}
