// Package main is the entry point for the Genie MCP bridge.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fieldline-ai/genie-bridge/internal/config"
	"github.com/fieldline-ai/genie-bridge/internal/events"
	"github.com/fieldline-ai/genie-bridge/internal/genie"
	"github.com/fieldline-ai/genie-bridge/internal/middleware"
	"github.com/fieldline-ai/genie-bridge/internal/registry"
	"github.com/fieldline-ai/genie-bridge/internal/tools"
	"github.com/fieldline-ai/genie-bridge/pkg/logger"
	"github.com/fieldline-ai/genie-bridge/pkg/tracing"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	log.Info("starting genie bridge",
		zap.String("version", version),
		zap.String("transport", cfg.Transport),
	)

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "genie-bridge", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Space registry: inline JSON wins over the file path.
	var reg *registry.Registry
	if cfg.SpacesJSON != "" {
		reg, err = registry.Parse([]byte(cfg.SpacesJSON))
	} else {
		reg, err = registry.LoadFile(cfg.SpacesFile)
	}
	if err != nil {
		log.Error("failed to load space registry", zap.Error(err))
		os.Exit(1)
	}
	log.Info("space registry loaded", zap.Int("spaces", reg.Len()))

	// Optional NATS event publisher.
	var sink genie.EventSink
	var natsClient *events.Client
	if cfg.NATSURL != "" {
		natsClient, err = events.Connect(events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		publisher := events.NewPublisher(natsClient, log)
		if err := publisher.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure events stream", zap.Error(err))
			os.Exit(1)
		}
		sink = publisher
	}

	gateway := genie.NewHTTPGateway(cfg.DatabricksHost, cfg.DatabricksToken, log)
	client := genie.NewClient(gateway, reg, sink, log, genie.Options{
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
		MaxRetries:   cfg.MaxRetries,
	})

	svc := tools.NewService(client, reg, log)
	mcpSrv := tools.NewServer(svc, version)

	switch cfg.Transport {
	case config.TransportHTTP:
		serveHTTP(cfg, log, mcpSrv, natsClient)
	default:
		log.Info("serving MCP over stdio")
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			log.Error("stdio server error", zap.Error(err))
			os.Exit(1)
		}
	}
}

// serveHTTP exposes the MCP server over streamable HTTP behind the usual
// middleware chain, alongside health and metrics endpoints.
func serveHTTP(cfg *config.Config, log *logger.Logger, mcpSrv *mcpserver.MCPServer, natsClient *events.Client) {
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"Mcp-Session-Id", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// NATS is optional; only a configured-but-down connection blocks
		// readiness.
		if natsClient != nil && !natsClient.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready","reason":"NATS not connected"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(middleware.Auth(cfg.JWTSecret))
		}
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Handle("/mcp", streamable)
	})

	server := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
