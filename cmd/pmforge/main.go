// Command pmforge is the PMForge API server: REST resources for projects,
// documents, roadmaps and chat, the WebSocket push channel, and the MCP tool
// surface used by the agent.
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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	pmhttp "github.com/Strob0t/PMForge/internal/adapter/http"
	"github.com/Strob0t/PMForge/internal/adapter/mcp"
	pmnats "github.com/Strob0t/PMForge/internal/adapter/nats"
	"github.com/Strob0t/PMForge/internal/adapter/natskv"
	"github.com/Strob0t/PMForge/internal/adapter/otel"
	"github.com/Strob0t/PMForge/internal/adapter/postgres"
	"github.com/Strob0t/PMForge/internal/adapter/ristretto"
	"github.com/Strob0t/PMForge/internal/adapter/tiered"
	"github.com/Strob0t/PMForge/internal/adapter/ws"
	"github.com/Strob0t/PMForge/internal/config"
	"github.com/Strob0t/PMForge/internal/logger"
	"github.com/Strob0t/PMForge/internal/middleware"
	"github.com/Strob0t/PMForge/internal/service"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", config.DefaultConfigFile, "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"otel", cfg.OTel.Endpoint != "",
		"mcp", cfg.MCP.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	shutdownOTel, err := otel.Init(ctx, cfg.Logging.Service, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := pmnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() {
		if err := queue.Drain(); err != nil {
			slog.Warn("nats drain", "error", err)
		}
	}()

	// Cache: ristretto L1 in front of a NATS KV L2 shared by all instances.
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()
	l2, err := natskv.Open(ctx, queue.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
	if err != nil {
		return fmt.Errorf("l2 cache: %w", err)
	}
	readCache := tiered.New(l1, l2, cfg.Cache.L2TTL)

	idemStore, err := natskv.Open(ctx, queue.JetStream(), cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
	if err != nil {
		return fmt.Errorf("idempotency store: %w", err)
	}

	// --- Services ---
	store := postgres.NewStore(pool)
	notifier := service.NewChangeNotifier(queue, readCache, metrics)
	projectSvc := service.NewProjectService(store, readCache, notifier)
	documentSvc := service.NewDocumentService(store, readCache, notifier)
	roadmapSvc := service.NewRoadmapService(store, notifier)
	chatSvc := service.NewChatService(store)

	// Push channel: every instance forwards every notification to its own
	// WebSocket clients and drops its stale L1 entries.
	hub := ws.NewHub()
	defer hub.Close()
	cancelFanout, err := service.NewFanout(queue, hub, readCache).Start(ctx)
	if err != nil {
		return fmt.Errorf("fanout: %w", err)
	}
	defer cancelFanout()

	// --- HTTP ---
	handlers := &pmhttp.Handlers{
		Projects:     projectSvc,
		Documents:    documentSvc,
		Roadmap:      roadmapSvc,
		Chat:         chatSvc,
		DB:           store,
		Queue:        queue,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}

	r := chi.NewRouter()
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(pmhttp.SecurityHeaders)
	r.Use(pmhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(pmhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// The WebSocket outlives any request timeout.
	r.Get("/ws", hub.HandleWS)

	if cfg.MCP.Enabled {
		mcpSrv := mcp.NewServer(
			mcp.ServerConfig{Name: "pmforge", Version: version, APIKey: cfg.MCP.APIKey},
			mcp.ServerDeps{Documents: documentSvc, Roadmap: roadmapSvc},
		)
		r.Handle("/mcp", mcpSrv.Handler())
		r.Handle("/mcp/*", mcpSrv.Handler())
		slog.Info("mcp tools mounted", "path", "/mcp", "auth", cfg.MCP.APIKey != "")
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Server.Timeout))
		r.Use(middleware.Idempotency(idemStore, cfg.Idempotency.TTL))
		pmhttp.MountRoutes(r, handlers)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.Timeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
