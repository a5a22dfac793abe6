package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/tendant/simple-feed/pkg/simplefeed"
	"github.com/tendant/simple-feed/pkg/simplefeed/api"
	"github.com/tendant/simple-feed/pkg/simplefeed/bus"
	"github.com/tendant/simple-feed/pkg/simplefeed/config"
	"github.com/tendant/simple-feed/pkg/simplefeed/ingest"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Println("simple-feed server\n\nEnvironment:")
		fmt.Println(config.EnvUsage())
		return
	}

	// A missing .env file is fine
	_ = godotenv.Load()

	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	logger := serverConfig.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := serverConfig.BuildService(ctx, logger, simplefeed.Hooks{
		OnError: []simplefeed.ErrorHook{
			func(hctx *simplefeed.HookContext, operation string, err error) {
				logger.ErrorContext(hctx.Context, "Feed operation failed", "operation", operation, "err", err)
			},
		},
	})
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	if len(serverConfig.FeedURLs) > 0 {
		importer := ingest.New(&http.Client{Timeout: 30 * time.Second}, components.Service, ingest.Config{
			URLs:     serverConfig.FeedURLs,
			PostType: simplefeed.PostType(serverConfig.FeedPostType),
		}, logger.With("component", "ingest"))
		go importer.Run(ctx, serverConfig.FeedPollInterval)
		slog.Info("Feed ingestion enabled", "feeds", len(serverConfig.FeedURLs), "interval", serverConfig.FeedPollInterval)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           routes(serverConfig, components, logger),
		ReadHeaderTimeout: 10 * time.Second,
		// Hijacked WebSocket requests are not tracked by Shutdown. Deriving
		// every request context from ctx lets viewers see the signal and
		// close with a normal-closure frame.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "port", serverConfig.Port, "env", serverConfig.Environment, "ws_path", serverConfig.WebSocketPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}
	waitForViewers(shutdownCtx, components.Bus)

	slog.Info("Server exiting")
}

func routes(cfg *config.ServerConfig, c *config.Components, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(api.RequestLogger(logger, "/api"))

	if cfg.IsDevelopment() {
		r.Use(devCORS)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]interface{}{
			"status":      "healthy",
			"environment": cfg.Environment,
			"posts":       c.Repository.Len(),
			"subscribers": c.Bus.Len(),
		})
	})

	// The stream route must stay outside the timeout middleware
	r.Handle(cfg.WebSocketPath, api.NewStreamHandler(c.Bus, cfg.WSConfig(), cfg.AllowedOrigins, logger))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Mount("/api", api.NewPostHandler(c.Service, logger).Routes())
	})

	return r
}

// waitForViewers gives open streams time to send their close frames.
func waitForViewers(ctx context.Context, b *bus.Bus) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for b.Len() > 0 {
		select {
		case <-ctx.Done():
			slog.Warn("Viewers still connected at exit", "subscribers", b.Len())
			return
		case <-ticker.C:
		}
	}
}

func devCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
