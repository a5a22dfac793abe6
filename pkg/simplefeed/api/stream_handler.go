package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/tendant/simple-feed/pkg/simplefeed/bus"
)

// SubscriberRegistry is the part of the bus the stream handler needs
type SubscriberRegistry interface {
	Register(sub bus.Subscriber)
	Unregister(sub bus.Subscriber)
}

// StreamHandler upgrades viewers to WebSocket connections and keeps them
// registered with the bus for as long as the connection lives.
type StreamHandler struct {
	registry SubscriberRegistry
	upgrader websocket.Upgrader
	cfg      bus.WSConfig
	logger   *slog.Logger
}

// NewStreamHandler creates a stream handler. allowedOrigins empty means any origin.
func NewStreamHandler(registry SubscriberRegistry, cfg bus.WSConfig, allowedOrigins []string, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// ServeHTTP blocks until the viewer disconnects
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	sub := bus.NewWSSubscriber(conn, h.cfg, h.logger)
	h.registry.Register(sub)
	defer h.registry.Unregister(sub)

	h.logger.Info("Client connected to WebSocket", "subscriber_id", sub.ID(), "remote_addr", r.RemoteAddr)
	// Serve ends with a close frame when r.Context() is cancelled, so servers
	// should derive it from their shutdown signal via http.Server.BaseContext.
	sub.Serve(r.Context())
	h.logger.Info("Client disconnected from WebSocket", "subscriber_id", sub.ID())
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
