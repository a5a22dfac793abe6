package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/tendant/simple-feed/pkg/simplefeed"
	"github.com/tendant/simple-feed/pkg/simplefeed/bus"
	"github.com/tendant/simple-feed/pkg/simplefeed/repo/memory"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:             "5000",
		Environment:      "development",
		LogLevel:         "info",
		SeedSampleData:   true,
		WebSocketPath:    "/ws",
		SubscriberBuffer: 16,
		WriteTimeout:     10 * time.Second,
		FeedPollInterval: 5 * time.Minute,
		FeedPostType:     string(simplefeed.PostTypeTimeline),
	}
}

// ServerConfig represents server configuration for the feed service.
// Field tags are read by WithEnv; the env-default values mirror defaults().
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"5000"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	SeedSampleData bool `env:"SEED_SAMPLE_DATA" env-default:"true"`

	// Push connections
	WebSocketPath    string        `env:"WS_PATH" env-default:"/ws"`
	SubscriberBuffer int           `env:"SUBSCRIBER_BUFFER" env-default:"16"`
	WriteTimeout     time.Duration `env:"WS_WRITE_TIMEOUT" env-default:"10s"`
	AllowedOrigins   []string      `env:"WS_ALLOWED_ORIGINS" env-separator:","`

	// Feed ingestion, disabled when FeedURLs is empty
	FeedURLs         []string      `env:"FEED_URLS" env-separator:","`
	FeedPollInterval time.Duration `env:"FEED_POLL_INTERVAL" env-default:"5m"`
	FeedPostType     string        `env:"FEED_POST_TYPE" env-default:"timeline"`
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	if !strings.HasPrefix(c.WebSocketPath, "/") {
		return fmt.Errorf("websocket path must start with '/': %q", c.WebSocketPath)
	}

	if c.SubscriberBuffer < 1 {
		return errors.New("subscriber_buffer must be at least 1")
	}

	if c.WriteTimeout <= 0 {
		return errors.New("write_timeout must be positive")
	}

	if len(c.FeedURLs) > 0 {
		if c.FeedPollInterval <= 0 {
			return errors.New("feed_poll_interval must be positive when feeds are configured")
		}
		if !simplefeed.PostType(c.FeedPostType).IsValid() {
			return fmt.Errorf("feed_post_type %q is not a valid post type", c.FeedPostType)
		}
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// WSConfig returns the per-connection settings for push subscribers
func (c *ServerConfig) WSConfig() bus.WSConfig {
	ws := bus.DefaultWSConfig()
	ws.Buffer = c.SubscriberBuffer
	ws.WriteTimeout = c.WriteTimeout
	return ws
}

// NewLogger builds the process logger: colored text in development, JSON otherwise.
func (c *ServerConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	if c.IsDevelopment() {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Components are the long-lived instances shared by the HTTP layer and workers
type Components struct {
	Repository *memory.Repository
	Bus        *bus.Bus
	Service    simplefeed.Service
}

// BuildService creates the repository, bus and service described by the configuration
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger, hooks simplefeed.Hooks) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repo := memory.New()
	if c.SeedSampleData {
		seeded, err := repo.Seed(ctx, simplefeed.SamplePosts())
		if err != nil {
			return nil, fmt.Errorf("failed to seed sample data: %w", err)
		}
		logger.Info("Seeded sample posts", "count", len(seeded))
	}

	b := bus.New(logger.With("component", "bus"))

	svc, err := simplefeed.New(
		simplefeed.WithRepository(repo),
		simplefeed.WithPublisher(b),
		simplefeed.WithHooks(hooks),
		simplefeed.WithLogger(logger.With("component", "service")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build service: %w", err)
	}

	return &Components{Repository: repo, Bus: b, Service: svc}, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
