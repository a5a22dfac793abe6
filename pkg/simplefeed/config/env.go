package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv overrides the configuration from environment variables using the
// `env` struct tags on ServerConfig:
//
//	PORT                 listen port (default "5000")
//	ENVIRONMENT          development | production | testing
//	LOG_LEVEL            debug | info | warn | error
//	SEED_SAMPLE_DATA     load the sample posts at startup
//	WS_PATH              push endpoint path (default "/ws")
//	SUBSCRIBER_BUFFER    events queued per viewer before drops
//	WS_WRITE_TIMEOUT     per-frame write deadline
//	WS_ALLOWED_ORIGINS   comma separated; empty allows any origin
//	FEED_URLS            comma separated RSS/Atom feeds to ingest
//	FEED_POLL_INTERVAL   ingestion interval (default 5m)
//	FEED_POST_TYPE       post type assigned to ingested items
//
// Unset variables fall back to their env-default, so options that must win
// over the environment go after WithEnv.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		c.FeedURLs = compact(c.FeedURLs)
		c.AllowedOrigins = compact(c.AllowedOrigins)
		return nil
	}
}

// EnvUsage returns a description of the supported environment variables.
func EnvUsage() string {
	var cfg ServerConfig
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}

// WithPort sets the listen port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the runtime environment
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		c.Environment = env
		return nil
	}
}

// WithSampleData toggles seeding of the sample posts
func WithSampleData(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.SeedSampleData = enabled
		return nil
	}
}

// WithFeeds enables ingestion of the given feed URLs
func WithFeeds(urls ...string) Option {
	return func(c *ServerConfig) error {
		c.FeedURLs = compact(urls)
		return nil
	}
}

func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
