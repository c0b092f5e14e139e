package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "INFINIWIKI_CONFIG"
	addrEnv       = "INFINIWIKI_ADDR"
	baseURLEnv    = "INFINIWIKI_BASE_URL"
	userAgentEnv  = "INFINIWIKI_USER_AGENT"
	logLevelEnv   = "INFINIWIKI_LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Wikipedia WikipediaConfig `yaml:"wikipedia"`
	Feed      FeedConfig      `yaml:"feed"`
	Topics    TopicsConfig    `yaml:"topics"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownSeconds int    `yaml:"shutdownSeconds"`
}

// ShutdownTimeout resolves the graceful-shutdown window.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	if s.ShutdownSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.ShutdownSeconds) * time.Second
}

// WikipediaConfig wires the upstream encyclopedia endpoints.
type WikipediaConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	UserAgent      string `yaml:"userAgent"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout resolves the upstream HTTP client timeout.
func (w WikipediaConfig) Timeout() time.Duration {
	if w.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(w.TimeoutSeconds) * time.Second
}

// FeedConfig tunes the feed state machine.
type FeedConfig struct {
	PrefetchCount int `yaml:"prefetchCount"`
	DedupRetries  int `yaml:"dedupRetries"`
	SessionLimit  int `yaml:"sessionLimit"`
}

// TopicsConfig bounds the category walk and lists the preset menu.
type TopicsConfig struct {
	MaxTitles int      `yaml:"maxTitles"`
	MaxDepth  int      `yaml:"maxDepth"`
	Presets   []string `yaml:"presets"`
}

// CacheConfig sizes the in-memory LRU caches.
type CacheConfig struct {
	Articles int `yaml:"articles"`
	Topics   int `yaml:"topics"`
}

// LoggingConfig selects log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(addrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(baseURLEnv); v != "" {
		c.Wikipedia.BaseURL = v
	}
	if v := os.Getenv(userAgentEnv); v != "" {
		c.Wikipedia.UserAgent = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.ShutdownSeconds > 0 {
		base.Server.ShutdownSeconds = override.Server.ShutdownSeconds
	}

	if override.Wikipedia.BaseURL != "" {
		base.Wikipedia.BaseURL = override.Wikipedia.BaseURL
	}
	if override.Wikipedia.UserAgent != "" {
		base.Wikipedia.UserAgent = override.Wikipedia.UserAgent
	}
	if override.Wikipedia.TimeoutSeconds > 0 {
		base.Wikipedia.TimeoutSeconds = override.Wikipedia.TimeoutSeconds
	}

	if override.Feed.PrefetchCount > 0 {
		base.Feed.PrefetchCount = override.Feed.PrefetchCount
	}
	if override.Feed.DedupRetries > 0 {
		base.Feed.DedupRetries = override.Feed.DedupRetries
	}
	if override.Feed.SessionLimit > 0 {
		base.Feed.SessionLimit = override.Feed.SessionLimit
	}

	if override.Topics.MaxTitles > 0 {
		base.Topics.MaxTitles = override.Topics.MaxTitles
	}
	if override.Topics.MaxDepth > 0 {
		base.Topics.MaxDepth = override.Topics.MaxDepth
	}
	if len(override.Topics.Presets) > 0 {
		base.Topics.Presets = override.Topics.Presets
	}

	if override.Cache.Articles > 0 {
		base.Cache.Articles = override.Cache.Articles
	}
	if override.Cache.Topics > 0 {
		base.Cache.Topics = override.Cache.Topics
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", ShutdownSeconds: 10},
		Wikipedia: WikipediaConfig{
			BaseURL:        "https://en.wikipedia.org",
			UserAgent:      "Infiniwiki/0.1 (https://github.com/infiniwiki/infiniwiki; contact@infiniwiki.app)",
			TimeoutSeconds: 20,
		},
		Feed: FeedConfig{
			PrefetchCount: 1,
			DedupRetries:  5,
			SessionLimit:  256,
		},
		Topics: TopicsConfig{
			MaxTitles: 150,
			MaxDepth:  2,
			Presets:   []string{"Science", "Sports"},
		},
		Cache:   CacheConfig{Articles: 128, Topics: 16},
		Logging: LoggingConfig{Level: "info"},
	}
}
