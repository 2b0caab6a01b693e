// Package config loads the service configuration from yaml files with
// environment references resolved, so the same file works across local and
// deployed environments.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
)

// Config holds the fully parsed service configuration.
type Config struct {
	Debug                   bool
	ListenAddr              string
	StorageConnectionString string
	TodosTable              string
	RedisConnectionString   string
	CacheTTL                time.Duration
	WebhookURL              string
	WebhookTimeout          time.Duration
}

type rawConfig struct {
	Debug                   bool   `config:"debug"`
	ListenAddr              string `config:"listen_addr"`
	StorageConnectionString string `config:"storage_connection_string"`
	TodosTable              string `config:"todos_table"`
	RedisConnectionString   string `config:"redis_connection_string"`
	CacheTTL                string `config:"cache_ttl"`
	WebhookURL              string `config:"webhook_url"`
	WebhookTimeout          string `config:"webhook_timeout"`
}

const (
	defaultListenAddr = ":8080"
	defaultTodosTable = "todos"

	// Zero disables the read cache; mutations still evict.
	defaultCacheTTL = 30 * time.Second

	defaultWebhookTimeout = 15 * time.Second
)

// Load reads config.yml plus an optional config.local.yml overlay from
// dir. An empty webhook_url disables the enhancement step.
func Load(dir string) (Config, error) {
	c := config.NewWithOptions("todo-api", func(opt *config.Options) {
		opt.ParseEnv = true
		opt.DecoderConfig.TagName = "config"
	})
	c.AddDriver(yaml.Driver)

	if err := c.LoadFiles(filepath.Join(dir, "config.yml")); err != nil {
		return Config{}, err
	}
	if err := c.LoadExists(filepath.Join(dir, "config.local.yml")); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	if err := c.BindStruct("", &raw); err != nil {
		return Config{}, err
	}

	if raw.StorageConnectionString == "" {
		return Config{}, fmt.Errorf("missing storage_connection_string")
	}
	if raw.RedisConnectionString == "" {
		return Config{}, fmt.Errorf("missing redis_connection_string")
	}

	cfg := Config{
		Debug:                   raw.Debug,
		ListenAddr:              raw.ListenAddr,
		StorageConnectionString: raw.StorageConnectionString,
		TodosTable:              raw.TodosTable,
		RedisConnectionString:   raw.RedisConnectionString,
		CacheTTL:                defaultCacheTTL,
		WebhookURL:              raw.WebhookURL,
		WebhookTimeout:          defaultWebhookTimeout,
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.TodosTable == "" {
		cfg.TodosTable = defaultTodosTable
	}
	if raw.CacheTTL != "" {
		d, err := time.ParseDuration(raw.CacheTTL)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("invalid cache_ttl %q", raw.CacheTTL)
		}
		cfg.CacheTTL = d
	}
	if raw.WebhookTimeout != "" {
		d, err := time.ParseDuration(raw.WebhookTimeout)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid webhook_timeout %q", raw.WebhookTimeout)
		}
		cfg.WebhookTimeout = d
	}
	return cfg, nil
}
