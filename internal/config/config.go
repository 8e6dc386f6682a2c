package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig             `yaml:"server"`
	Database DatabaseConfig           `yaml:"database"`
	Events   EventsConfig             `yaml:"events"`
	Provider ProviderConfig           `yaml:"provider"`
	Sync     SyncConfig               `yaml:"sync"`
	Logging  LoggingConfig            `yaml:"logging"`
	Tenants  map[string]*TenantConfig `yaml:"tenants"`
}

type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type ProviderConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type SyncConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalMinutes) * time.Minute
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Sync: SyncConfig{
			IntervalMinutes: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	for key, tc := range cfg.Tenants {
		tc.Key = key
		if err := tc.Validate(); err != nil {
			return nil, fmt.Errorf("tenant %s: %w", key, err)
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BENCHMARKD_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("BENCHMARKD_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("BENCHMARKD_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("BENCHMARKD_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("BENCHMARKD_PROVIDER_URL"); v != "" {
		cfg.Provider.URL = v
	}
	if v := os.Getenv("BENCHMARKD_PROVIDER_TOKEN"); v != "" {
		cfg.Provider.Token = v
	}
	if v := os.Getenv("BENCHMARKD_SYNC_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sync.IntervalMinutes = n
		}
	}
	if v := os.Getenv("BENCHMARKD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
