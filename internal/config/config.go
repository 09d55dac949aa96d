// Package config exposes strongly typed application configuration loaded
// from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes the market data connection: credential, symbols, and the
// per-handler resource limits.
type Feed struct {
	APIKey              string   `yaml:"api_key"`
	URL                 string   `yaml:"url"`
	Symbols             []string `yaml:"symbols"`
	EnableLogging       bool     `yaml:"enable_logging"`
	HistoryCapacity     int      `yaml:"history_capacity"`
	LatencyWindow       int      `yaml:"latency_window"`
	HeartbeatIntervalMS int      `yaml:"heartbeat_interval_ms"`
}

// Kafka configures the optional tick fan-out to a Kafka topic.
type Kafka struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Recorder configures the optional JSONL tick capture.
type Recorder struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Feed     Feed     `yaml:"feed"`
	Kafka    Kafka    `yaml:"kafka"`
	Recorder Recorder `yaml:"recorder"`
}

// Load reads a YAML file from disk and hydrates a Config struct. The
// FINNHUB_API_KEY environment variable, when set, overrides the file value
// so credentials can stay out of checked-in configs.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		config.Feed.APIKey = key
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
