package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ModeSinglePath     = "single-path"
	ModeExplicitStatus = "explicit-status"
)

type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

type GatewayConfig struct {
	BaseURL     string        `yaml:"base_url"`
	BypassToken string        `yaml:"bypass_token"`
	LocationID  string        `yaml:"location_id"`
	Timeout     time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Mode         string        `yaml:"mode"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when a key is missing from the file.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Mode:         ModeSinglePath,
			PollInterval: 5 * time.Second,
		},
		Database: DatabaseConfig{Host: "localhost", Port: 5432},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
		HTTP:     HTTPConfig{Port: 3000},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("KDS_BASE_URL")); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("KDS_BYPASS_TOKEN")); v != "" {
		c.Gateway.BypassToken = v
	}
	if v := strings.TrimSpace(os.Getenv("KDS_LOCATION_ID")); v != "" {
		c.Gateway.LocationID = v
	}
	if v := strings.TrimSpace(os.Getenv("KDS_MODE")); v != "" {
		c.Store.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("KDS_POLL_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid KDS_POLL_INTERVAL: %w", err)
		}
		c.Store.PollInterval = d
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Store.Mode != ModeSinglePath && c.Store.Mode != ModeExplicitStatus {
		return fmt.Errorf("store.mode must be %s or %s, got %q", ModeSinglePath, ModeExplicitStatus, c.Store.Mode)
	}
	if c.Store.PollInterval <= 0 {
		return errors.New("store.poll_interval must be positive")
	}
	if c.Gateway.Timeout <= 0 {
		return errors.New("gateway.timeout must be positive")
	}
	return nil
}
