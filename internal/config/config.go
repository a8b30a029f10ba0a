package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"minirag/internal/domain"
)

// APIConfig points the client at the knowledge base backend.
type APIConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout returns the request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// IngestConfig configures ingest requests.
type IngestConfig struct {
	Source string `yaml:"source"`
}

// LogConfig configures logging. An empty File logs to stderr, except in the
// terminal UI where logging is discarded.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// DevServerConfig configures the local development backend.
type DevServerConfig struct {
	Addr         string `yaml:"addr"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	TopK         int    `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	API       APIConfig       `yaml:"api"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Log       LogConfig       `yaml:"log"`
	DevServer DevServerConfig `yaml:"devserver"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/minirag/config.yaml.
// If neither exists, it writes defaults to ~/.config/minirag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "minirag", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero values.
func ApplyDefaults(cfg *AppConfig) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000"
	}
	if cfg.API.TimeoutSecs <= 0 {
		cfg.API.TimeoutSecs = 60
	}
	if cfg.Ingest.Source == "" {
		cfg.Ingest.Source = domain.DefaultSource
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.DevServer.Addr == "" {
		cfg.DevServer.Addr = "127.0.0.1:8000"
	}
	if cfg.DevServer.ChunkSize <= 0 {
		cfg.DevServer.ChunkSize = 1000
	}
	if cfg.DevServer.ChunkOverlap <= 0 {
		cfg.DevServer.ChunkOverlap = 120
	}
	if cfg.DevServer.ChunkOverlap >= cfg.DevServer.ChunkSize {
		cfg.DevServer.ChunkOverlap = cfg.DevServer.ChunkSize / 8
	}
	if cfg.DevServer.TopK <= 0 {
		cfg.DevServer.TopK = 3
	}
}
