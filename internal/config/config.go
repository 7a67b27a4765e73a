// Package config loads the breadboard configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no file is given explicitly.
const DefaultPath = "breadboard.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the structure of breadboard.yaml.
type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`
	Log    LogConfig    `yaml:"log" json:"log"`
	Store  StoreConfig  `yaml:"store" json:"store"`
	Engine EngineConfig `yaml:"engine" json:"engine"`
}

type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

type StoreConfig struct {
	Backend string      `yaml:"backend" json:"backend"`
	Dir     string      `yaml:"dir" json:"dir"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`

	Encryption EncryptionConfig `yaml:"encryption" json:"encryption"`
}

// EncryptionConfig seals stored documents when Key is set. Keys are base64
// encoded 32 byte AES keys.
type EncryptionConfig struct {
	Key          string   `yaml:"key" json:"key"`
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

type EngineConfig struct {
	MaxPasses int `yaml:"max_passes" json:"max_passes"`
	MaxInputs int `yaml:"max_inputs" json:"max_inputs"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
		Store: StoreConfig{
			Backend: BackendFile,
			Dir:     filepath.Join(".breadboard", "circuits"),
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "breadboard:circuit:"},
		},
		Engine: EngineConfig{MaxPasses: 256, MaxInputs: 16},
	}
}

// Load reads a configuration file (YAML or JSON) over the defaults. A
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the components cannot run with.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Encryption.Key == "" && len(c.Store.Encryption.FallbackKeys) > 0 {
		return fmt.Errorf("store.encryption.fallback_keys needs store.encryption.key")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Engine.MaxPasses <= 0 {
		return fmt.Errorf("engine.max_passes must be positive")
	}
	if c.Engine.MaxInputs <= 0 || c.Engine.MaxInputs > 24 {
		return fmt.Errorf("engine.max_inputs must be between 1 and 24")
	}
	return nil
}
