// Package config loads server configuration from an optional YAML file
// with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can say "45s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full server configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Auth struct {
		Secret   string   `yaml:"secret"`
		TokenTTL Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	Collab struct {
		// IdleTimeout is how long a connection may stay silent before
		// the sweeper disconnects it.
		IdleTimeout Duration `yaml:"idle_timeout"`
		// SendBuffer is the per-connection outbound frame queue depth.
		SendBuffer int `yaml:"send_buffer"`
	} `yaml:"collab"`

	Comfy struct {
		URL string `yaml:"url"`
	} `yaml:"comfy"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8000"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Auth.TokenTTL = Duration(12 * time.Hour)
	cfg.Collab.IdleTimeout = Duration(60 * time.Second)
	cfg.Collab.SendBuffer = 256
	cfg.Comfy.URL = "http://comfyui:8188"
	cfg.Log.Level = "info"
	return cfg
}

// Load reads the YAML file at path (skipped when path is empty or the
// file does not exist) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("COZYUI_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("COZYUI_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("COZYUI_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("COZYUI_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("COZYUI_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("COMFYUI_API_URL"); v != "" {
		c.Comfy.URL = v
	}
	if v := os.Getenv("COZYUI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret must be set (config file or COZYUI_AUTH_SECRET)")
	}
	if c.Collab.SendBuffer <= 0 {
		return fmt.Errorf("collab.send_buffer must be positive, got %d", c.Collab.SendBuffer)
	}
	if c.Collab.IdleTimeout.Std() <= 0 {
		return fmt.Errorf("collab.idle_timeout must be positive")
	}
	return nil
}
