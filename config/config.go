// Package config loads server configuration from YAML or JSON files, chosen
// by file extension.
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

// TransportConfig selects and parameterizes the transport adapter.
type TransportConfig struct {
	Type           string   `json:"type" yaml:"type"` // "stdio", "http" or "ws"
	Address        string   `json:"address,omitempty" yaml:"address,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	Endpoint       string   `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// AppConfig is the top-level server configuration.
type AppConfig struct {
	ServerName       string          `json:"server_name" yaml:"server_name"`
	ServerVersion    string          `json:"server_version" yaml:"server_version"`
	Instructions     string          `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	LoggerLevel      string          `json:"logger_level,omitempty" yaml:"logger_level,omitempty"`
	ClientTimeoutMs  int             `json:"client_timeout_ms,omitempty" yaml:"client_timeout_ms,omitempty"`
	AsyncDispatch    bool            `json:"async_dispatch,omitempty" yaml:"async_dispatch,omitempty"`
	EnableLogging    bool            `json:"enable_logging,omitempty" yaml:"enable_logging,omitempty"`
	Transport        TransportConfig `json:"transport" yaml:"transport"`
}

// ClientTimeout returns the configured outstanding-request timeout, or zero
// when unset.
func (c *AppConfig) ClientTimeout() time.Duration {
	return time.Duration(c.ClientTimeoutMs) * time.Millisecond
}

// Load reads and parses the file at path. ".yaml"/".yml" parse as YAML,
// ".json" as JSON.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg := &AppConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.ServerName == "" {
		return fmt.Errorf("server_name is required")
	}
	switch c.Transport.Type {
	case "", "stdio":
	case "http", "ws":
		if c.Transport.Address == "" {
			return fmt.Errorf("transport.address is required for %s", c.Transport.Type)
		}
	default:
		return fmt.Errorf("unknown transport type %q", c.Transport.Type)
	}
	return nil
}
