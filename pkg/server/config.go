package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML server configuration file. Empty fields
// leave the corresponding Config value untouched, so the file only needs the
// settings that differ from the defaults (or from the flags).
type FileConfig struct {
	Addr        string `yaml:"addr,omitempty"`
	MaxClients  int    `yaml:"max_clients,omitempty"`
	OplogDB     string `yaml:"oplog_db,omitempty"`
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
	Log         struct {
		Level  string `yaml:"level,omitempty"`
		Format string `yaml:"format,omitempty"`
	} `yaml:"log,omitempty"`
}

// LoadFileConfig reads and parses a YAML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI flag
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config: %w", err)
	}
	return fc, nil
}

// Apply overlays the file's non-empty settings onto cfg.
func (fc FileConfig) Apply(cfg *Config) {
	if fc.Addr != "" {
		cfg.Addr = fc.Addr
	}
	if fc.MaxClients > 0 {
		cfg.MaxClients = fc.MaxClients
	}
	if fc.OplogDB != "" {
		cfg.OplogPath = fc.OplogDB
	}
	if fc.MetricsAddr != "" {
		cfg.MetricsAddr = fc.MetricsAddr
	}
}
