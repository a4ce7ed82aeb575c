// File: server/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/momentics/hioload-relay/api"
	"gopkg.in/yaml.v3"
)

// LogConfig selects the logger built by the relay binary.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables the HTTP metrics endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// FileConfig is the layout of a relay YAML config file.
type FileConfig struct {
	Server  Config        `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DefaultFileConfig returns the values used for keys a file leaves out.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Server: DefaultConfig(),
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// LoadFileConfig reads path on top of DefaultFileConfig. Unknown keys are
// rejected. An empty file yields the defaults.
func LoadFileConfig(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w: %w", path, api.ErrInvalidArgument, err)
	}
	if err := cfg.Server.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
