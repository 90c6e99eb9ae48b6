// Package config loads fcbtool settings from a YAML file
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds user preferences shared by the CLI, TUI and server
type Settings struct {
	// MIDI port names used by send and receive
	InPort  string `yaml:"in_port,omitempty"`
	OutPort string `yaml:"out_port,omitempty"`

	// CSVPath is the default table for load/save commands
	CSVPath string `yaml:"csv_path,omitempty"`

	// Controller2Columns maps CSV columns 15-17 to controller 2
	Controller2Columns bool `yaml:"controller2_columns,omitempty"`

	ReceiveTimeout time.Duration `yaml:"receive_timeout,omitempty"`
	ServerPort     int           `yaml:"server_port,omitempty"`
}

// Default returns settings with sensible defaults
func Default() *Settings {
	return &Settings{
		CSVPath:        "FCB1010.csv",
		ReceiveTimeout: 30 * time.Second,
		ServerPort:     8080,
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "fcbtool"), nil
}

// Path returns the full path to config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the default config file, or returns defaults if there is none
func Load() (*Settings, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads settings from path. Missing keys keep their defaults and a
// missing file yields the defaults.
func LoadFrom(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return s, nil
}

// Validate checks value ranges
func (s *Settings) Validate() error {
	if s.ServerPort < 0 || s.ServerPort > 65535 {
		return fmt.Errorf("server_port %d out of range", s.ServerPort)
	}
	if s.ReceiveTimeout <= 0 {
		return fmt.Errorf("receive_timeout %s must be positive", s.ReceiveTimeout)
	}
	return nil
}

// SaveTo writes settings to path, creating its directory
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
