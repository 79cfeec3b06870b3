// Package config loads server runtime configuration.
//
// Precedence, lowest to highest: built-in defaults, the optional YAML
// config file, REDMAKER_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvAddr        = "REDMAKER_ADDR"
	EnvDB          = "REDMAKER_DB"
	EnvCORSOrigins = "REDMAKER_CORS_ORIGINS"
	EnvSeed        = "REDMAKER_SEED"
	EnvSeedFile    = "REDMAKER_SEED_FILE"
	EnvVerbose     = "REDMAKER_VERBOSE"
)

// Config holds server runtime configuration.
type Config struct {
	// Addr is the host:port the HTTP server binds to.
	Addr string `yaml:"addr"`

	// DBPath is the SQLite database file path. Parent directories are
	// created on open.
	DBPath string `yaml:"db_path"`

	// CORSOrigins lists allowed origins for browser clients. "*" allows any.
	CORSOrigins []string `yaml:"cors_origins"`

	// Seed provisions the built-in sample activation codes on startup.
	Seed bool `yaml:"seed"`

	// SeedFile, when set, provisions activation codes from a YAML file on
	// startup, in addition to the built-in set when Seed is true.
	SeedFile string `yaml:"seed_file"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:        "0.0.0.0:8000",
		DBPath:      "./data/redmaker.db",
		CORSOrigins: []string{"*"},
		Seed:        true,
	}
}

// Load builds the effective configuration: defaults, overlaid with the
// YAML file at path (when path is non-empty), overlaid with environment
// variables, then validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyFile overlays settings from a YAML config file. Fields absent
// from the file keep their current values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv overlays settings from REDMAKER_* environment variables.
func (c *Config) applyEnv() {
	c.Addr = envOrDefault(EnvAddr, c.Addr)
	c.DBPath = envOrDefault(EnvDB, c.DBPath)
	c.CORSOrigins = listEnvOrDefault(EnvCORSOrigins, c.CORSOrigins)
	c.Seed = boolEnvOrDefault(EnvSeed, c.Seed)
	c.SeedFile = envOrDefault(EnvSeedFile, c.SeedFile)
	c.Verbose = boolEnvOrDefault(EnvVerbose, c.Verbose)
}

// Validate checks that the configuration is coherent.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("invalid addr: must not be empty")
	}
	if !strings.Contains(c.Addr, ":") {
		return fmt.Errorf("invalid addr %q: must be host:port", c.Addr)
	}
	if c.DBPath == "" {
		return fmt.Errorf("invalid db_path: must not be empty")
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("invalid cors_origins: must not be empty")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func boolEnvOrDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// listEnvOrDefault splits a comma-separated env value into a list,
// trimming whitespace around each element.
func listEnvOrDefault(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
