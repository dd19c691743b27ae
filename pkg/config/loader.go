package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/plauder/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, PLAUDER_CONFIG env, ./plauder.yaml, $XDG_CONFIG_HOME/plauder/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// The trimmed key is the canonical credential.
	cfg.Chat.APIKey = cfg.Chat.Credential()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PLAUDER_CONFIG environment variable
// 3. ./plauder.yaml in the current directory
// 4. plauder/config.yaml under the user config directory
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("PLAUDER_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{"plauder.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "plauder", "config.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps PLAUDER_* environment variables to config fields.
// Unparseable numeric values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PLAUDER_BASE_URL"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := os.Getenv("PLAUDER_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("PLAUDER_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}
	if v := os.Getenv("PLAUDER_LANGUAGE"); v != "" {
		cfg.Chat.Language = v
	}
	if v := os.Getenv("PLAUDER_TEMPERATURE"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Chat.Temperature = t
		}
	}
	if v := os.Getenv("PLAUDER_METRICS_ADDR"); v != "" {
		cfg.Observability.Metrics.Addr = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields when those are empty.
func resolveFileReferences(cfg *Config) error {
	// chat.api_key_file -> chat.api_key
	if cfg.Chat.APIKeyFile != "" && cfg.Chat.APIKey == "" {
		val, err := readSecretFile(cfg.Chat.APIKeyFile)
		if err != nil {
			return fmt.Errorf("chat.api_key_file: %w", err)
		}
		cfg.Chat.APIKey = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
