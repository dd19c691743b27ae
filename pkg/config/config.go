// Package config provides unified configuration for the plauder client.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (PLAUDER_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "github.com/rhuss/plauder/pkg/api"

// Config holds all configuration for the plauder client.
type Config struct {
	Chat          api.ChatConfig      `yaml:"chat"`
	Translation   TranslationConfig   `yaml:"translation"`
	Observability ObservabilityConfig `yaml:"observability"`
	Log           LogConfig           `yaml:"log"`
}

// TranslationConfig holds translation settings.
type TranslationConfig struct {
	TargetLanguage string `yaml:"target_language"` // default: "en"

	// FallbackBaseURL is a generic Chat Completions endpoint tried when the
	// vendor translation call fails. Optional.
	FallbackBaseURL string `yaml:"fallback_base_url"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Addr    string `yaml:"addr"`    // default: ":9464"
}

// LogConfig holds log level and debug category settings.
type LogConfig struct {
	Level string `yaml:"level"` // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Chat: api.ChatConfig{
			Model:        "gemini-2.0-flash",
			Temperature:  0.9,
			Language:     api.LanguageChinese,
			AITimezone:   "UTC",
			UserTimezone: "UTC",
			MinMessages:  1,
			MaxMessages:  3,
			MaxChars:     100,
		},
		Translation: TranslationConfig{
			TargetLanguage: api.LanguageEnglish,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Addr: ":9464",
			},
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}
