// Package config loads the runtime configuration for the guard service
// from a YAML file, with environment variable interpolation for
// credential fields.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration from pdpguard.yaml.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Verify   VerifyConfig   `yaml:"verify"`
	Compiler CompilerConfig `yaml:"compiler"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	History  HistoryConfig  `yaml:"history"`
}

// ServerConfig defines the HTTP API settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// FetchConfig defines page fetching settings.
type FetchConfig struct {
	UserAgent      string   `yaml:"user_agent"`
	AllowedDomains []string `yaml:"allowed_domains"`
}

// VerifyConfig defines verification defaults.
type VerifyConfig struct {
	Workers    int `yaml:"workers"`
	TimeoutSec int `yaml:"timeout_sec"`
}

// CompilerConfig holds the text-generation service settings. The API
// key is typically supplied as ${OPENROUTER_API_KEY}.
type CompilerConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// DispatchConfig holds notification targets and credentials.
type DispatchConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
	WebhookURL      string `yaml:"webhook_url"`
	EmailBridgeURL  string `yaml:"email_bridge_url"`
	GitHubToken     string `yaml:"github_token"`
}

// HistoryConfig defines run history persistence.
type HistoryConfig struct {
	Path    string `yaml:"path"`
	MaxRuns int    `yaml:"max_runs"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr: ":8787",
		},
		Verify: VerifyConfig{
			Workers:    4,
			TimeoutSec: 60,
		},
		History: HistoryConfig{
			Path:    "pdpguard.db",
			MaxRuns: 500,
		},
	}
}

// Load reads and parses a YAML config file, interpolating ${VAR}
// references from the environment. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	interpolated := interpolateEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func interpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match // Leave unresolved if not set.
	})
}
