package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Defaults DefaultsConfig `koanf:"defaults"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	// Path is the SQLite file for the usage log. Empty disables recording.
	Path string `koanf:"path"`
}

// DefaultsConfig is the process-wide credential configuration used when a
// request does not carry its own credentials.
type DefaultsConfig struct {
	Provider string `koanf:"provider"`
	APIKey   string `koanf:"api_key"`
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml if present, overlays LLMPROXY_* environment
// variables, and fills programmatic defaults. "__" in env names maps to
// nesting, e.g. LLMPROXY_DEFAULTS__API_KEY -> defaults.api_key.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// Missing file is fine, env vars can carry everything.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("LLMPROXY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "LLMPROXY_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("defaults.provider") {
		k.Set("defaults.provider", "openai")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Allow ${VAR} references so the file never holds a literal secret.
	cfg.Defaults.APIKey = substituteEnvVars(cfg.Defaults.APIKey)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
