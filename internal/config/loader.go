package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Environment variables
const (
	EnvPrefix    = "CHATSHEET_"
	EnvOpenAIKey = "OPENAI_API_KEY"
)

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "chatsheet.yaml"

// flagKeys maps command line flags to config keys. Flags not listed here
// are not configuration.
var flagKeys = map[string]string{
	"db":            "database",
	"api-key":       "api_key",
	"endpoint":      "endpoint",
	"model":         "model",
	"temperature":   "temperature",
	"timeout":       "request_timeout",
	"rate-limit":    "requests_per_minute",
	"on-conflict":   "on_conflict",
	"render-policy": "render_policy",
	"error-log":     "error_log",
	"history":       "history_file",
	"output":        "output",
	"verbose":       "verbose",
}

// Loaded is a configuration together with the file it came from.
type Loaded struct {
	*Config
	// File is the config file used, empty when none was read.
	File string
}

// findConfigFile returns the explicit path, or chatsheet.yaml / chatsheet.yml
// when present in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{DefaultFile, "chatsheet.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load resolves configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Loaded, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: OPENAI_API_KEY, then CHATSHEET_* which wins
	if err := k.Load(env.Provider(EnvOpenAIKey, ".", func(s string) string {
		if s != EnvOpenAIKey {
			return ""
		}
		return "api_key"
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Loaded{Config: &cfg, File: used}, nil
}
