// Package config loads chatsheet configuration from defaults, a yaml file,
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/chatsheet"
	"github.com/nao1215/chatsheet/domain/model"
)

// DefaultDatabase is the store file used when none is configured.
const DefaultDatabase = "sheet_data.db"

// Output formats
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Config is the resolved configuration of one invocation.
type Config struct {
	Database          string        `koanf:"database"`
	APIKey            string        `koanf:"api_key"`
	Endpoint          string        `koanf:"endpoint"`
	Model             string        `koanf:"model"`
	Temperature       float64       `koanf:"temperature"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
	OnConflict        string        `koanf:"on_conflict"`
	RenderPolicy      string        `koanf:"render_policy"`
	ErrorLog          string        `koanf:"error_log"`
	HistoryFile       string        `koanf:"history_file"`
	Output            string        `koanf:"output"`
	Verbose           bool          `koanf:"verbose"`
}

// defaults returns the lowest priority layer.
func defaults() map[string]any {
	return map[string]any{
		"database":            DefaultDatabase,
		"endpoint":            chatsheet.DefaultEndpoint,
		"model":               chatsheet.DefaultModel,
		"temperature":         chatsheet.DefaultTemperature,
		"request_timeout":     "0s",
		"requests_per_minute": 0,
		"on_conflict":         string(model.ActionPrompt),
		"render_policy":       string(model.PolicySubstitute),
		"error_log":           chatsheet.DefaultErrorLogPath,
		"history_file":        "",
		"output":              OutputTable,
		"verbose":             false,
	}
}

// Validate checks enumerated and numeric options.
func (c *Config) Validate() error {
	var errs []error
	if _, err := model.ParseConflictAction(c.OnConflict); err != nil {
		errs = append(errs, fmt.Errorf("on_conflict: %w", err))
	}
	if _, err := model.ParseRenderPolicy(c.RenderPolicy); err != nil {
		errs = append(errs, fmt.Errorf("render_policy: %w", err))
	}
	if c.Output != OutputTable && c.Output != OutputJSON {
		errs = append(errs, fmt.Errorf("output: unknown format %q (want table or json)", c.Output))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature: %v is outside [0, 2]", c.Temperature))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request_timeout must not be negative"))
	}
	if c.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests_per_minute must not be negative"))
	}
	return errors.Join(errs...)
}

// Session converts the configuration into session settings.
func (c *Config) Session() chatsheet.Config {
	return chatsheet.Config{
		DSN:               c.Database,
		APIKey:            c.APIKey,
		Endpoint:          c.Endpoint,
		Model:             c.Model,
		Temperature:       c.Temperature,
		RequestTimeout:    c.RequestTimeout,
		RequestsPerMinute: c.RequestsPerMinute,
		ConflictAction:    model.ConflictAction(c.OnConflict),
		RenderPolicy:      model.RenderPolicy(c.RenderPolicy),
		ErrorLogPath:      c.ErrorLog,
	}
}
