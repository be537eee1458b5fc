package config

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Repositories = []Repository{{Name: "api"}, {Name: "web", Path: "../web"}}
	cfg.Operations = []Operation{
		{Name: "clone", Phases: []Phase{{Title: "Receiving objects", Weight: 0.8}, {Title: "Checking out files", Weight: 0.2}}},
	}
	return cfg
}

func TestValidateConfig_Valid(t *testing.T) {
	if err := ValidateConfig(validConfig()); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidateConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "log level",
			mutate: func(c *Config) { c.General.LogLevel = "verbose" },
			field:  "general.log_level",
		},
		{
			name:   "log format",
			mutate: func(c *Config) { c.General.LogFormat = "xml" },
			field:  "general.log_format",
		},
		{
			name:   "concurrency",
			mutate: func(c *Config) { c.General.Concurrency = 0 },
			field:  "general.concurrency",
		},
		{
			name:   "debounce",
			mutate: func(c *Config) { c.Watch.Debounce = -1 },
			field:  "watch.debounce",
		},
		{
			name:   "missing repo name",
			mutate: func(c *Config) { c.Repositories[0].Name = "" },
			field:  "repository[0].name",
		},
		{
			name:   "repo name with separator",
			mutate: func(c *Config) { c.Repositories[1].Name = "a/b" },
			field:  "repository[1].name",
		},
		{
			name:   "duplicate repo",
			mutate: func(c *Config) { c.Repositories[1].Name = "api" },
			field:  "repository[1].name",
		},
		{
			name:   "missing operation name",
			mutate: func(c *Config) { c.Operations[0].Name = "" },
			field:  "operation[0].name",
		},
		{
			name:   "no phases",
			mutate: func(c *Config) { c.Operations[0].Phases = nil },
			field:  "operation[0].phase",
		},
		{
			name:   "missing phase title",
			mutate: func(c *Config) { c.Operations[0].Phases[1].Title = "" },
			field:  "operation[0].phase[1].title",
		},
		{
			name:   "zero weight",
			mutate: func(c *Config) { c.Operations[0].Phases[0].Weight = 0 },
			field:  "operation[0].phase[0].weight",
		},
		{
			name:   "NaN weight",
			mutate: func(c *Config) { c.Operations[0].Phases[0].Weight = math.NaN() },
			field:  "operation[0].phase[0].weight",
		},
		{
			name: "duplicate operation",
			mutate: func(c *Config) {
				c.Operations = append(c.Operations, c.Operations[0])
			},
			field: "operation[1].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field '%s', got '%s'", tt.field, verr.Field)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "repository[0].name", Message: "name is required"}
	if !strings.Contains(err.Error(), "repository[0].name") {
		t.Errorf("expected field in message, got: %s", err.Error())
	}
}
