package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/tierone/deckhand/pkg/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig validates the entire configuration.
func ValidateConfig(cfg *Config) error {
	if err := validateGeneral(&cfg.General); err != nil {
		return err
	}

	if cfg.Watch.Debounce < 0 {
		return &ValidationError{Field: "watch.debounce", Message: "debounce must not be negative"}
	}

	// Validate operations
	opNames := make(map[string]bool)
	for i, op := range cfg.Operations {
		if err := validateOperation(&op, i); err != nil {
			return err
		}
		if opNames[op.Name] {
			return &ValidationError{
				Field:   fmt.Sprintf("operation[%d].name", i),
				Message: fmt.Sprintf("duplicate operation name: %s", op.Name),
			}
		}
		opNames[op.Name] = true
	}

	// Validate repositories
	repoNames := make(map[string]bool)
	for i, repo := range cfg.Repositories {
		if err := validateRepository(&repo, i); err != nil {
			return err
		}
		if repoNames[repo.Name] {
			return &ValidationError{
				Field:   fmt.Sprintf("repository[%d].name", i),
				Message: fmt.Sprintf("duplicate repository name: %s", repo.Name),
			}
		}
		repoNames[repo.Name] = true
	}

	return nil
}

func validateGeneral(g *GeneralConfig) error {
	if _, err := logging.ParseLevel(g.LogLevel); err != nil {
		return &ValidationError{Field: "general.log_level", Message: err.Error()}
	}

	switch strings.ToLower(g.LogFormat) {
	case "", "text", "json":
	default:
		return &ValidationError{
			Field:   "general.log_format",
			Message: fmt.Sprintf("invalid format: %s (must be 'text' or 'json')", g.LogFormat),
		}
	}

	if g.Concurrency < 1 {
		return &ValidationError{Field: "general.concurrency", Message: "concurrency must be at least 1"}
	}

	return nil
}

func validateOperation(op *Operation, index int) error {
	prefix := fmt.Sprintf("operation[%d]", index)

	if op.Name == "" {
		return &ValidationError{Field: prefix + ".name", Message: "name is required"}
	}

	if len(op.Phases) == 0 {
		return &ValidationError{Field: prefix + ".phase", Message: "at least one phase is required"}
	}

	for i, p := range op.Phases {
		field := fmt.Sprintf("%s.phase[%d]", prefix, i)
		if p.Title == "" {
			return &ValidationError{Field: field + ".title", Message: "title is required"}
		}
		if p.Weight <= 0 || math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) {
			return &ValidationError{
				Field:   field + ".weight",
				Message: fmt.Sprintf("weight must be a positive number, got %v", p.Weight),
			}
		}
	}

	return nil
}

func validateRepository(repo *Repository, index int) error {
	prefix := fmt.Sprintf("repository[%d]", index)

	if repo.Name == "" {
		return &ValidationError{Field: prefix + ".name", Message: "name is required"}
	}

	if strings.ContainsAny(repo.Name, `/\`) {
		return &ValidationError{Field: prefix + ".name", Message: "name must not contain path separators"}
	}

	return nil
}
