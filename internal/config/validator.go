package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator for Config's struct tags.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator with the default struct-tag engine.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate checks cfg's struct tags (min/max ranges on cache size,
// concurrency, and coupling thresholds) and returns an aggregated
// ValidationError if any fail.
func (v *Validator) Validate(cfg *Config) error {
	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			errs = append(errs, fmt.Sprintf("field '%s' failed validation '%s'", fe.Namespace(), fe.Tag()))
		}
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ValidationError aggregates every struct-tag failure into one error.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("config validation error: %s", e.Errors[0])
	}
	return fmt.Sprintf("config validation errors:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// ValidateAndLoad loads dir's config and validates it in one call.
func ValidateAndLoad(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if err != nil {
		return nil, err
	}
	v := NewValidator()
	if err := v.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
