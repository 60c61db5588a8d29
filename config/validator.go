package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the global validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("env", validateEnvironment)
	validate.RegisterStructValidation(validateStorage, StorageConfig{})
	validate.RegisterStructValidation(validateCache, CacheConfig{})
	validate.RegisterStructValidation(validateRelay, Config{})
}

// ConfigError represents a validation error for a specific field.
type ConfigError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of config errors.
type ValidationErrors []ConfigError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// ValidateWithDetails performs validation and returns detailed errors.
func ValidateWithDetails(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	details := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, ConfigError{
			Field:   fe.Namespace(),
			Message: formatValidationError(fe),
			Value:   fe.Value(),
		})
	}
	return details
}

// formatValidationError converts validator.FieldError to a human-readable message.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "required_for_backend":
		return fmt.Sprintf("is required when %s is selected", fe.Param())
	case "required_for_relay":
		return "is required when websocket.relay is enabled"
	case "url":
		return "must be an absolute http(s) URL"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "env":
		return "must be one of [development staging production]"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

// validateEnvironment is a custom validator for environment values.
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateStorage checks the settings of the selected backend.
func validateStorage(sl validator.StructLevel) {
	s := sl.Current().Interface().(StorageConfig)
	switch s.Type {
	case "badger":
		if strings.TrimSpace(s.Badger.Path) == "" {
			sl.ReportError(s.Badger.Path, "Badger.Path", "path", "required_for_backend", "badger")
		}
	case "sqlite":
		if strings.TrimSpace(s.SQLite.Path) == "" {
			sl.ReportError(s.SQLite.Path, "SQLite.Path", "path", "required_for_backend", "sqlite")
		}
	case "remote":
		if strings.TrimSpace(s.Remote.BaseURL) == "" {
			sl.ReportError(s.Remote.BaseURL, "Remote.BaseURL", "base_url", "required_for_backend", "remote")
		} else if u, err := url.Parse(s.Remote.BaseURL); err != nil || u.Host == "" ||
			(u.Scheme != "http" && u.Scheme != "https") {
			sl.ReportError(s.Remote.BaseURL, "Remote.BaseURL", "base_url", "url", "")
		}
	}
}

// validateCache checks the settings of the selected cache.
func validateCache(sl validator.StructLevel) {
	c := sl.Current().Interface().(CacheConfig)
	if c.Type == "redis" && strings.TrimSpace(c.Redis.Address) == "" {
		sl.ReportError(c.Redis.Address, "Redis.Address", "address", "required_for_backend", "redis")
	}
}

// validateRelay requires a Redis address when the event relay is on.
func validateRelay(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	if c.WebSocket.Relay.Enabled && strings.TrimSpace(c.Cache.Redis.Address) == "" {
		sl.ReportError(c.Cache.Redis.Address, "Cache.Redis.Address", "address", "required_for_relay", "")
	}
}
