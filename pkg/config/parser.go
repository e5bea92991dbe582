package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultGrantType       = "client_credentials"
	DefaultUpdatedAtMin    = "2025-07-03T01:00:00.000Z"
	DefaultPageSize        = 1000
	DefaultTimeout         = 30 * time.Second
	DefaultTable           = "TM_MAD_Catalog_DROPFR"
	DefaultConnectAttempts = 3
	DefaultConnectDelay    = 2 * time.Second
)

type ValidationError struct {
	Field   string
	Message string
}

// Returns the string representation of validation error
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator checks one aspect of a Config
type Validator interface {
	Validate(cfg *Config) []ValidationError
}

// DefaultValueSetter fills in unset values
type DefaultValueSetter interface {
	SetDefaults(cfg *Config)
}

// VariableExpander defines the interface for expanding variables
type VariableExpander interface {
	Expand(data []byte) []byte
}

// EnvExpander implements VariableExpander using environment variables
type EnvExpander struct{}

// Expand expands ${VAR} and $VAR references with the process environment
func (e *EnvExpander) Expand(data []byte) []byte {
	return []byte(os.Expand(string(data), os.Getenv))
}

// Loader reads, expands, defaults and validates a Config
type Loader struct {
	expander      VariableExpander
	validators    []Validator
	defaultSetter DefaultValueSetter
}

// NewLoader creates a new Loader with the given components
func NewLoader(
	expander VariableExpander,
	defaultSetter DefaultValueSetter,
	validators ...Validator,
) *Loader {
	return &Loader{
		expander:      expander,
		validators:    validators,
		defaultSetter: defaultSetter,
	}
}

// NewDefaultLoader wires the environment expander, defaults and every validator
func NewDefaultLoader() *Loader {
	return NewLoader(
		&EnvExpander{},
		&Defaults{},
		&RequiredFieldValidator{},
		&APIValidator{},
		&DatabaseValidator{},
		&SyncValidator{},
	)
}

// Load reads a YAML config file
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return l.Parse(data)
}

// Parse parses a YAML config
func (l *Loader) Parse(data []byte) (*Config, error) {
	if l.expander != nil {
		data = l.expander.Expand(data)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if l.defaultSetter != nil {
		l.defaultSetter.SetDefaults(&cfg)
	}

	var allErrors []ValidationError
	for _, validator := range l.validators {
		allErrors = append(allErrors, validator.Validate(&cfg)...)
	}

	if len(allErrors) > 0 {
		return nil, fmt.Errorf("validation errors: %v", allErrors)
	}

	return &cfg, nil
}

// Defaults implements DefaultValueSetter for Config
type Defaults struct{}

// SetDefaults sets default values for Config
func (d *Defaults) SetDefaults(cfg *Config) {
	if cfg.API.GrantType == "" {
		cfg.API.GrantType = DefaultGrantType
	}
	if cfg.API.UpdatedAtMin == "" {
		cfg.API.UpdatedAtMin = DefaultUpdatedAtMin
	}
	if cfg.API.PageSize == 0 {
		cfg.API.PageSize = DefaultPageSize
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultTimeout
	}
	if cfg.API.Burst == 0 {
		cfg.API.Burst = 1
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Database.Table == "" {
		cfg.Database.Table = DefaultTable
	}
	if cfg.Database.ConnectAttempts == 0 {
		cfg.Database.ConnectAttempts = DefaultConnectAttempts
	}
	if cfg.Database.ConnectDelay == 0 {
		cfg.Database.ConnectDelay = DefaultConnectDelay
	}

	if cfg.Sync.Workers == 0 {
		cfg.Sync.Workers = 1
	}
	if cfg.Sync.OnClearFailure == "" {
		cfg.Sync.OnClearFailure = ClearFailureAbort
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// RequiredFieldValidator validates fields without a usable default
type RequiredFieldValidator struct{}

// Validate checks that all required fields are present
func (v *RequiredFieldValidator) Validate(cfg *Config) []ValidationError {
	var errors []ValidationError

	required := []struct {
		field string
		value string
	}{
		{"api.base_url", cfg.API.BaseURL},
		{"api.token_url", cfg.API.TokenURL},
		{"api.client_id", cfg.API.ClientID},
		{"api.client_secret", cfg.API.ClientSecret},
		{"database.dsn", cfg.Database.DSN},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errors = append(errors, ValidationError{Field: r.field, Message: "is required"})
		}
	}

	return errors
}

// APIValidator validates marketplace settings
type APIValidator struct{}

// Validate checks URLs, the feed bound and numeric limits
func (v *APIValidator) Validate(cfg *Config) []ValidationError {
	var errors []ValidationError

	for field, raw := range map[string]string{"api.base_url": cfg.API.BaseURL, "api.token_url": cfg.API.TokenURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{Field: field, Message: fmt.Sprintf("must be an absolute URL, got %q", raw)})
		}
	}

	if _, err := time.Parse(time.RFC3339, cfg.API.UpdatedAtMin); err != nil {
		errors = append(errors, ValidationError{Field: "api.updated_at_min", Message: "must be an RFC 3339 timestamp"})
	}
	if cfg.API.PageSize < 1 {
		errors = append(errors, ValidationError{Field: "api.page_size", Message: "must be positive"})
	}
	if cfg.API.MaxPages < 0 {
		errors = append(errors, ValidationError{Field: "api.max_pages", Message: "must not be negative"})
	}
	if cfg.API.Timeout < 0 {
		errors = append(errors, ValidationError{Field: "api.timeout", Message: "must not be negative"})
	}
	if cfg.API.RequestsPerSecond < 0 {
		errors = append(errors, ValidationError{Field: "api.requests_per_second", Message: "must not be negative"})
	}

	return errors
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether name is a plain (optionally schema-qualified) SQL identifier
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// DatabaseValidator validates destination settings
type DatabaseValidator struct{}

// Validate checks the driver and table name
func (v *DatabaseValidator) Validate(cfg *Config) []ValidationError {
	var errors []ValidationError

	switch cfg.Database.Driver {
	case DriverPostgres, DriverPGX, DriverSQLite, DriverSQLServer:
	default:
		errors = append(errors, ValidationError{Field: "database.driver", Message: fmt.Sprintf("unknown driver: %s", cfg.Database.Driver)})
	}

	if !ValidIdentifier(cfg.Database.Table) {
		errors = append(errors, ValidationError{Field: "database.table", Message: fmt.Sprintf("invalid table name: %q", cfg.Database.Table)})
	}
	if cfg.Database.ConnectAttempts < 1 {
		errors = append(errors, ValidationError{Field: "database.connect_attempts", Message: "must be positive"})
	}

	return errors
}

// SyncValidator validates pipeline tuning
type SyncValidator struct{}

// Validate checks worker count and clear policy
func (v *SyncValidator) Validate(cfg *Config) []ValidationError {
	var errors []ValidationError

	if cfg.Sync.Workers < 1 {
		errors = append(errors, ValidationError{Field: "sync.workers", Message: "must be positive"})
	}

	switch cfg.Sync.OnClearFailure {
	case ClearFailureAbort, ClearFailureContinue:
	default:
		errors = append(errors, ValidationError{Field: "sync.on_clear_failure", Message: fmt.Sprintf("unknown policy: %s", cfg.Sync.OnClearFailure)})
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		errors = append(errors, ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format: %s", cfg.Log.Format)})
	}

	return errors
}
