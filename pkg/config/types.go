package config

import "time"

// Config is the full configuration for one catalog-sync process.
// It is built once at startup and shared read-only by every component.
type Config struct {
	API      API      `yaml:"api"`      // Required marketplace API settings
	Database Database `yaml:"database"` // Required destination settings
	Sync     Sync     `yaml:"sync,omitempty"`
	Metrics  Metrics  `yaml:"metrics,omitempty"`
	Log      Log      `yaml:"log,omitempty"`
}

// API holds marketplace endpoint and credential settings
type API struct {
	BaseURL      string `yaml:"base_url"`   // Required: root for /offers, /products, /categories
	TokenURL     string `yaml:"token_url"`  // Required: OAuth2 token endpoint
	ClientID     string `yaml:"client_id"`  // Required
	ClientSecret string `yaml:"client_secret"`
	GrantType    string `yaml:"grant_type,omitempty"`

	UpdatedAtMin string        `yaml:"updated_at_min,omitempty"` // ISO-8601 lower bound for the offers feed
	PageSize     int           `yaml:"page_size,omitempty"`
	MaxPages     int           `yaml:"max_pages,omitempty"` // 0 means no cap
	Timeout      time.Duration `yaml:"timeout,omitempty"`

	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // 0 disables limiting
	Burst             int     `yaml:"burst,omitempty"`
}

// DriverType defines supported database drivers
type DriverType string

const (
	DriverPostgres  DriverType = "postgres"
	DriverPGX       DriverType = "pgx"
	DriverSQLite    DriverType = "sqlite"
	DriverSQLServer DriverType = "sqlserver"
)

// Database describes the destination table
type Database struct {
	Driver          DriverType    `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	Table           string        `yaml:"table,omitempty"`
	CreateTable     bool          `yaml:"create_table,omitempty"`
	ConnectAttempts int           `yaml:"connect_attempts,omitempty"`
	ConnectDelay    time.Duration `yaml:"connect_delay,omitempty"`
}

// ClearFailurePolicy decides what a failed table clear does to the run
type ClearFailurePolicy string

const (
	// ClearFailureAbort fails the run so stale rows are never mixed with fresh ones.
	ClearFailureAbort ClearFailurePolicy = "abort"
	// ClearFailureContinue logs the failure and keeps going.
	ClearFailureContinue ClearFailurePolicy = "continue"
)

// Sync tunes the pipeline
type Sync struct {
	Workers        int                `yaml:"workers,omitempty"`
	OnClearFailure ClearFailurePolicy `yaml:"on_clear_failure,omitempty"`
	CleanText      bool               `yaml:"clean_text,omitempty"` // NFC + trim product text; off stores it as received
}

// Metrics configures the optional Prometheus endpoint
type Metrics struct {
	Addr string `yaml:"addr,omitempty"`
}

// Log configures the process logger
type Log struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // text or json
}
