package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
api:
  base_url: https://api.example.com/v1/
  token_url: https://auth.example.com/token
  client_id: my-client
  client_secret: ${CATALOG_SYNC_TEST_SECRET}
database:
  driver: postgres
  dsn: postgres://localhost/catalog
`

func TestLoader_ValidMinimalConfig(t *testing.T) {
	t.Setenv("CATALOG_SYNC_TEST_SECRET", "s3cret")

	cfg, err := NewDefaultLoader().Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Failed to parse valid config: %v", err)
	}

	if cfg.API.ClientSecret != "s3cret" {
		t.Errorf("Expected expanded secret, got '%s'", cfg.API.ClientSecret)
	}
	if cfg.API.BaseURL != "https://api.example.com/v1" {
		t.Errorf("Expected trailing slash trimmed, got '%s'", cfg.API.BaseURL)
	}

	// defaults
	if cfg.API.GrantType != DefaultGrantType {
		t.Errorf("Expected default grant type, got '%s'", cfg.API.GrantType)
	}
	if cfg.API.PageSize != 1000 {
		t.Errorf("Expected page size 1000, got %d", cfg.API.PageSize)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.API.UpdatedAtMin != DefaultUpdatedAtMin {
		t.Errorf("Expected default updatedAtMin, got '%s'", cfg.API.UpdatedAtMin)
	}
	if cfg.Database.Table != DefaultTable {
		t.Errorf("Expected default table, got '%s'", cfg.Database.Table)
	}
	if cfg.Sync.Workers != 1 {
		t.Errorf("Expected 1 worker, got %d", cfg.Sync.Workers)
	}
	if cfg.Sync.OnClearFailure != ClearFailureAbort {
		t.Errorf("Expected abort policy by default, got '%s'", cfg.Sync.OnClearFailure)
	}
	if cfg.Sync.CleanText {
		t.Error("Expected product text to be stored as received by default")
	}
}

func TestLoader_Durations(t *testing.T) {
	yamlContent := minimalYAML + `
  connect_delay: 500ms
sync:
  workers: 4
  on_clear_failure: continue
  clean_text: true
`
	yamlContent = strings.Replace(yamlContent, "client_id: my-client", "client_id: my-client\n  timeout: 5s", 1)
	t.Setenv("CATALOG_SYNC_TEST_SECRET", "x")

	cfg, err := NewDefaultLoader().Parse([]byte(yamlContent))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.API.Timeout)
	}
	if cfg.Database.ConnectDelay != 500*time.Millisecond {
		t.Errorf("Expected 500ms, got %s", cfg.Database.ConnectDelay)
	}
	if cfg.Sync.Workers != 4 || cfg.Sync.OnClearFailure != ClearFailureContinue || !cfg.Sync.CleanText {
		t.Errorf("Sync section not applied: %+v", cfg.Sync)
	}
}

func TestLoader_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		contains []string
	}{
		{
			name:     "Empty",
			yaml:     `{}`,
			contains: []string{"api.base_url: is required", "api.client_id: is required", "database.dsn: is required"},
		},
		{
			name: "BadDriverAndTable",
			yaml: `
api: {base_url: "https://a.example.com", token_url: "https://a.example.com/t", client_id: c, client_secret: s}
database: {driver: oracle, dsn: x, table: "drop table;"}
`,
			contains: []string{"unknown driver: oracle", "invalid table name"},
		},
		{
			name: "RelativeURLAndBadBound",
			yaml: `
api: {base_url: "/v1", token_url: "https://a.example.com/t", client_id: c, client_secret: s, updated_at_min: yesterday}
database: {dsn: x}
`,
			contains: []string{"api.base_url: must be an absolute URL", "api.updated_at_min"},
		},
		{
			name: "BadPolicy",
			yaml: `
api: {base_url: "https://a.example.com", token_url: "https://a.example.com/t", client_id: c, client_secret: s}
database: {dsn: x}
sync: {on_clear_failure: ignore, workers: -2}
`,
			contains: []string{"unknown policy: ignore", "sync.workers: must be positive"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefaultLoader().Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			for _, want := range tt.contains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Expected error containing '%s', got '%s'", want, err.Error())
				}
			}
		})
	}
}

func TestLoader_Load(t *testing.T) {
	t.Setenv("CATALOG_SYNC_TEST_SECRET", "from-file")
	path := filepath.Join(t.TempDir(), "catalog-sync.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewDefaultLoader().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.ClientSecret != "from-file" {
		t.Errorf("Expected secret from env, got '%s'", cfg.API.ClientSecret)
	}

	if _, err := NewDefaultLoader().Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidIdentifier(t *testing.T) {
	valid := []string{"TM_MAD_Catalog_DROPFR", "dbo.catalog", "_x1"}
	invalid := []string{"", "1abc", "a-b", "a;drop", "a.b.c", `"quoted"`}

	for _, name := range valid {
		if !ValidIdentifier(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}
	for _, name := range invalid {
		if ValidIdentifier(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}
