package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validConfig = `
exchange:
  name: fabric
  type: oauth2
  endpoint: https://idp.example.com/token
  client_id: bridge-client
  client_secret: ${TEST_BRIDGE_SECRET}
sessions:
  provider_aliases: [okta, oidc]
cache:
  ttl: 1h
  sweep_interval: 5m
audit:
  enabled: true
  type: memory
server:
  signing_key: dev-key
`

func TestLoad(t *testing.T) {
	t.Setenv("TEST_BRIDGE_SECRET", "sup3r-secret")

	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Exchange.Name != "fabric" || cfg.Exchange.Type != "oauth2" {
		t.Errorf("Exchange = %+v, want name=fabric type=oauth2", cfg.Exchange)
	}
	// secret must be expanded from the environment
	if got := cfg.Exchange.Config["client_secret"]; got != "sup3r-secret" {
		t.Errorf("client_secret = %v, want expanded env value", got)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Cache.SweepInterval != 5*time.Minute {
		t.Errorf("Cache.SweepInterval = %v, want 5m", cfg.Cache.SweepInterval)
	}
	if len(cfg.Sessions.ProviderAliases) != 2 {
		t.Errorf("ProviderAliases = %v, want [okta oidc]", cfg.Sessions.ProviderAliases)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "Missing Exchange Name",
			content: "exchange:\n  type: oauth2\n",
		},
		{
			name:    "Missing Exchange Type",
			content: "exchange:\n  name: fabric\n",
		},
		{
			name:    "Negative TTL",
			content: "exchange:\n  name: fabric\n  type: static\ncache:\n  ttl: -5s\n",
		},
		{
			name:    "File Audit Without Path",
			content: "exchange:\n  name: fabric\n  type: static\naudit:\n  enabled: true\n  type: file\n",
		},
		{
			name:    "Not YAML",
			content: "{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestLoad_FileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() succeeded on missing file, want error")
	}
}
