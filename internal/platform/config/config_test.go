package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Client.PageSize != DefaultPageSize {
		t.Fatalf("expected page size %d, got %d", DefaultPageSize, cfg.Client.PageSize)
	}
	if cfg.Mode != ModeDev {
		t.Fatalf("expected dev mode, got %s", cfg.Mode)
	}
	if cfg.Server.AccessTTL != 30*time.Minute {
		t.Fatalf("expected default access ttl, got %s", cfg.Server.AccessTTL)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
version: "1"
mode: dev
client:
  base_url: https://eeos.example
  timeout: 3s
  token_store:
    driver: sqlite
    path: /tmp/session.db
server:
  store: mysql
  database:
    host: db
    port: 3307
  refresh_ttl: 48h
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("EEOS_PAGE_SIZE", "10")
	t.Setenv("EEOS_SERVER_DB_HOST", "db-override")
	t.Setenv("EEOS_SERVER_CORS_ORIGINS", "http://a,http://b")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Client.BaseURL != "https://eeos.example" {
		t.Fatalf("expected base url from file, got %s", cfg.Client.BaseURL)
	}
	if cfg.Client.Timeout != 3*time.Second {
		t.Fatalf("expected timeout 3s, got %s", cfg.Client.Timeout)
	}
	if cfg.Client.TokenStore.Driver != "sqlite" || cfg.Client.TokenStore.Path != "/tmp/session.db" {
		t.Fatalf("unexpected token store %+v", cfg.Client.TokenStore)
	}
	if cfg.Client.PageSize != 10 {
		t.Fatalf("expected env page size 10, got %d", cfg.Client.PageSize)
	}
	if cfg.Server.DB.Host != "db-override" || cfg.Server.DB.Port != 3307 {
		t.Fatalf("unexpected db config %+v", cfg.Server.DB)
	}
	if cfg.Server.RefreshTTL != 48*time.Hour {
		t.Fatalf("expected refresh ttl 48h, got %s", cfg.Server.RefreshTTL)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b" {
		t.Fatalf("unexpected cors origins %v", cfg.Server.CORSOrigins)
	}
	// untouched defaults survive
	if cfg.Server.JWTIssuer != "eeos-dev" {
		t.Fatalf("expected default issuer, got %s", cfg.Server.JWTIssuer)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"EEOS_MODE":               "staging",
		"EEOS_TOKEN_STORE_DRIVER": "keychain",
		"EEOS_PAGE_SIZE":          "not-an-int",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
				t.Fatalf("expected error for %s=%s", key, val)
			}
		})
	}
}

func TestReleaseRequiresSecret(t *testing.T) {
	t.Setenv("EEOS_MODE", "release")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Fatalf("expected jwt secret error, got %v", err)
	}
}

func TestReleaseRequiresCertificate(t *testing.T) {
	t.Setenv("EEOS_MODE", "release")
	t.Setenv("EEOS_SERVER_JWT_SECRET", "prod-secret")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "certificate") {
		t.Fatalf("expected certificate error, got %v", err)
	}

	t.Setenv("EEOS_SERVER_TLS_CERT", "/etc/eeos/tls.crt")
	t.Setenv("EEOS_SERVER_TLS_KEY", "/etc/eeos/tls.key")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Certificate.Cert != "/etc/eeos/tls.crt" {
		t.Fatalf("expected cert path from env, got %q", cfg.Server.Certificate.Cert)
	}
}
