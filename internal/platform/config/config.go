package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"EEOS-client/internal/platform/db"
)

const (
	DefaultConfigPath = "config/config.yaml"
	DefaultPageSize   = 7

	ModeDev     = "dev"
	ModeRelease = "release"
)

type TokenStoreConfig struct {
	Driver string `yaml:"driver" env:"TOKEN_STORE_DRIVER"` // memory | file | sqlite
	Path   string `yaml:"path" env:"TOKEN_STORE_PATH"`
}

type ClientConfig struct {
	BaseURL    string           `yaml:"base_url" env:"BASE_URL"`
	Timeout    time.Duration    `yaml:"timeout" env:"TIMEOUT"`
	PageSize   int              `yaml:"page_size" env:"PAGE_SIZE"`
	Lang       string           `yaml:"lang" env:"LANG"`
	TokenStore TokenStoreConfig `yaml:"token_store"`
}

type Certs struct {
	Cert string `yaml:"cert" env:"TLS_CERT"`
	Key  string `yaml:"key" env:"TLS_KEY"`
}

type ServerConfig struct {
	Addr          string            `yaml:"addr" env:"ADDR"`
	Store         string            `yaml:"store" env:"STORE"` // memory | mysql
	DB            db.DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	JWTSecret     string            `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTIssuer     string            `yaml:"jwt_issuer" env:"JWT_ISSUER"`
	AccessTTL     time.Duration     `yaml:"access_ttl" env:"ACCESS_TTL"`
	RefreshTTL    time.Duration     `yaml:"refresh_ttl" env:"REFRESH_TTL"`
	RotateRefresh bool              `yaml:"rotate_refresh" env:"ROTATE_REFRESH"`
	CORSOrigins   []string          `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	Certificate   Certs             `yaml:"certificate"`
}

type Config struct {
	Version string       `yaml:"version"`
	Mode    string       `yaml:"mode" env:"EEOS_MODE"`
	Client  ClientConfig `yaml:"client" envPrefix:"EEOS_"`
	Server  ServerConfig `yaml:"server" envPrefix:"EEOS_SERVER_"`
}

// Default returns a configuration usable without any file or environment.
func Default() Config {
	return Config{
		Mode: ModeDev,
		Client: ClientConfig{
			BaseURL:  "http://localhost:8080",
			Timeout:  10 * time.Second,
			PageSize: DefaultPageSize,
			Lang:     "ko",
			TokenStore: TokenStoreConfig{
				Driver: "file",
				Path:   "eeos-session.yaml",
			},
		},
		Server: ServerConfig{
			Addr:  ":8080",
			Store: "memory",
			DB: db.DatabaseConfig{
				Host:   "127.0.0.1",
				Port:   3306,
				DBName: "eeos",
			},
			JWTSecret:     "dev-secret",
			JWTIssuer:     "eeos-dev",
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    14 * 24 * time.Hour,
			RotateRefresh: true,
			CORSOrigins:   []string{"http://localhost:3000"},
		},
	}
}

// LoadConfig reads the YAML file at path on top of Default, then applies
// EEOS_* environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	buf, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeRelease {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDev, ModeRelease, c.Mode)
	}
	if c.Client.PageSize <= 0 {
		return fmt.Errorf("client.page_size must be > 0")
	}
	switch c.Client.TokenStore.Driver {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("unknown token store driver %q", c.Client.TokenStore.Driver)
	}
	switch c.Server.Store {
	case "memory", "mysql":
	default:
		return fmt.Errorf("unknown server store %q", c.Server.Store)
	}
	if c.Mode == ModeRelease && c.Server.JWTSecret == "dev-secret" {
		return fmt.Errorf("server.jwt_secret must be set in release mode")
	}
	if c.Mode == ModeRelease && (c.Server.Certificate.Cert == "" || c.Server.Certificate.Key == "") {
		return fmt.Errorf("server.certificate must be set in release mode")
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
