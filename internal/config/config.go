// Package config loads client and backend settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const prefix = "SAHA"

// Client configures the panel client core.
type Client struct {
	APIBase    string        `envconfig:"API_BASE" required:"true"`
	AppSecret  string        `envconfig:"APP_SECRET" required:"true"`
	TokenStore string        `envconfig:"TOKEN_STORE" default:"file"`
	StateDir   string        `envconfig:"STATE_DIR" default:""`
	RedisAddr  string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisDB    int           `envconfig:"REDIS_DB" default:"0"`
	Lang       string        `envconfig:"LANG" default:"tr"`
	Routes     string        `envconfig:"ROUTES" default:""`
	Timeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	PermTTL    time.Duration `envconfig:"PERMISSION_TTL" default:"5m"`
}

// Server configures the reference backend.
type Server struct {
	Addr           string        `envconfig:"ADDR" default:":8080"`
	PGDSN          string        `envconfig:"PG_DSN" default:""`
	AppSecret      string        `envconfig:"APP_SECRET" required:"true"`
	AuthSecret     string        `envconfig:"AUTH_SECRET" required:"true"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"12h"`
	CodeTTL        time.Duration `envconfig:"CODE_TTL" default:"5m"`
	HashWindow     time.Duration `envconfig:"HASH_WINDOW" default:"60s"`
	RateBurst      int           `envconfig:"RATE_BURST" default:"20"`
	RatePerSecond  int           `envconfig:"RATE_PER_SECOND" default:"10"`
	LoginAttempts  int           `envconfig:"LOGIN_ATTEMPTS" default:"5"`
	LoginWindow    time.Duration `envconfig:"LOGIN_WINDOW" default:"1m"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:""`
	TrustedProxies []string      `envconfig:"TRUSTED_PROXIES" default:""`
	// Seed account for the in-memory store used when PG_DSN is empty.
	DemoEmail    string `envconfig:"DEMO_EMAIL" default:"admin@saha.local"`
	DemoPassword string `envconfig:"DEMO_PASSWORD" default:""`
}

// LoadDotEnv reads the given .env files if they exist. Missing files are ignored,
// variables already present in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadClient reads SAHA_* variables for the client.
func LoadClient() (*Client, error) {
	var cfg Client
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, err
	}
	cfg.APIBase = strings.TrimSpace(cfg.APIBase)
	if !strings.HasPrefix(cfg.APIBase, "http://") && !strings.HasPrefix(cfg.APIBase, "https://") {
		return nil, fmt.Errorf("api base must be an absolute http(s) url, got %q", cfg.APIBase)
	}
	if !strings.HasSuffix(cfg.APIBase, "/") {
		cfg.APIBase += "/"
	}
	if cfg.StateDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve state dir: %w", err)
		}
		cfg.StateDir = dir + string(os.PathSeparator) + "saha"
	}
	return &cfg, nil
}

// LoadServer reads SAHA_* variables for the backend.
func LoadServer() (*Server, error) {
	var cfg Server
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, err
	}
	if cfg.HashWindow <= 0 {
		return nil, errors.New("hash window must be positive")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &cfg, nil
}

// RoutesFile returns SAHA_ROUTES without requiring the rest of the client
// configuration.
func RoutesFile() (string, error) {
	var cfg struct {
		Routes string `envconfig:"ROUTES" default:""`
	}
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return "", err
	}
	return strings.TrimSpace(cfg.Routes), nil
}
