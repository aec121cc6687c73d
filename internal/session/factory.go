package session

import (
	"context"
	"fmt"
	"strings"
)

// Config selects and configures a token backend.
type Config struct {
	Driver   string
	StateDir string
	Redis    RedisConfig
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Open builds a TokenStore for cfg.Driver: "file" (default), "redis" or "memory".
func Open(ctx context.Context, cfg Config, opts ...TokenStoreOption) (*TokenStore, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		backend, err = NewFile(cfg.StateDir)
	case "redis":
		backend, err = NewRedis(ctx, cfg.Redis)
	case "memory":
		backend = NewMemory()
	default:
		return nil, fmt.Errorf("session: unsupported token store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return NewTokenStore(backend, opts...), nil
}
