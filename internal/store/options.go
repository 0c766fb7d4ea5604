package store

import (
	"fmt"
	"log/slog"
	"strings"
)

// Opts holds configuration for the store backends.
type Opts struct {
	DSN           string // SQLite file path or PostgreSQL connection string
	RedisAddr     string // host:port of a Redis server
	RedisPassword string
	RedisDB       int
	KeyPrefix     string // prepended to every key by the Redis backend
}

// Option configures a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithRedis selects a Redis server.
func WithRedis(addr, password string, db int) Option {
	return func(o *Opts) {
		o.RedisAddr = addr
		o.RedisPassword = password
		o.RedisDB = db
	}
}

// WithKeyPrefix namespaces keys in shared backends.
func WithKeyPrefix(prefix string) Option {
	return func(o *Opts) {
		o.KeyPrefix = prefix
	}
}

// DetectDSNType returns "postgres" for PostgreSQL connection strings and "sqlite3" otherwise.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite3"
}

// New opens the backend selected by opts: Redis when an address is set, otherwise
// PostgreSQL or SQLite by DSN, otherwise memory.
func New(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch {
	case cfg.RedisAddr != "":
		slog.Debug("Store selected", "backend", "redis", "addr", cfg.RedisAddr)
		s, err := NewRedisStore(opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case cfg.DSN == "":
		slog.Debug("Store selected", "backend", "memory")
		return NewInMemoryStore(), nil
	case DetectDSNType(cfg.DSN) == "postgres":
		slog.Debug("Store selected", "backend", "postgres")
		s, err := NewPostgresStore(opts...)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	default:
		slog.Debug("Store selected", "backend", "sqlite", "path", cfg.DSN)
		s, err := NewSQLiteStore(opts...)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	}
}
