package recorder

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Config selects and configures a blackbox backend.
type Config struct {
	// Type is one of "sqlite", "postgres", "memory".
	Type       string
	SqlitePath string
	Postgres   PostgresConfig
}

// NewBackend creates a storage backend based on configuration.
func NewBackend(log zerolog.Logger, cfg Config) (Backend, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSqliteBackend(log, cfg.SqlitePath)
	case "postgres":
		return NewPostgresBackend(log, cfg.Postgres)
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown blackbox backend: %s", cfg.Type)
	}
}
