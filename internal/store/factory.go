package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/syncgate/internal/store/core"
	"github.com/dropDatabas3/syncgate/internal/store/memory"
	"github.com/dropDatabas3/syncgate/internal/store/pg"
)

// Config selecciona e inicializa el driver de storage.
type Config struct {
	Driver   string // "postgres" | "memory"
	DSN      string
	Postgres pg.Config
}

// Open devuelve el core.Repository según el driver configurado.
func Open(ctx context.Context, cfg Config) (core.Repository, error) {
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "pg", "postgresql":
		return pg.New(ctx, cfg.DSN, cfg.Postgres)
	case "memory", "":
		// Sólo dev/testing: los datos viven lo que vive el proceso.
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
}
