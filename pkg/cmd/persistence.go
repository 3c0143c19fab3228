package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hookbridge/hookbridge/pkg/persistence"
	"github.com/hookbridge/hookbridge/pkg/persistence/file"
	"github.com/hookbridge/hookbridge/pkg/persistence/postgresql"
	redispersistence "github.com/hookbridge/hookbridge/pkg/persistence/redis"
)

// NewPersistence selects a storage backend from the database URL scheme
// (postgres://, redis://, file://). Anything else is treated as a filesystem
// path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to connect to postgres: %w", err))
		}

		return p
	case "redis":
		p, err := redispersistence.NewPersistence(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to connect to redis: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")
	if len(parts) < 2 {
		return "file"
	}

	return parts[0]
}
