package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Migration directions.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Migrate executes every "*.<direction>.sql" file in fsys. Up migrations run
// in lexical order and down migrations in reverse. It returns the number of
// files applied.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, direction string, logger zerolog.Logger) (int, error) {
	if direction != DirectionUp && direction != DirectionDown {
		return 0, fmt.Errorf("invalid migration direction %q (must be up or down)", direction)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations: %w", err)
	}

	suffix := "." + direction + ".sql"
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	if direction == DirectionDown {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	for _, name := range files {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return 0, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		logger.Info().Str("migration", name).Msg("running migration")

		if _, err := pool.Exec(ctx, string(content)); err != nil {
			return 0, fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}

	return len(files), nil
}
