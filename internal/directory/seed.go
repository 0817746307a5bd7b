package directory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/gamerbot/core/bootstrap"
	"github.com/m3rciful/gamerbot/core/logger"
	"github.com/m3rciful/gamerbot/internal/domain"
)

const maxTitleLen = 100

type catalogFile struct {
	Games []domain.Game `yaml:"games"`
}

// LoadCatalog reads and validates a games YAML file.
func LoadCatalog(path string) ([]domain.Game, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	seen := make(map[int64]struct{}, len(file.Games))
	for i, g := range file.Games {
		g.Title = strings.TrimSpace(g.Title)
		switch {
		case g.ID <= 0:
			return nil, fmt.Errorf("games[%d]: id must be positive", i)
		case g.Title == "":
			return nil, fmt.Errorf("games[%d]: title is required", i)
		case utf8.RuneCountInString(g.Title) > maxTitleLen:
			return nil, fmt.Errorf("games[%d]: title longer than %d", i, maxTitleLen)
		}
		if _, dup := seen[g.ID]; dup {
			return nil, fmt.Errorf("games[%d]: duplicate id %d", i, g.ID)
		}
		seen[g.ID] = struct{}{}
		file.Games[i] = g
	}
	return file.Games, nil
}

// SeedCatalog loads path into c. A missing file is skipped.
func SeedCatalog(ctx context.Context, c Catalog, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	games, err := LoadCatalog(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.LogEvent(ctx, logger.SEED, slog.LevelWarn, "db.seed.skip",
			slog.String("path", path),
			slog.String("status", "skip"),
		)
		return nil
	}
	if err != nil {
		return err
	}
	if err := c.UpsertGames(ctx, games); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "db.seed.games",
		slog.String("path", path),
		slog.Int("count", len(games)),
	)
	return nil
}

// GamesSeeder seeds the Postgres catalog from a YAML file during bootstrap.
func GamesSeeder(path string) bootstrap.Seeder {
	return bootstrap.SeederFunc{
		Label: "games",
		Fn: func(ctx context.Context, db *sqlx.DB) error {
			return SeedCatalog(ctx, NewPostgres(db), path)
		},
	}
}
