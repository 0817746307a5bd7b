package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/gamerbot/core/logger"
)

// Seeder loads reference data once the schema is migrated.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, db *sqlx.DB) error
}

// SeederFunc adapts a named function to Seeder.
type SeederFunc struct {
	Label string
	Fn    func(ctx context.Context, db *sqlx.DB) error
}

// Name returns the label used in logs.
func (f SeederFunc) Name() string { return f.Label }

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, db *sqlx.DB) error { return f.Fn(ctx, db) }

// runSeeders executes seeders in order and stops at the first failure.
func runSeeders(ctx context.Context, db *sqlx.DB, seeders []Seeder) error {
	for _, s := range seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		err := s.Seed(ctx, db)
		attrs := []slog.Attr{
			slog.String("status", logger.Status(err)),
			slog.String("handler", s.Name()),
			slog.Duration("duration", logger.Took(start)),
		}
		if err != nil {
			logger.LogEvent(ctx, logger.SEED, slog.LevelError, "db.seed", append(attrs, slog.String("err", err.Error()))...)
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "db.seed", attrs...)
	}
	return nil
}
