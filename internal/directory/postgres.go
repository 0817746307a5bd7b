package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/gamerbot/core/logger"
	"github.com/m3rciful/gamerbot/internal/domain"
)

const playerSelect = `
SELECT p.tg_id, p.name, p.bio, p.search_enabled,
       g.id AS game_id, g.title AS game_title, g.genre AS game_genre,
       g.description AS game_description, g.poster AS game_poster
FROM players p
LEFT JOIN games g ON g.id = p.preferred_game_id`

const foreignKeyViolation = "23503"

type playerRow struct {
	ID              int64          `db:"tg_id"`
	Name            string         `db:"name"`
	Bio             string         `db:"bio"`
	SearchEnabled   bool           `db:"search_enabled"`
	GameID          sql.NullInt64  `db:"game_id"`
	GameTitle       sql.NullString `db:"game_title"`
	GameGenre       sql.NullString `db:"game_genre"`
	GameDescription sql.NullString `db:"game_description"`
	GamePoster      sql.NullString `db:"game_poster"`
}

func (r playerRow) player() domain.Player {
	p := domain.Player{ID: r.ID, Name: r.Name, Bio: r.Bio, SearchEnabled: r.SearchEnabled}
	if r.GameID.Valid {
		p.PreferredGame = &domain.Game{
			ID:          r.GameID.Int64,
			Title:       r.GameTitle.String,
			Genre:       r.GameGenre.String,
			Description: r.GameDescription.String,
			Poster:      r.GamePoster.String,
		}
	}
	return p
}

// Postgres is the sqlx-backed Directory.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) GetOrCreatePlayer(ctx context.Context, id int64) (domain.Player, bool, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO players (tg_id) VALUES ($1) ON CONFLICT (tg_id) DO NOTHING`, id)
	if err != nil {
		return domain.Player{}, false, s.fail(ctx, "get_or_create_player", start, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Player{}, false, s.fail(ctx, "get_or_create_player", start, err)
	}
	p, err := s.GetPlayer(ctx, id)
	if err != nil {
		return domain.Player{}, false, err
	}
	if n > 0 {
		logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "db.player_created",
			slog.Int64("user_id", id),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return p, n > 0, nil
}

func (s *Postgres) GetPlayer(ctx context.Context, id int64) (domain.Player, error) {
	start := time.Now()
	var row playerRow
	err := s.db.GetContext(ctx, &row, playerSelect+` WHERE p.tg_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Player{}, domain.NotFound("player")
	}
	if err != nil {
		return domain.Player{}, s.fail(ctx, "get_player", start, err)
	}
	return row.player(), nil
}

func (s *Postgres) SaveFields(ctx context.Context, p domain.Player, fields ...domain.Field) error {
	if len(fields) == 0 {
		return nil
	}
	if err := validFields(fields); err != nil {
		return err
	}
	start := time.Now()

	args := map[string]any{"tg_id": p.ID}
	sets := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		switch f {
		case domain.FieldName:
			sets = append(sets, "name = :name")
			args["name"] = p.Name
		case domain.FieldBio:
			sets = append(sets, "bio = :bio")
			args["bio"] = p.Bio
		case domain.FieldPreferredGame:
			sets = append(sets, "preferred_game_id = :preferred_game_id")
			var gameID sql.NullInt64
			if id, ok := p.PreferredGameID(); ok {
				gameID = sql.NullInt64{Int64: id, Valid: true}
			}
			args["preferred_game_id"] = gameID
		case domain.FieldSearchEnabled:
			sets = append(sets, "search_enabled = :search_enabled")
			args["search_enabled"] = p.SearchEnabled
		}
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE players SET ` + strings.Join(sets, ", ") + ` WHERE tg_id = :tg_id`
	res, err := s.db.NamedExecContext(ctx, query, args)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return domain.NotFound("game")
	}
	if err != nil {
		return s.fail(ctx, "save_fields", start, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFound("player")
	}
	logger.LogEvent(ctx, logger.DB, slog.LevelDebug, "db.save_fields",
		slog.Int64("user_id", p.ID),
		slog.String("field", joinFields(fields)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func (s *Postgres) ListGames(ctx context.Context) ([]domain.Game, error) {
	start := time.Now()
	var games []domain.Game
	err := s.db.SelectContext(ctx, &games,
		`SELECT id, title, genre, description, poster FROM games ORDER BY id`)
	if err != nil {
		return nil, s.fail(ctx, "list_games", start, err)
	}
	return games, nil
}

func (s *Postgres) GetGame(ctx context.Context, id int64) (domain.Game, error) {
	start := time.Now()
	var g domain.Game
	err := s.db.GetContext(ctx, &g,
		`SELECT id, title, genre, description, poster FROM games WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, domain.NotFound("game")
	}
	if err != nil {
		return domain.Game{}, s.fail(ctx, "get_game", start, err)
	}
	return g, nil
}

func (s *Postgres) FindEligibleTeammates(ctx context.Context, p domain.Player, gameID int64) ([]domain.Player, error) {
	start := time.Now()
	var rows []playerRow
	err := s.db.SelectContext(ctx, &rows, playerSelect+`
WHERE p.search_enabled AND p.preferred_game_id = $1 AND p.tg_id <> $2
ORDER BY p.tg_id`, gameID, p.ID)
	if err != nil {
		return nil, s.fail(ctx, "find_eligible_teammates", start, err)
	}
	out := make([]domain.Player, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.player())
	}
	logger.LogEvent(ctx, logger.DB, slog.LevelDebug, "db.find_teammates",
		slog.Int64("game_id", gameID),
		slog.Int("candidates", len(out)),
		slog.Duration("duration", logger.Took(start)),
	)
	return out, nil
}

// UpsertGames inserts or updates catalog rows by id in one transaction.
func (s *Postgres) UpsertGames(ctx context.Context, games []domain.Game) error {
	if len(games) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `
INSERT INTO games (id, title, genre, description, poster)
VALUES (:id, :title, :genre, :description, :poster)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    genre = EXCLUDED.genre,
    description = EXCLUDED.description,
    poster = EXCLUDED.poster`
	for _, g := range games {
		if _, err := tx.NamedExecContext(ctx, upsert, g); err != nil {
			return fmt.Errorf("upsert game %d: %w", g.ID, err)
		}
	}
	// keep BIGSERIAL ahead of explicit ids
	if _, err := tx.ExecContext(ctx,
		`SELECT setval(pg_get_serial_sequence('games', 'id'), (SELECT MAX(id) FROM games))`); err != nil {
		return fmt.Errorf("sync games sequence: %w", err)
	}
	return tx.Commit()
}

func (s *Postgres) fail(ctx context.Context, op string, start time.Time, err error) error {
	logger.LogEvent(ctx, logger.DB, slog.LevelError, "db.query",
		slog.String("handler", op),
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		slog.Duration("duration", logger.Took(start)),
	)
	return domain.Unavailable(op, err)
}

func joinFields(fields []domain.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
