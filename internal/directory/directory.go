// Package directory stores players and the game catalog.
package directory

import (
	"context"

	"github.com/m3rciful/gamerbot/internal/domain"
)

// Directory is the durable player and game store used by the bot.
// Infrastructure failures are reported as domain.ErrDirectoryUnavailable.
type Directory interface {
	// GetOrCreatePlayer returns the player, creating a blank record when absent.
	// The bool is true when the record was created by this call.
	GetOrCreatePlayer(ctx context.Context, id int64) (domain.Player, bool, error)
	// GetPlayer returns domain.ErrNotFound for unknown ids.
	GetPlayer(ctx context.Context, id int64) (domain.Player, error)
	// SaveFields persists only the named fields of p.
	SaveFields(ctx context.Context, p domain.Player, fields ...domain.Field) error
	// ListGames returns the catalog ordered by id.
	ListGames(ctx context.Context) ([]domain.Game, error)
	GetGame(ctx context.Context, id int64) (domain.Game, error)
	// FindEligibleTeammates returns players with search enabled whose preferred
	// game is gameID, excluding p itself.
	FindEligibleTeammates(ctx context.Context, p domain.Player, gameID int64) ([]domain.Player, error)
}

// Catalog writes game records. It is used by the seeder only.
type Catalog interface {
	UpsertGames(ctx context.Context, games []domain.Game) error
}

// Eligible reports whether candidate may be offered to requester for gameID.
func Eligible(requester, candidate domain.Player, gameID int64) bool {
	if candidate.ID == requester.ID || !candidate.SearchEnabled {
		return false
	}
	id, ok := candidate.PreferredGameID()
	return ok && id == gameID
}

func validFields(fields []domain.Field) error {
	for _, f := range fields {
		switch f {
		case domain.FieldName, domain.FieldBio, domain.FieldPreferredGame, domain.FieldSearchEnabled:
		default:
			return domain.Invalid("unknown field " + string(f))
		}
	}
	return nil
}
