package directory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/m3rciful/gamerbot/internal/domain"
)

// Memory is an in-process Directory used by tests and local runs without Postgres.
type Memory struct {
	mu      sync.RWMutex
	players map[int64]domain.Player
	games   map[int64]domain.Game
}

// NewMemory creates an empty directory seeded with games.
func NewMemory(games ...domain.Game) *Memory {
	m := &Memory{
		players: make(map[int64]domain.Player),
		games:   make(map[int64]domain.Game, len(games)),
	}
	for _, g := range games {
		m.games[g.ID] = g
	}
	return m
}

// PutPlayer stores p as is.
func (m *Memory) PutPlayer(p domain.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = clonePlayer(p)
}

func (m *Memory) GetOrCreatePlayer(_ context.Context, id int64) (domain.Player, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[id]; ok {
		return m.resolve(p), false, nil
	}
	p := domain.NewPlayer(id)
	m.players[id] = p
	return p, true, nil
}

func (m *Memory) GetPlayer(_ context.Context, id int64) (domain.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return domain.Player{}, domain.NotFound("player")
	}
	return m.resolve(p), nil
}

func (m *Memory) SaveFields(_ context.Context, p domain.Player, fields ...domain.Field) error {
	if err := validFields(fields); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.players[p.ID]
	if !ok {
		return domain.NotFound("player")
	}
	for _, f := range fields {
		switch f {
		case domain.FieldName:
			stored.Name = p.Name
		case domain.FieldBio:
			stored.Bio = p.Bio
		case domain.FieldPreferredGame:
			if id, ok := p.PreferredGameID(); ok {
				if _, known := m.games[id]; !known {
					return domain.NotFound("game")
				}
				stored.PreferredGame = &domain.Game{ID: id}
			} else {
				stored.PreferredGame = nil
			}
		case domain.FieldSearchEnabled:
			stored.SearchEnabled = p.SearchEnabled
		}
	}
	m.players[p.ID] = stored
	return nil
}

func (m *Memory) ListGames(context.Context) ([]domain.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	games := make([]domain.Game, 0, len(m.games))
	for _, g := range m.games {
		games = append(games, g)
	}
	slices.SortFunc(games, func(a, b domain.Game) int { return cmp.Compare(a.ID, b.ID) })
	return games, nil
}

func (m *Memory) GetGame(_ context.Context, id int64) (domain.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return domain.Game{}, domain.NotFound("game")
	}
	return g, nil
}

func (m *Memory) FindEligibleTeammates(_ context.Context, p domain.Player, gameID int64) ([]domain.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Player
	for _, cand := range m.players {
		if Eligible(p, cand, gameID) {
			out = append(out, m.resolve(cand))
		}
	}
	slices.SortFunc(out, func(a, b domain.Player) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// UpsertGames replaces catalog entries by id.
func (m *Memory) UpsertGames(_ context.Context, games []domain.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range games {
		m.games[g.ID] = g
	}
	return nil
}

// resolve fills the preferred game from the catalog. Caller holds the lock.
func (m *Memory) resolve(p domain.Player) domain.Player {
	if id, ok := p.PreferredGameID(); ok {
		g, known := m.games[id]
		if !known {
			g = domain.Game{ID: id}
		}
		p.PreferredGame = &g
	}
	return p
}

func clonePlayer(p domain.Player) domain.Player {
	if p.PreferredGame != nil {
		g := *p.PreferredGame
		p.PreferredGame = &g
	}
	return p
}
