package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/gamerbot/internal/domain"
)

var (
	dota = domain.Game{ID: 1, Title: "Dota 2", Genre: "MOBA"}
	cs2  = domain.Game{ID: 2, Title: "CS2", Genre: "Shooter"}
)

func registered(id int64, g domain.Game, search bool) domain.Player {
	return domain.Player{ID: id, Name: "p", Bio: "b", PreferredGame: &domain.Game{ID: g.ID}, SearchEnabled: search}
}

func TestMemoryGetOrCreate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(dota)

	_, err := m.GetPlayer(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, created, err := m.GetOrCreatePlayer(ctx, 5)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, p.SearchEnabled)
	assert.Equal(t, domain.StepNamePending, p.Step())

	_, created, err = m.GetOrCreatePlayer(ctx, 5)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestMemorySaveFieldsIsPartial(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(dota)
	_, _, err := m.GetOrCreatePlayer(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, m.SaveFields(ctx, domain.Player{ID: 1, Name: "Bob", Bio: "ignored"}, domain.FieldName))
	p, err := m.GetPlayer(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Bob", p.Name)
	assert.Empty(t, p.Bio)

	require.NoError(t, m.SaveFields(ctx, domain.Player{ID: 1, PreferredGame: &domain.Game{ID: dota.ID}}, domain.FieldPreferredGame))
	p, err = m.GetPlayer(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p.PreferredGame)
	assert.Equal(t, "Dota 2", p.PreferredGame.Title, "preferred game is resolved from the catalog")

	err = m.SaveFields(ctx, domain.Player{ID: 1, PreferredGame: &domain.Game{ID: 99}}, domain.FieldPreferredGame)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = m.SaveFields(ctx, domain.Player{ID: 1}, domain.Field("steam_id"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMemorySaveFieldsOfUnknownPlayer(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(dota)

	err := m.SaveFields(ctx, domain.Player{ID: 9, Name: "Ghost"}, domain.FieldName)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = m.GetPlayer(ctx, 9)
	assert.ErrorIs(t, err, domain.ErrNotFound, "a failed save creates nothing")
}

func TestMemoryEligibleTeammates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(dota, cs2)
	me := registered(1, dota, true)
	m.PutPlayer(me)
	m.PutPlayer(registered(2, dota, true))
	m.PutPlayer(registered(3, dota, false))
	m.PutPlayer(registered(4, cs2, true))
	m.PutPlayer(domain.NewPlayer(5))

	got, err := m.FindEligibleTeammates(ctx, me, dota.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, "Dota 2", got[0].PreferredGame.Title)
}

func TestMemorySearchDisabledOnlyCandidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(dota)
	me := registered(1, dota, true)
	m.PutPlayer(me)
	m.PutPlayer(registered(2, dota, false))

	got, err := m.FindEligibleTeammates(ctx, me, dota.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEligibleExcludesRequester(t *testing.T) {
	me := registered(1, dota, true)
	assert.False(t, Eligible(me, me, dota.ID))
	assert.False(t, Eligible(me, domain.NewPlayer(2), dota.ID))
	assert.True(t, Eligible(me, registered(2, dota, true), dota.ID))
	assert.False(t, Eligible(me, registered(2, dota, true), cs2.ID))
}

func TestMemoryListGamesOrdered(t *testing.T) {
	m := NewMemory(cs2, dota)
	games, err := m.ListGames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Game{dota, cs2}, games)

	_, err = m.GetGame(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
