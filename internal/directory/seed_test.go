package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "games.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSeedCatalogUpserts(t *testing.T) {
	path := writeCatalog(t, `
games:
  - id: 2
    title: " CS2 "
    genre: Shooter
  - id: 1
    title: Dota 2
    genre: MOBA
`)
	m := NewMemory()
	require.NoError(t, SeedCatalog(context.Background(), m, path))

	games, err := m.ListGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Dota 2", games[0].Title)
	assert.Equal(t, "CS2", games[1].Title)
}

func TestSeedCatalogSkipsMissingFile(t *testing.T) {
	m := NewMemory()
	require.NoError(t, SeedCatalog(context.Background(), m, filepath.Join(t.TempDir(), "absent.yaml")))
	require.NoError(t, SeedCatalog(context.Background(), m, ""))
	games, err := m.ListGames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestLoadCatalogValidates(t *testing.T) {
	cases := map[string]string{
		"non-positive id": "games:\n  - id: 0\n    title: x\n",
		"missing title":   "games:\n  - id: 1\n",
		"duplicate id":    "games:\n  - id: 1\n    title: a\n  - id: 1\n    title: b\n",
		"broken yaml":     "games: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(writeCatalog(t, body))
			assert.Error(t, err)
		})
	}
}
