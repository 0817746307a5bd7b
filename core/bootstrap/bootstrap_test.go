package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/gamerbot/core/config"
	coredatabase "github.com/m3rciful/gamerbot/core/database"
)

func stubOptions(calls *[]string) Options {
	return Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { *calls = append(*calls, "logger"); return nil },
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			*calls = append(*calls, "connect")
			return nil, nil
		},
		Migrate: func(context.Context, coredatabase.Config) error { *calls = append(*calls, "migrate"); return nil },
	}
}

func seeder(name string, calls *[]string, err error) Seeder {
	return SeederFunc{Label: name, Fn: func(context.Context, *sqlx.DB) error {
		*calls = append(*calls, name)
		return err
	}}
}

func TestRunOrder(t *testing.T) {
	var calls []string
	opts := stubOptions(&calls)
	opts.Seeders = []Seeder{seeder("games", &calls, nil), nil, seeder("extra", &calls, nil)}

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []string{"logger", "connect", "migrate", "games", "extra"}, calls)
}

func TestRunStopsOnSeederFailure(t *testing.T) {
	var calls []string
	opts := stubOptions(&calls)
	boom := errors.New("boom")
	opts.Seeders = []Seeder{seeder("games", &calls, boom), seeder("extra", &calls, nil)}

	_, err := Run(context.Background(), opts)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "seed games")
	assert.NotContains(t, calls, "extra")
}

func TestRunFailures(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)

	var calls []string
	opts := stubOptions(&calls)
	opts.Migrate = func(context.Context, coredatabase.Config) error { return errors.New("dirty") }
	_, err = Run(context.Background(), opts)
	assert.ErrorContains(t, err, "migrations failed")

	opts = stubOptions(&calls)
	opts.Connect = func(context.Context, coredatabase.Config) (*sqlx.DB, error) { return nil, errors.New("refused") }
	_, err = Run(context.Background(), opts)
	assert.ErrorContains(t, err, "database initialization failed")
}
