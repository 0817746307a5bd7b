package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/gamerbot/core/config"
	coretelegram "github.com/m3rciful/gamerbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed bool
	hooks  []string
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { a.hooks = append(a.hooks, "start"); return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { a.hooks = append(a.hooks, "stop"); return nil },
	}, nil
}

func (a *fakeApp) Close() error { a.closed = true; return nil }

func TestRunWiresHooksAndCloses(t *testing.T) {
	t.Setenv("GAMERBOT_TEST_CONFIG", "from-env.yaml")
	app := &fakeApp{}
	var loaded string
	err := Run(Options{
		ConfigEnvVar:      "GAMERBOT_TEST_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", loaded)
	assert.Equal(t, []string{"start", "stop"}, app.hooks)
	assert.True(t, app.closed)
}

func TestRunValidatesOptions(t *testing.T) {
	assert.Error(t, Run(Options{}))

	boom := errors.New("boom")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return nil, boom },
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	assert.ErrorIs(t, err, boom)

	err = Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return carrier{}, nil },
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	assert.ErrorContains(t, err, "missing core configuration")
}
