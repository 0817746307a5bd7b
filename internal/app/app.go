// Package app wires configuration, storage and the Telegram runtime into a runnable bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/gamerbot/core/bootstrap"
	"github.com/m3rciful/gamerbot/core/cmd"
	coreconfig "github.com/m3rciful/gamerbot/core/config"
	coredatabase "github.com/m3rciful/gamerbot/core/database"
	"github.com/m3rciful/gamerbot/core/logger"
	tg "github.com/m3rciful/gamerbot/core/telegram"
	"github.com/m3rciful/gamerbot/core/telegram/router"
	"github.com/m3rciful/gamerbot/internal/bot"
	"github.com/m3rciful/gamerbot/internal/config"
	"github.com/m3rciful/gamerbot/internal/directory"
	"github.com/m3rciful/gamerbot/internal/matchmaking"
	"github.com/m3rciful/gamerbot/internal/registration"
	"github.com/m3rciful/gamerbot/internal/session"
	"github.com/m3rciful/gamerbot/internal/transport"
)

const component = "app"

// Hooks replace infrastructure steps; nil fields select the core defaults.
type Hooks struct {
	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error
	// Directory overrides the Postgres directory built from the pool.
	Directory func(*sqlx.DB) directory.Directory
}

// App holds the wired services for one bot process.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	cache     *directory.Cached
	registry  *tg.Registry
	router    *bot.Router
	transport *transport.Telegram
	sessions  *session.Store
}

// Bootstrap adapts New to the shared cmd runner.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(ctx, cfg, Hooks{})
}

// LoadConfig adapts config.Load to the shared cmd runner.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	return config.Load(path)
}

// New runs the bootstrap pipeline and builds every service.
func New(ctx context.Context, cfg *config.Config, hooks Hooks) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}

	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Seeders:    []bootstrap.Seeder{directory.GamesSeeder(cfg.Bot.GamesFile)},
		LoggerInit: hooks.LoggerInit,
		Connect:    hooks.Connect,
		Migrate:    hooks.Migrate,
	})
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, db: res.DB}

	var dir directory.Directory
	if hooks.Directory != nil {
		dir = hooks.Directory(res.DB)
	} else {
		dir = directory.NewPostgres(res.DB)
	}

	if cfg.Redis.Enabled() {
		cached, err := directory.NewCached(ctx, dir, cfg.Redis)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		a.cache = cached
		// The seeder may have changed the catalog behind the cache.
		if err := cached.InvalidateGames(ctx); err != nil {
			logger.Warn(ctx, component, "cache.invalidate", slog.String("err", err.Error()))
		}
		dir = cached
	}

	a.sessions = session.NewStore(cfg.Bot.SessionShards)
	a.transport = transport.NewTelegram(dir, transport.Options{GamesPerRow: cfg.Bot.GamesPerRow})
	a.router = bot.NewRouter(bot.Deps{
		Directory: dir,
		Sessions:  a.sessions,
		Registration: registration.New(dir, registration.Config{
			NameMaxLen: cfg.Bot.NameMaxLen,
			BioMaxLen:  cfg.Bot.BioMaxLen,
		}),
		Matchmaking: matchmaking.New(dir, a.transport),
		Transport:   a.transport,
	})

	a.registry = tg.NewRegistry()
	if err := a.router.Register(a.registry); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	logger.Info(ctx, component, "app.wired",
		slog.Int("commands", a.registry.CommandCount()),
		slog.Bool("cache", a.cache != nil),
		slog.Int("session_shards", cfg.Bot.SessionShards),
	)
	return a, nil
}

// TelegramRunOptions describes routes, middlewares and lifecycle hooks for the runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a == nil || a.registry == nil {
		return tg.RunOptions{}, errors.New("app: not initialized")
	}
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{NonText: a.router.OnNonText})...)
	routes = append(routes, router.CallbackRoute(a.registry))

	return tg.RunOptions{
		Config:            core,
		Registry:          a.registry,
		DispatcherOptions: a.cfg.Sender.Options(),
		Middlewares:       tg.DefaultMiddlewares(core, a.router.OnRateLimited),
		Routes:            routes,
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			if rt.Bot == nil {
				return errors.New("app: runtime without bot")
			}
			a.transport.Attach(rt.Bot, rt.Dispatcher)
			logger.Info(ctx, component, "transport.attached", slog.Int("callbacks", len(a.registry.ListCallbacks())))
			return nil
		},
		OnStop: func(ctx context.Context, rt tg.Runtime) error {
			attrs := []slog.Attr{slog.Int("sessions", a.sessions.Len())}
			if rt.Dispatcher != nil {
				attrs = append(attrs, slog.Uint64("send_errors", rt.Dispatcher.ErrorCount()))
			}
			logger.Info(ctx, component, "app.stop_stats", attrs...)
			return nil
		},
	}, nil
}

// Close releases the cache client and the database pool.
func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}
