package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/gamerbot/core/logger"
	"github.com/m3rciful/gamerbot/internal/domain"
)

const cacheComponent = "cache"

// CacheConfig holds Redis connection and catalog TTL settings.
// An empty URL disables the cache.
type CacheConfig struct {
	URL          string        `yaml:"url" envconfig:"URL"`
	TTL          time.Duration `yaml:"ttl" envconfig:"TTL"`
	PoolSize     int           `yaml:"pool_size" envconfig:"POOL_SIZE"`
	MinIdleConns int           `yaml:"min_idle_conns" envconfig:"MIN_IDLE_CONNS"`
}

// DefaultCacheConfig returns defaults for a local Redis.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:          10 * time.Minute,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// Enabled reports whether a Redis URL is configured.
func (c CacheConfig) Enabled() bool { return c.URL != "" }

// Cached decorates a Directory with a Redis read-through cache for the game catalog.
// Player operations pass straight through. Redis failures degrade to the inner directory.
type Cached struct {
	Directory
	client *redis.Client
	cfg    CacheConfig
}

// NewCached connects to Redis and verifies the connection.
func NewCached(ctx context.Context, inner Directory, cfg CacheConfig) (*Cached, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, cacheComponent, "cache.connected",
		slog.String("addr", opts.Addr),
		slog.Duration("ttl", cfg.TTL),
	)
	return NewCachedWithClient(inner, client, cfg), nil
}

// NewCachedWithClient wraps an existing client (for testing).
func NewCachedWithClient(inner Directory, client *redis.Client, cfg CacheConfig) *Cached {
	return &Cached{Directory: inner, client: client, cfg: cfg}
}

// Close closes the Redis connection.
func (c *Cached) Close() error {
	return c.client.Close()
}

// ListGames serves the catalog from Redis, loading it from the inner directory on a miss.
func (c *Cached) ListGames(ctx context.Context) ([]domain.Game, error) {
	var games []domain.Game
	hit, err := c.get(ctx, gamesKey(), &games)
	if hit {
		c.trace(ctx, "cache.list_games", "hit")
		return games, nil
	}
	if err != nil {
		c.degrade(ctx, "list_games", err)
	}

	games, err = c.Directory.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, gamesKey(), games)
	c.trace(ctx, "cache.list_games", "miss")
	return games, nil
}

// GetGame serves one catalog entry from Redis. Unknown ids are not cached.
func (c *Cached) GetGame(ctx context.Context, id int64) (domain.Game, error) {
	var g domain.Game
	hit, err := c.get(ctx, gameKey(id), &g)
	if hit {
		c.trace(ctx, "cache.get_game", "hit", slog.Int64("game_id", id))
		return g, nil
	}
	if err != nil {
		c.degrade(ctx, "get_game", err)
	}

	g, err = c.Directory.GetGame(ctx, id)
	if err != nil {
		return domain.Game{}, err
	}
	c.set(ctx, gameKey(id), g)
	c.trace(ctx, "cache.get_game", "miss", slog.Int64("game_id", id))
	return g, nil
}

// InvalidateGames drops every cached catalog key.
func (c *Cached) InvalidateGames(ctx context.Context) error {
	keys := []string{gamesKey()}
	iter := c.client.Scan(ctx, 0, gamePattern(), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan catalog keys: %w", err)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete catalog keys: %w", err)
	}
	logger.Info(ctx, cacheComponent, "cache.invalidate", slog.Int("count", len(keys)))
	return nil
}

// get reports a hit only when a value was found and decoded.
func (c *Cached) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cached) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err == nil {
		err = c.client.Set(ctx, key, data, c.cfg.TTL).Err()
	}
	if err != nil {
		c.degrade(ctx, "set", err)
	}
}

func (c *Cached) degrade(ctx context.Context, op string, err error) {
	logger.Warn(ctx, cacheComponent, "cache.degraded",
		slog.String("handler", op),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}

func (c *Cached) trace(ctx context.Context, event, cache string, attrs ...slog.Attr) {
	if !logger.ShouldSampleDebug() {
		return
	}
	logger.Debug(ctx, cacheComponent, event, append([]slog.Attr{slog.String("cache", cache)}, attrs...)...)
}
