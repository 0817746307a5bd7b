// Package config loads the gamerbot configuration: the core sections plus database, redis, sender and bot.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/gamerbot/core/config"
	coredatabase "github.com/m3rciful/gamerbot/core/database"
	tgsender "github.com/m3rciful/gamerbot/core/telegram/sender"
	"github.com/m3rciful/gamerbot/internal/directory"
	"github.com/m3rciful/gamerbot/internal/registration"
)

// Upper bounds for bot limits.
const (
	// maxNameLen matches players.name VARCHAR(64).
	maxNameLen = 64
	// maxBioLen keeps a player card under the 4096 character message limit.
	maxBioLen = 3500
)

// BotConfig holds conversation settings.
type BotConfig struct {
	NameMaxLen    int    `yaml:"name_max_len" envconfig:"NAME_MAX_LEN"`
	BioMaxLen     int    `yaml:"bio_max_len" envconfig:"BIO_MAX_LEN"`
	GamesPerRow   int    `yaml:"games_per_row" envconfig:"GAMES_PER_ROW"`
	SessionShards int    `yaml:"session_shards" envconfig:"SESSION_SHARDS"`
	GamesFile     string `yaml:"games_file" envconfig:"GAMES_FILE"`
}

// SenderConfig sizes the outbound dispatcher.
type SenderConfig struct {
	QueueSize    int           `yaml:"queue_size" envconfig:"QUEUE_SIZE"`
	Workers      int           `yaml:"workers" envconfig:"WORKERS"`
	MaxRetries   int           `yaml:"max_retries" envconfig:"MAX_RETRIES"`
	RetryBackoff time.Duration `yaml:"retry_backoff" envconfig:"RETRY_BACKOFF"`
}

// Options converts the section to dispatcher options.
func (s SenderConfig) Options() tgsender.Options {
	return tgsender.Options{
		QueueSize:    s.QueueSize,
		Workers:      s.Workers,
		MaxRetries:   s.MaxRetries,
		RetryBackoff: s.RetryBackoff,
	}
}

// Config is the full application configuration.
// Environment variables use section prefixes: TELEGRAM_BOT_TOKEN, DATABASE_HOST, REDIS_URL, BOT_NAME_MAX_LEN.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config   `yaml:"database" envconfig:"DATABASE"`
	Redis    directory.CacheConfig `yaml:"redis" envconfig:"REDIS"`
	Sender   SenderConfig          `yaml:"sender" envconfig:"SENDER"`
	Bot      BotConfig             `yaml:"bot" envconfig:"BOT"`
}

// CoreConfig exposes the embedded core sections.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Default returns a configuration with every optional value filled.
func Default() Config {
	return Config{
		Redis: directory.DefaultCacheConfig(),
		Sender: SenderConfig{
			QueueSize:    256,
			Workers:      4,
			MaxRetries:   2,
			RetryBackoff: 2 * time.Second,
		},
		Bot: BotConfig{
			NameMaxLen:    registration.DefaultNameMaxLen,
			BioMaxLen:     registration.DefaultBioMaxLen,
			GamesPerRow:   3,
			SessionShards: 16,
			GamesFile:     "games.yaml",
		},
	}
}

// Load reads path over the defaults, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section in place.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return err
	}
	if err := normalizeRedis(&cfg.Redis); err != nil {
		return err
	}
	if cfg.Sender.MaxRetries < 0 {
		return errors.New("sender.max_retries must be >= 0")
	}
	return normalizeBot(&cfg.Bot)
}

func normalizeRedis(r *directory.CacheConfig) error {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL != "" && !strings.HasPrefix(r.URL, "redis://") && !strings.HasPrefix(r.URL, "rediss://") {
		return fmt.Errorf("redis.url %q must start with redis:// or rediss://", r.URL)
	}
	if r.TTL < 0 {
		return errors.New("redis.ttl must be >= 0")
	}
	return nil
}

func normalizeBot(b *BotConfig) error {
	def := Default().Bot
	if b.NameMaxLen == 0 {
		b.NameMaxLen = def.NameMaxLen
	}
	if b.BioMaxLen == 0 {
		b.BioMaxLen = def.BioMaxLen
	}
	if b.GamesPerRow == 0 {
		b.GamesPerRow = def.GamesPerRow
	}
	if b.SessionShards == 0 {
		b.SessionShards = def.SessionShards
	}
	switch {
	case b.NameMaxLen < 1 || b.NameMaxLen > maxNameLen:
		return fmt.Errorf("bot.name_max_len must be within 1..%d", maxNameLen)
	case b.BioMaxLen < 1 || b.BioMaxLen > maxBioLen:
		return fmt.Errorf("bot.bio_max_len must be within 1..%d", maxBioLen)
	case b.GamesPerRow < 1 || b.GamesPerRow > 8:
		return errors.New("bot.games_per_row must be within 1..8")
	case b.SessionShards < 1:
		return errors.New("bot.session_shards must be > 0")
	}
	b.GamesFile = strings.TrimSpace(b.GamesFile)
	return nil
}
