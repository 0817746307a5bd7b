package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gamerbot/core/logger"
	"github.com/m3rciful/gamerbot/core/telegram/keyboard"
	"github.com/m3rciful/gamerbot/core/telegram/middleware"
	tgsender "github.com/m3rciful/gamerbot/core/telegram/sender"
	"github.com/m3rciful/gamerbot/internal/domain"
)

const component = "tg.sender"

// ErrNotAttached is returned by Send before the bot is running.
var ErrNotAttached = errors.New("transport: bot not attached")

// Sender is the subset of *tele.Bot used for delivery.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Queue schedules a send asynchronously; *sender.Dispatcher implements it.
// Sends with the same key must be delivered in enqueue order.
type Queue interface {
	Enqueue(ctx context.Context, key int64, action string, run func(context.Context) error) error
}

// GameLister supplies the catalog for the game picker.
type GameLister interface {
	ListGames(ctx context.Context) ([]domain.Game, error)
}

// Options configures Telegram.
type Options struct {
	GamesPerRow int
}

// Telegram renders keyboards and sends through the bot dispatcher.
// Sends fall back to a synchronous call when the queue is missing, full or closed.
type Telegram struct {
	games       GameLister
	gamesPerRow int

	mu     sync.RWMutex
	sender Sender
	queue  Queue
}

// NewTelegram creates a transport; Attach must be called once the bot exists.
func NewTelegram(games GameLister, opts Options) *Telegram {
	if opts.GamesPerRow <= 0 {
		opts.GamesPerRow = 3
	}
	return &Telegram{games: games, gamesPerRow: opts.GamesPerRow}
}

// Attach binds the running bot and its dispatcher.
func (t *Telegram) Attach(sender Sender, queue Queue) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sender = sender
	t.queue = queue
}

func (t *Telegram) attached() (Sender, Queue) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sender, t.queue
}

// Send renders kb and delivers text to playerID.
func (t *Telegram) Send(ctx context.Context, playerID int64, text string, kb Keyboard) error {
	sender, queue := t.attached()
	if sender == nil {
		return ErrNotAttached
	}
	markup, err := t.Markup(ctx, kb)
	if err != nil {
		return err
	}

	to := recipient(playerID)
	opts := []interface{}{tele.NoPreview}
	if markup != nil {
		opts = append(opts, markup)
	}
	run := func(context.Context) error {
		_, err := sender.Send(to, text, opts...)
		return err
	}
	middleware.CountersFrom(ctx).Observe(markup != nil && kb != KeyboardClear)

	action := "send_" + kb.String()
	if queue != nil {
		err := queue.Enqueue(ctx, playerID, action, run)
		if err == nil {
			return nil
		}
		if !errors.Is(err, tgsender.ErrQueueFull) && !errors.Is(err, tgsender.ErrQueueClosed) {
			return fmt.Errorf("enqueue %s: %w", action, err)
		}
		logger.Warn(ctx, component, "sender.fallback",
			slog.String("handler", action),
			slog.String("err", err.Error()),
		)
	}
	if err := run(ctx); err != nil {
		logger.Warn(ctx, component, "sender.sync_fail",
			slog.String("handler", action),
			slog.Int64("user_id", playerID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return nil
}

// Markup builds the telebot markup for kb; nil means no markup.
func (t *Telegram) Markup(ctx context.Context, kb Keyboard) (*tele.ReplyMarkup, error) {
	switch kb {
	case KeyboardRegistrationStart:
		return keyboard.ReplyButtons([]string{RegistrationCommand}), nil
	case KeyboardGamePicker:
		if t.games == nil {
			return nil, errors.New("transport: no game catalog")
		}
		games, err := t.games.ListGames(ctx)
		if err != nil {
			return nil, fmt.Errorf("game picker: %w", err)
		}
		labels := make([]string, len(games))
		for i, g := range games {
			labels[i] = domain.PickerLabel(g)
		}
		markup := keyboard.ReplyGrid(labels, t.gamesPerRow)
		markup.OneTimeKeyboard = true
		return markup, nil
	case KeyboardTeammateActions:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: "Next", Unique: CallbackNext},
			{Text: "Invite", Unique: CallbackInvite},
		}), nil
	case KeyboardClear:
		return keyboard.RemoveKeyboard(), nil
	}
	return nil, nil
}

type recipient int64

func (r recipient) Recipient() string { return strconv.FormatInt(int64(r), 10) }
