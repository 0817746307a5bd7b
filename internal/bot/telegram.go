package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gamerbot/core/logger"
	tg "github.com/m3rciful/gamerbot/core/telegram"
	"github.com/m3rciful/gamerbot/core/telegram/callbacks"
	"github.com/m3rciful/gamerbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/gamerbot/core/telegram/helpers"
	"github.com/m3rciful/gamerbot/core/telegram/middleware"
	"github.com/m3rciful/gamerbot/internal/domain"
	"github.com/m3rciful/gamerbot/internal/transport"
)

// Register binds the command table, text fallback and inline callbacks to reg.
// Every text ends up in Handle, so command endpoints and plain text share one path.
func (r *Router) Register(reg *tg.Registry) error {
	for _, cmd := range r.commands {
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = strings.TrimPrefix(a, "/")
		}
		err := reg.RegisterCommand(cmd.Name, commands.Command{
			Handler:     r.OnText,
			Description: cmd.Description,
			Hidden:      cmd.Hidden,
			Aliases:     aliases,
		})
		if err != nil {
			return fmt.Errorf("register %s: %w", cmd.Name, err)
		}
	}
	reg.SetTextFallback(r.OnText)

	buttons := map[string]string{
		transport.CallbackNext:   cmdNext,
		transport.CallbackInvite: cmdInvite,
	}
	for key, command := range buttons {
		if err := reg.RegisterCallback(key, r.onCallback(command)); err != nil {
			return fmt.Errorf("register callback %s: %w", key, err)
		}
	}
	reg.SetCallbackNotFound(r.OnUnknownCallback)
	return nil
}

// OnText converts a telebot message into an Event.
func (r *Router) OnText(c tele.Context) error {
	return r.handleTelegram(c, c.Text())
}

// OnNonText answers media and other non-text messages.
func (r *Router) OnNonText(c tele.Context) error {
	ctx := requestContext(c)
	if c.Sender() == nil {
		return nil
	}
	return r.tr.Send(ctx, c.Sender().ID, msgTextOnly, transport.KeyboardNone)
}

// OnUnknownCallback answers stale or foreign inline buttons.
func (r *Router) OnUnknownCallback(c tele.Context) error {
	logger.Info(requestContext(c), component, "callback.unknown", slog.String("callback", callbacks.Key(c)))
	return c.Respond(&tele.CallbackResponse{Text: msgUnknownAction})
}

// OnRateLimited tells the player that the update was dropped; it is used by the rate limit middleware.
func (r *Router) OnRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgSlowDown})
	}
	if c.Sender() == nil {
		return nil
	}
	return r.tr.Send(requestContext(c), c.Sender().ID, msgSlowDown, transport.KeyboardNone)
}

func (r *Router) onCallback(command string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return r.handleTelegram(c, command)
	}
}

// handleTelegram runs Handle and hides recoverable errors from telebot,
// which would otherwise log them as handler failures.
func (r *Router) handleTelegram(c tele.Context, text string) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := requestContext(c)
	err := r.Handle(ctx, Event{UserID: user.ID, Username: user.Username, Text: text})
	if err != nil && domain.Recoverable(err) {
		return nil
	}
	return err
}

// requestContext carries the update's logging metadata and reply counters.
func requestContext(c tele.Context) context.Context {
	ctx := tghelpers.BuildContext(c)
	if counters, ok := c.Get("counters").(*middleware.Counters); ok && middleware.CountersFrom(ctx) == nil {
		ctx = middleware.WithCounters(ctx, counters)
	}
	return ctx
}
