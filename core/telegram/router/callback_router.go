package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/gamerbot/core/telegram"
	"github.com/m3rciful/gamerbot/core/telegram/callbacks"
	"github.com/m3rciful/gamerbot/core/telegram/middleware"
)

// CallbackRoute dispatches every callback query through the registry by unique key.
// The query is answered before the handler runs so the client stops its spinner.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.Parse(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.GetCallback(key)
		if !ok {
			return handleWithSummary(c, name, start, func() error {
				if fb := reg.CallbackNotFound(); fb != nil {
					return fb(c)
				}
				return nil
			}, append(extras, slog.String("cause", "not_found"))...)
		}

		_ = c.Respond()
		return handleWithSummary(c, name, start, func() error { return h(c) }, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
