package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/gamerbot/core/telegram"
	"github.com/m3rciful/gamerbot/core/telegram/middleware"
)

// NonTextEndpoints are the message kinds answered by TextOptions.NonText.
var NonTextEndpoints = []string{
	tele.OnPhoto,
	tele.OnDocument,
	tele.OnSticker,
	tele.OnVoice,
	tele.OnVideo,
	tele.OnVideoNote,
	tele.OnAudio,
	tele.OnAnimation,
	tele.OnLocation,
	tele.OnContact,
}

// TextOptions controls handling of non-command input.
type TextOptions struct {
	// NonText answers media and other non-text messages.
	NonText tele.HandlerFunc
}

// TextRoutes builds the OnText route: registered commands typed with arguments
// or without the slash go to their handler, everything else to the registry text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error { return cmd.Handler(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "text", start, func() error { return fb(c) })
			}
		}
		logHandlerSummary(c, "text", start, "skip", nil)
		return nil
	}

	routes := []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(text)),
	}}
	if opts.NonText == nil {
		return routes
	}

	nonText := func(c tele.Context) error {
		return handleWithSummary(c, "non_text", time.Now(), func() error { return opts.NonText(c) })
	}
	wrapped := middleware.RecoverMiddleware(middleware.LoggerMiddleware(nonText))
	for _, ep := range NonTextEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrapped})
	}
	return routes
}
