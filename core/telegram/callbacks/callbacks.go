// Package callbacks decodes the callback data telebot attaches to inline buttons.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse returns the button's unique key and payload.
// Telebot encodes data buttons as "\f<unique>|<payload>"; the payload may be empty.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Key returns the unique key of the current callback.
func Key(c tele.Context) string {
	key, _ := Parse(c.Callback())
	return key
}
