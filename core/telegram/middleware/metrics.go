package middleware

import (
	"context"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/gamerbot/core/telegram/helpers"
)

const countersKey = "counters"

type countersCtxKey struct{}

// Counters tallies the replies produced while handling one update.
// Services sending outside tele.Context report through CountersFrom.
type Counters struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// Observe records one outbound message.
func (c *Counters) Observe(withKeyboard bool) {
	if c == nil {
		return
	}
	c.messages.Add(1)
	if withKeyboard {
		c.keyboard.Store(true)
	}
}

// Snapshot returns the message count and whether any message carried a keyboard.
func (c *Counters) Snapshot() (int, bool) {
	if c == nil {
		return 0, false
	}
	return int(c.messages.Load()), c.keyboard.Load()
}

// WithCounters stores counters in ctx.
func WithCounters(ctx context.Context, counters *Counters) context.Context {
	return context.WithValue(ctx, countersCtxKey{}, counters)
}

// CountersFrom returns the counters of the update being handled, or nil.
func CountersFrom(ctx context.Context) *Counters {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(countersCtxKey{}).(*Counters)
	return c
}

// metricsContext counts replies sent through tele.Context.
type metricsContext struct {
	tele.Context
	counters *Counters
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) observe(err error, opts []interface{}) error {
	if err == nil {
		m.counters.Observe(hasKeyboard(opts))
	}
	return err
}

// Send proxies tele.Context.Send.
func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	return m.observe(m.Context.Send(what, opts...), opts)
}

// Reply proxies tele.Context.Reply.
func (m metricsContext) Reply(what interface{}, opts ...interface{}) error {
	return m.observe(m.Context.Reply(what, opts...), opts)
}

// Edit proxies tele.Context.Edit.
func (m metricsContext) Edit(what interface{}, opts ...interface{}) error {
	return m.observe(m.Context.Edit(what, opts...), opts)
}

// MessageMetricsMiddleware attaches fresh Counters to the update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		counters := &Counters{}
		c.Set(countersKey, counters)
		tghelpers.StoreContext(c, WithCounters(tghelpers.BuildContext(c), counters))
		return next(metricsContext{Context: c, counters: counters})
	}
}

// GetCounters reads the counters attached by MessageMetricsMiddleware.
func GetCounters(c tele.Context) (int, bool) {
	counters, _ := c.Get(countersKey).(*Counters)
	return counters.Snapshot()
}
