package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/gamerbot/core/telegram"
	"github.com/m3rciful/gamerbot/core/telegram/middleware"
	"github.com/m3rciful/gamerbot/core/telegram/router"
	"github.com/m3rciful/gamerbot/internal/domain"
	"github.com/m3rciful/gamerbot/internal/transport"
)

func offlineContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b.NewContext(upd)
}

func textUpdate(id int, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: 10, Username: "bob"},
		Chat:   &tele.Chat{ID: 10},
	}}
}

func TestRegisterBindsCommandsAndCallbacks(t *testing.T) {
	h := newHarness(t, nil)
	reg := tg.NewRegistry()
	require.NoError(t, h.router.Register(reg))

	assert.Equal(t, len(h.router.Commands()), reg.CommandCount())
	key, _, ok := reg.LookupCommand("/start")
	require.True(t, ok)
	assert.Equal(t, cmdRegistration, key)
	assert.ElementsMatch(t, []string{transport.CallbackNext, transport.CallbackInvite}, reg.ListCallbacks())
	assert.NotNil(t, reg.TextFallback())

	menu := reg.ListCommands(true)
	for _, c := range menu {
		assert.NotEqual(t, "enableSearch", c.Text, "mixed-case commands stay out of the menu")
	}

	assert.Error(t, h.router.Register(reg), "second registration collides")
}

func TestTextRouteReachesRouter(t *testing.T) {
	h := newHarness(t, nil)
	reg := tg.NewRegistry()
	require.NoError(t, h.router.Register(reg))
	routes := router.TextRoutes(reg, router.TextOptions{NonText: h.router.OnNonText})

	require.NoError(t, routes[0].Handler(offlineContext(t, textUpdate(1, "hello"))))
	assert.Equal(t, msgPleaseRegister, h.last(t).Text)

	require.NoError(t, routes[0].Handler(offlineContext(t, textUpdate(2, "/registration"))))
	require.NoError(t, routes[0].Handler(offlineContext(t, textUpdate(3, "Bob"))))
	p, err := h.mem.GetPlayer(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Bob", p.Name)

	require.NoError(t, routes[1].Handler(offlineContext(t, tele.Update{ID: 4, Message: &tele.Message{
		Sender: &tele.User{ID: 10}, Chat: &tele.Chat{ID: 10}, Photo: &tele.Photo{},
	}})))
	assert.Equal(t, msgTextOnly, h.last(t).Text)
}

func TestRecoverableErrorsAreNotHandlerFailures(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.router.OnText(offlineContext(t, textUpdate(1, "/registration"))))
	assert.NoError(t, h.router.OnText(offlineContext(t, textUpdate(2, "   "))), "validation is answered, not failed")
}

func TestCallbackMapsToCommand(t *testing.T) {
	h := newHarness(t, nil)
	h.register(t, 10, "Bob")

	c := offlineContext(t, tele.Update{ID: 5, Callback: &tele.Callback{
		ID: "cb", Data: "\fnext", Sender: &tele.User{ID: 10, Username: "bob"},
	}})
	require.NoError(t, h.router.onCallback(cmdNext)(c))
	assert.Contains(t, h.last(t).Text, "No more players")
}

func TestCountersReachTransportContext(t *testing.T) {
	c := offlineContext(t, textUpdate(1, "x"))
	counters := &middleware.Counters{}
	c.Set("counters", counters)
	ctx := requestContext(c)
	assert.Same(t, counters, middleware.CountersFrom(ctx))
}

func TestRateLimitedMessageIsAnswered(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.router.OnRateLimited(offlineContext(t, textUpdate(1, "support main"))))
	msg := h.last(t)
	assert.Equal(t, int64(10), msg.To)
	assert.Equal(t, msgSlowDown, msg.Text)

	_, err := h.mem.GetPlayer(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrNotFound, "the dropped text is not handled")
}
