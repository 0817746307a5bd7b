package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gamerbot/core/logger"
	tghelpers "github.com/m3rciful/gamerbot/core/telegram/helpers"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return bot
}

func textUpdate(id int, userID int64, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
	}}
}

func callbackUpdate(id int, userID int64) tele.Update {
	return tele.Update{ID: id, Callback: &tele.Callback{
		Data:   "\fnext",
		Sender: &tele.User{ID: userID},
	}}
}

func TestRateLimitDropsBurst(t *testing.T) {
	bot := offlineBot(t)
	clock := time.Unix(1_700_000_000, 0)
	var limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return clock },
	})

	var handled int
	h := mw(func(tele.Context) error { handled++; return nil })

	require.NoError(t, h(bot.NewContext(textUpdate(1, 5, "/find"))))
	require.NoError(t, h(bot.NewContext(textUpdate(2, 5, "/next"))))
	require.NoError(t, h(bot.NewContext(textUpdate(3, 6, "/find"))))
	require.NoError(t, h(bot.NewContext(callbackUpdate(4, 5))))
	assert.Equal(t, 3, handled)
	assert.Equal(t, 1, limited)

	clock = clock.Add(1500 * time.Millisecond)
	require.NoError(t, h(bot.NewContext(textUpdate(5, 5, "/next"))))
	assert.Equal(t, 4, handled)
}

func TestMetricsCountersReachServices(t *testing.T) {
	bot := offlineBot(t)
	c := bot.NewContext(textUpdate(10, 7, "/find"))

	h := LoggerMiddleware(MessageMetricsMiddleware(func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		assert.Equal(t, logger.BuildRID(10, 7, 7), logger.RIDFrom(ctx))
		CountersFrom(ctx).Observe(false)
		CountersFrom(ctx).Observe(true)
		return nil
	}))
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
}

func TestGetCountersWithoutMiddleware(t *testing.T) {
	bot := offlineBot(t)
	msgs, kb := GetCounters(bot.NewContext(textUpdate(1, 1, "x")))
	assert.Zero(t, msgs)
	assert.False(t, kb)
	assert.Nil(t, CountersFrom(nil))
}

func TestRecoverMiddleware(t *testing.T) {
	bot := offlineBot(t)
	err := RecoverMiddleware(func(tele.Context) error { panic("boom") })(bot.NewContext(textUpdate(1, 1, "x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	sentinel := errors.New("plain")
	err = RecoverMiddleware(func(tele.Context) error { return sentinel })(bot.NewContext(textUpdate(2, 1, "x")))
	assert.ErrorIs(t, err, sentinel)
}

func TestSeenUpdates(t *testing.T) {
	s := &seenUpdates{ttl: time.Second, seen: make(map[int]time.Time)}
	now := time.Now()
	assert.True(t, s.firstTime(1, now))
	assert.False(t, s.firstTime(1, now))
	assert.True(t, s.firstTime(1, now.Add(2*time.Second)))
}
