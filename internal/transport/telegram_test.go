package transport

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gamerbot/core/telegram/middleware"
	tgsender "github.com/m3rciful/gamerbot/core/telegram/sender"
	"github.com/m3rciful/gamerbot/internal/domain"
)

type sent struct {
	to     string
	text   string
	markup *tele.ReplyMarkup
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := sent{to: to.Recipient(), text: what.(string)}
	for _, o := range opts {
		if m, ok := o.(*tele.ReplyMarkup); ok {
			s.markup = m
		}
	}
	f.sent = append(f.sent, s)
	return &tele.Message{}, f.err
}

type fakeQueue struct {
	err     error
	actions []string
	keys    []int64
	jobs    []func(context.Context) error
}

func (q *fakeQueue) Enqueue(_ context.Context, key int64, action string, run func(context.Context) error) error {
	if q.err != nil {
		return q.err
	}
	q.keys = append(q.keys, key)
	q.actions = append(q.actions, action)
	q.jobs = append(q.jobs, run)
	return nil
}

type games []domain.Game

func (g games) ListGames(context.Context) ([]domain.Game, error) { return g, nil }

type brokenCatalog struct{}

func (brokenCatalog) ListGames(context.Context) ([]domain.Game, error) {
	return nil, domain.Unavailable("list games", errors.New("down"))
}

func catalog() games {
	return games{{ID: 1, Title: "Dota 2"}, {ID: 2, Title: "CS2"}, {ID: 3, Title: "Apex"}, {ID: 4, Title: "LoL"}}
}

func TestSendBeforeAttach(t *testing.T) {
	tr := NewTelegram(catalog(), Options{})
	assert.ErrorIs(t, tr.Send(context.Background(), 1, "hi", KeyboardNone), ErrNotAttached)
}

func TestSendGoesThroughQueue(t *testing.T) {
	s, q := &fakeSender{}, &fakeQueue{}
	tr := NewTelegram(catalog(), Options{GamesPerRow: 3})
	tr.Attach(s, q)

	counters := &middleware.Counters{}
	ctx := middleware.WithCounters(context.Background(), counters)
	require.NoError(t, tr.Send(ctx, 42, "pick", KeyboardGamePicker))
	assert.Empty(t, s.sent, "nothing is sent before the worker runs")
	require.Equal(t, []string{"send_game_picker"}, q.actions)
	assert.Equal(t, []int64{42}, q.keys, "replies are ordered per chat")

	require.NoError(t, q.jobs[0](context.Background()))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "42", s.sent[0].to)
	require.NotNil(t, s.sent[0].markup)
	rows := s.sent[0].markup.ReplyKeyboard
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 3)
	assert.Equal(t, "1 Dota 2", rows[0][0].Text)
	assert.Equal(t, "4 LoL", rows[1][0].Text)

	n, withKB := counters.Snapshot()
	assert.Equal(t, 1, n)
	assert.True(t, withKB)
}

func TestSendFallsBackWhenQueueSaturated(t *testing.T) {
	for _, qerr := range []error{tgsender.ErrQueueFull, tgsender.ErrQueueClosed} {
		s := &fakeSender{}
		tr := NewTelegram(catalog(), Options{})
		tr.Attach(s, &fakeQueue{err: qerr})
		require.NoError(t, tr.Send(context.Background(), 7, "hello", KeyboardNone))
		require.Len(t, s.sent, 1)
		assert.Nil(t, s.sent[0].markup)
	}
}

func TestSendSurfacesUnexpectedQueueErrors(t *testing.T) {
	tr := NewTelegram(catalog(), Options{})
	tr.Attach(&fakeSender{}, &fakeQueue{err: errors.New("boom")})
	assert.ErrorContains(t, tr.Send(context.Background(), 7, "x", KeyboardNone), "boom")
}

func TestSyncDeliveryFailureIsNotReported(t *testing.T) {
	s := &fakeSender{err: tele.ErrBlockedByUser}
	tr := NewTelegram(catalog(), Options{})
	tr.Attach(s, nil)
	assert.NoError(t, tr.Send(context.Background(), 7, "x", KeyboardClear))
	require.Len(t, s.sent, 1)
	assert.True(t, s.sent[0].markup.RemoveKeyboard)
}

func TestGamePickerNeedsCatalog(t *testing.T) {
	tr := NewTelegram(brokenCatalog{}, Options{})
	tr.Attach(&fakeSender{}, nil)
	err := tr.Send(context.Background(), 1, "pick", KeyboardGamePicker)
	assert.ErrorIs(t, err, domain.ErrDirectoryUnavailable)
}

func TestTeammateActionsAreInlineCallbacks(t *testing.T) {
	tr := NewTelegram(catalog(), Options{})
	markup, err := tr.Markup(context.Background(), KeyboardTeammateActions)
	require.NoError(t, err)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, CallbackNext, markup.InlineKeyboard[0][0].Unique)
	assert.Equal(t, CallbackInvite, markup.InlineKeyboard[0][1].Unique)

	markup, err = tr.Markup(context.Background(), KeyboardRegistrationStart)
	require.NoError(t, err)
	assert.Equal(t, RegistrationCommand, markup.ReplyKeyboard[0][0].Text)

	markup, err = tr.Markup(context.Background(), KeyboardNone)
	require.NoError(t, err)
	assert.Nil(t, markup)
}

func TestKeyboardString(t *testing.T) {
	assert.Equal(t, "teammate_actions", KeyboardTeammateActions.String())
	assert.Equal(t, "unknown", Keyboard(99).String())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Send(context.Background(), 1, "a", KeyboardNone))
	require.NoError(t, r.Send(context.Background(), 2, "b", KeyboardClear))
	assert.Len(t, r.To(1), 1)
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, Message{To: 2, Text: "b", Keyboard: KeyboardClear}, last)
	r.Reset()
	assert.Empty(t, r.Messages())
}
