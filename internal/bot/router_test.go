package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/gamerbot/internal/directory"
	"github.com/m3rciful/gamerbot/internal/domain"
	"github.com/m3rciful/gamerbot/internal/matchmaking"
	"github.com/m3rciful/gamerbot/internal/registration"
	"github.com/m3rciful/gamerbot/internal/session"
	"github.com/m3rciful/gamerbot/internal/transport"
)

var dota = domain.Game{ID: 1, Title: "Dota2"}

type harness struct {
	dir      directory.Directory
	mem      *directory.Memory
	rec      *transport.Recorder
	sessions *session.Store
	router   *Router
}

func newHarness(t *testing.T, dir directory.Directory) *harness {
	t.Helper()
	mem := directory.NewMemory(dota)
	if dir == nil {
		dir = mem
	}
	rec := &transport.Recorder{}
	sessions := session.NewStore(4)
	return &harness{
		dir:      dir,
		mem:      mem,
		rec:      rec,
		sessions: sessions,
		router: NewRouter(Deps{
			Directory:    dir,
			Sessions:     sessions,
			Registration: registration.New(dir, registration.Config{}),
			Matchmaking:  matchmaking.New(dir, rec),
			Transport:    rec,
		}),
	}
}

func (h *harness) say(t *testing.T, userID int64, text string) error {
	t.Helper()
	return h.router.Handle(context.Background(), Event{UserID: userID, Username: "user" + strings.Repeat("x", int(userID%3)), Text: text})
}

func (h *harness) last(t *testing.T) transport.Message {
	t.Helper()
	m, ok := h.rec.Last()
	require.True(t, ok, "no message sent")
	return m
}

func (h *harness) register(t *testing.T, userID int64, name string) {
	t.Helper()
	for _, text := range []string{"/registration", name, name + " bio", "1 Dota2"} {
		require.NoError(t, h.say(t, userID, text))
	}
	p, err := h.mem.GetPlayer(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, p.Registered())
}

func TestUnknownPlayerMustRegister(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.say(t, 10, "hello"))
	msg := h.last(t)
	assert.Equal(t, msgPleaseRegister, msg.Text)
	assert.Equal(t, transport.KeyboardRegistrationStart, msg.Keyboard)

	_, err := h.mem.GetPlayer(context.Background(), 10)
	assert.ErrorIs(t, err, domain.ErrNotFound, "only /registration creates a record")
}

func TestStartAliasCreatesPlayer(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.say(t, 10, "/start"))
	assert.Equal(t, registration.PromptFor(domain.StepNamePending).Text, h.last(t).Text)
	_, err := h.mem.GetPlayer(context.Background(), 10)
	require.NoError(t, err)
}

func TestRegistrationFlowThroughRouter(t *testing.T) {
	h := newHarness(t, nil)
	h.register(t, 10, "Bob")
	assert.Equal(t, registration.PromptFor(domain.StepDone), registration.Prompt{Text: h.last(t).Text, Keyboard: h.last(t).Keyboard})
}

func TestCommandsDuringRegistrationOnlyReprompt(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.say(t, 10, "/registration"))
	require.NoError(t, h.say(t, 10, "/find"))

	p, err := h.mem.GetPlayer(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, p.Name)
	assert.Equal(t, registration.PromptFor(domain.StepNamePending).Text, h.last(t).Text)
}

func TestValidationErrorIsRecoverable(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.say(t, 10, "/registration"))
	err := h.say(t, 10, strings.Repeat("n", 31))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, h.last(t).Text, "30")
}

func TestUnknownTextListsCommands(t *testing.T) {
	h := newHarness(t, nil)
	h.register(t, 10, "Bob")
	require.NoError(t, h.say(t, 10, "what?"))
	text := h.last(t).Text
	assert.True(t, strings.HasPrefix(text, msgNotUnderstood))
	for _, c := range h.router.Commands() {
		assert.Contains(t, text, c.Name)
	}

	require.NoError(t, h.say(t, 10, "/help"))
	assert.True(t, strings.HasPrefix(h.last(t).Text, msgCommandList))
}

func TestSearchFlowThroughRouter(t *testing.T) {
	h := newHarness(t, nil)
	h.register(t, 10, "Bob")
	h.register(t, 11, "Ann")

	require.NoError(t, h.say(t, 10, "/find"))
	assert.Equal(t, transport.KeyboardGamePicker, h.last(t).Keyboard)
	assert.True(t, h.sessions.For(10).SearchActive())

	require.NoError(t, h.say(t, 10, "1 Dota2"))
	card := h.last(t)
	assert.Equal(t, transport.KeyboardTeammateActions, card.Keyboard)
	assert.Contains(t, card.Text, "Ann")

	h.rec.Reset()
	require.NoError(t, h.say(t, 10, "/invite"))
	assert.Len(t, h.rec.To(11), 1)

	err := h.say(t, 10, "/next")
	assert.ErrorIs(t, err, domain.ErrEmptyQueue)
	assert.Equal(t, session.PhaseIdle, h.sessions.For(10).Phase())
}

func TestCancelLeavesGameChoice(t *testing.T) {
	h := newHarness(t, nil)
	h.register(t, 10, "Bob")
	require.NoError(t, h.say(t, 10, "/find"))
	require.NoError(t, h.say(t, 10, "/cancel"))
	assert.False(t, h.sessions.For(10).SearchActive())
}

func TestProfileCommands(t *testing.T) {
	h := newHarness(t, nil)
	h.register(t, 10, "Bob")

	require.NoError(t, h.say(t, 10, "/disableSearch"))
	p, err := h.mem.GetPlayer(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, p.SearchEnabled)

	require.NoError(t, h.say(t, 10, "/enableSearch"))
	require.NoError(t, h.say(t, 10, "/change_about"))
	p, err = h.mem.GetPlayer(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, domain.StepBioPending, p.Step())
	assert.True(t, p.SearchEnabled)

	require.NoError(t, h.say(t, 10, "new bio"))
	p, err = h.mem.GetPlayer(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, p.Registered())
	assert.Equal(t, "new bio", p.Bio)
}

type downDirectory struct{ directory.Directory }

func (downDirectory) GetPlayer(context.Context, int64) (domain.Player, error) {
	return domain.Player{}, domain.Unavailable("get player", errors.New("db down"))
}

func TestDirectoryOutageIsReported(t *testing.T) {
	h := newHarness(t, downDirectory{directory.NewMemory()})
	err := h.say(t, 10, "/find")
	assert.ErrorIs(t, err, domain.ErrDirectoryUnavailable)
	assert.Equal(t, msgFailure, h.last(t).Text)
}

// slowDirectory delays player reads like a database round-trip.
type slowDirectory struct {
	*directory.Memory
	delay time.Duration
}

func (d slowDirectory) GetPlayer(ctx context.Context, id int64) (domain.Player, error) {
	time.Sleep(d.delay)
	return d.Memory.GetPlayer(ctx, id)
}

func TestEventsOfOnePlayerAreSerialized(t *testing.T) {
	h := newHarness(t, nil)
	dir := slowDirectory{Memory: h.mem, delay: 20 * time.Millisecond}
	r := NewRouter(Deps{
		Directory:    dir,
		Sessions:     h.sessions,
		Registration: registration.New(dir, registration.Config{}),
		Matchmaking:  matchmaking.New(dir, h.rec),
		Transport:    h.rec,
	})
	ctx := context.Background()
	require.NoError(t, r.Handle(ctx, Event{UserID: 7, Username: "bob", Text: "/registration"}))

	inputs := []string{"Bob", "support main"}
	var wg sync.WaitGroup
	for _, text := range inputs {
		text := text
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Handle(ctx, Event{UserID: 7, Username: "bob", Text: text}))
		}()
	}
	wg.Wait()

	p, err := h.mem.GetPlayer(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StepGamePending, p.Step(), "both inputs were stored")
	assert.ElementsMatch(t, inputs, []string{p.Name, p.Bio})
}

func TestCommandToken(t *testing.T) {
	cases := map[string]string{
		"/find":            "/find",
		"  /next now ":     "/next",
		"/invite@gamerbot": "/invite",
		"find":             "",
		"/":                "",
		"":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, CommandToken(in), "input %q", in)
	}
}
