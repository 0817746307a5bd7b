// Package bot routes inbound player messages to registration and matchmaking.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/gamerbot/core/logger"
	"github.com/m3rciful/gamerbot/internal/directory"
	"github.com/m3rciful/gamerbot/internal/domain"
	"github.com/m3rciful/gamerbot/internal/matchmaking"
	"github.com/m3rciful/gamerbot/internal/registration"
	"github.com/m3rciful/gamerbot/internal/session"
	"github.com/m3rciful/gamerbot/internal/transport"
)

const component = "service.router"

// Event is one inbound text.
type Event = domain.Event

// Deps are the collaborators of a Router.
type Deps struct {
	Directory    directory.Directory
	Sessions     *session.Store
	Registration *registration.Machine
	Matchmaking  *matchmaking.Engine
	Transport    transport.Transport
}

// Router decides which component handles an event.
type Router struct {
	dir      directory.Directory
	sessions *session.Store
	reg      *registration.Machine
	mm       *matchmaking.Engine
	tr       transport.Transport

	commands []Command
	index    map[string]int
}

// NewRouter builds the router and its command table.
func NewRouter(d Deps) *Router {
	r := &Router{
		dir:      d.Directory,
		sessions: d.Sessions,
		reg:      d.Registration,
		mm:       d.Matchmaking,
		tr:       d.Transport,
	}
	r.commands = r.commandTable()
	r.index = make(map[string]int, len(r.commands))
	for i, c := range r.commands {
		r.index[c.Name] = i
		for _, a := range c.Aliases {
			r.index[a] = i
		}
	}
	return r
}

// Handle processes one event. Recoverable errors were already answered
// with a prompt; any other error gets a generic failure reply.
// Events of one player are handled one at a time in arrival order of the lock.
func (r *Router) Handle(ctx context.Context, ev Event) error {
	unlock := r.sessions.Lock(ev.UserID)
	defer unlock()

	start := time.Now()
	route, err := r.dispatch(ctx, ev)
	err = r.fail(ctx, ev.UserID, err)
	r.logOutcome(ctx, ev, route, start, err)
	return err
}

// dispatch returns the route taken and the unreported error.
func (r *Router) dispatch(ctx context.Context, ev Event) (string, error) {
	p, err := r.dir.GetPlayer(ctx, ev.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return "unregistered", r.onUnregistered(ctx, ev)
	}
	if err != nil {
		return "lookup", err
	}

	if !p.Registered() {
		return "registration", r.onRegistering(ctx, &p, ev)
	}

	sess := r.sessions.For(p.ID)
	cmd, isCmd := r.lookup(ev.Text)
	if sess.SearchActive() {
		if isCmd && cmd.Name == cmdCancel {
			return cmdCancel, r.mm.Cancel(ctx, sess, p)
		}
		return "game_choice", r.mm.ToggleSearch(ctx, sess, p, ev)
	}

	if !isCmd {
		return "default", r.tr.Send(ctx, p.ID, msgNotUnderstood+"\n"+r.commandList(), transport.KeyboardNone)
	}
	return cmd.Name, cmd.run(ctx, call{sess: sess, player: &p, ev: ev})
}

func (r *Router) onUnregistered(ctx context.Context, ev Event) error {
	if cmd, ok := r.lookup(ev.Text); !ok || cmd.Name != cmdRegistration {
		return r.tr.Send(ctx, ev.UserID, msgPleaseRegister, transport.KeyboardRegistrationStart)
	}
	p, created, err := r.dir.GetOrCreatePlayer(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if created {
		logger.Info(ctx, component, "player.created")
	}
	return r.advance(ctx, &p, ev.Text, true)
}

// onRegistering feeds text to the registration machine. Known commands only
// repeat the current prompt so they are never stored as profile data.
func (r *Router) onRegistering(ctx context.Context, p *domain.Player, ev Event) error {
	_, isCmd := r.lookup(ev.Text)
	return r.advance(ctx, p, ev.Text, isCmd)
}

func (r *Router) advance(ctx context.Context, p *domain.Player, input string, isStart bool) error {
	prompt, err := r.reg.Advance(ctx, p, input, isStart)
	return r.answer(ctx, p.ID, prompt, err)
}

// answer sends a prompt when there is one and returns err.
func (r *Router) answer(ctx context.Context, playerID int64, prompt registration.Prompt, err error) error {
	if prompt.Text != "" {
		if sendErr := r.tr.Send(ctx, playerID, prompt.Text, prompt.Keyboard); sendErr != nil && err == nil {
			err = sendErr
		}
	}
	return err
}

// fail reports infrastructure errors to the player and passes err through.
func (r *Router) fail(ctx context.Context, playerID int64, err error) error {
	if err == nil || domain.Recoverable(err) {
		return err
	}
	if sendErr := r.tr.Send(ctx, playerID, msgFailure, transport.KeyboardNone); sendErr != nil {
		logger.Warn(ctx, component, "router.failure_reply", slog.String("err", sendErr.Error()))
	}
	return err
}

// lookup resolves the leading "/command" token, ignoring arguments and a "@bot" suffix.
func (r *Router) lookup(text string) (Command, bool) {
	token := CommandToken(text)
	if token == "" {
		return Command{}, false
	}
	i, ok := r.index[token]
	if !ok {
		return Command{}, false
	}
	return r.commands[i], true
}

// CommandToken returns the "/command" prefix of text or "".
func CommandToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	token, _, _ := strings.Cut(fields[0], "@")
	if token == "/" {
		return ""
	}
	return token
}

func (r *Router) commandList() string {
	var b strings.Builder
	b.WriteString(msgCommandList)
	for _, c := range r.commands {
		if c.Hidden {
			continue
		}
		fmt.Fprintf(&b, "\n%s - %s", c.Name, c.Description)
	}
	return b.String()
}

func (r *Router) logOutcome(ctx context.Context, ev Event, route string, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("handler", route),
		slog.String("status", logger.Status(err)),
		slog.String("phase", string(r.sessions.For(ev.UserID).Phase())),
		slog.Duration("duration", logger.Took(start)),
	}
	if err == nil {
		logger.Debug(ctx, component, "router.handle", attrs...)
		return
	}
	attrs = append(attrs, slog.String("err_code", string(domain.KindOf(err))))
	if domain.Recoverable(err) {
		logger.Info(ctx, component, "router.handle", attrs...)
		return
	}
	logger.Error(ctx, component, "router.handle", append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))...)
}
