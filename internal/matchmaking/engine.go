// Package matchmaking runs the teammate search cycle of a player.
//
// A cycle moves through three phases kept in the player's session:
// idle, awaiting a game choice, and serving shuffled candidates one at a time.
package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/m3rciful/gamerbot/core/logger"
	"github.com/m3rciful/gamerbot/internal/directory"
	"github.com/m3rciful/gamerbot/internal/domain"
	"github.com/m3rciful/gamerbot/internal/session"
	"github.com/m3rciful/gamerbot/internal/transport"
)

const component = "service.matchmaking"

// Engine drives search cycles. It holds no per-player state of its own.
type Engine struct {
	dir  directory.Directory
	tr   transport.Transport
	rand Random
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRandom replaces the shuffle source.
func WithRandom(r Random) Option {
	return func(e *Engine) { e.rand = r }
}

// New creates an Engine.
func New(dir directory.Directory, tr transport.Transport, opts ...Option) *Engine {
	e := &Engine{dir: dir, tr: tr, rand: mathRandom{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ToggleSearch starts a new cycle, or treats ev as the game choice while one is awaited.
func (e *Engine) ToggleSearch(ctx context.Context, sess *session.Handle, p domain.Player, ev domain.Event) error {
	if sess.SearchActive() {
		return e.SelectGame(ctx, sess, p, ev)
	}
	return e.startCycle(ctx, sess, ev)
}

func (e *Engine) startCycle(ctx context.Context, sess *session.Handle, ev domain.Event) error {
	sess.Reset()
	if !ev.HasHandle() {
		if err := e.tr.Send(ctx, sess.PlayerID(), msgSetUsername, transport.KeyboardNone); err != nil {
			return err
		}
	}
	if err := e.tr.Send(ctx, sess.PlayerID(), msgPickGame, transport.KeyboardGamePicker); err != nil {
		return fmt.Errorf("send game picker: %w", err)
	}
	sess.SetPhase(session.PhaseAwaitingGame)
	logger.Info(ctx, component, "search.start", slog.String("phase", string(session.PhaseAwaitingGame)))
	return nil
}

// SelectGame reads ev.Text as a game choice and loads the shuffled candidate queue.
// An unknown game asks again instead of failing.
func (e *Engine) SelectGame(ctx context.Context, sess *session.Handle, p domain.Player, ev domain.Event) error {
	game, err := e.resolveGame(ctx, ev.Text)
	if domain.KindOf(err) == domain.KindUnresolvedReference {
		sess.ClearGameFilter()
		logger.Info(ctx, component, "search.game_unresolved", slog.String("err_code", string(domain.KindUnresolvedReference)))
		return e.startCycle(ctx, sess, ev)
	}
	if err != nil {
		sess.Reset()
		return err
	}

	sess.SetGameFilter(game.ID)
	candidates, err := e.dir.FindEligibleTeammates(ctx, p, game.ID)
	if err != nil {
		sess.Reset()
		return fmt.Errorf("find teammates: %w", err)
	}
	shuffle(e.rand, candidates)
	sess.Load(candidates)

	logger.Info(ctx, component, "search.loaded",
		slog.Int64("game_id", game.ID),
		slog.Int("candidates", len(candidates)),
	)
	if len(candidates) == 0 {
		sess.SetPhase(session.PhaseIdle)
		return e.tr.Send(ctx, p.ID, msgNoPlayers, transport.KeyboardClear)
	}
	sess.SetPhase(session.PhaseServing)
	return e.Next(ctx, sess, p)
}

// Next shows the next candidate. When the queue is exhausted it reports that,
// returns domain.ErrEmptyQueue and goes idle; the last candidate stays invitable.
func (e *Engine) Next(ctx context.Context, sess *session.Handle, p domain.Player) error {
	cand, err := sess.Pop()
	if errors.Is(err, domain.ErrEmptyQueue) {
		sess.SetPhase(session.PhaseIdle)
		if sendErr := e.tr.Send(ctx, p.ID, msgNoMorePlayers, transport.KeyboardNone); sendErr != nil {
			return sendErr
		}
		return err
	}
	if err != nil {
		return err
	}
	logger.Debug(ctx, component, "search.next",
		slog.Int64("candidate_id", cand.ID),
		slog.Int("pending", sess.Pending()),
	)
	return e.tr.Send(ctx, p.ID, Card(cand), transport.KeyboardTeammateActions)
}

// Invite notifies the current candidate that the player wants to team up.
func (e *Engine) Invite(ctx context.Context, sess *session.Handle, p domain.Player, ev domain.Event) error {
	if !ev.HasHandle() {
		if err := e.tr.Send(ctx, p.ID, msgSetUsername, transport.KeyboardNone); err != nil {
			return err
		}
		return domain.ErrMissingHandle
	}
	cand, ok := sess.Current()
	if !ok {
		if err := e.tr.Send(ctx, p.ID, msgNothingToInv, transport.KeyboardNone); err != nil {
			return err
		}
		return domain.ErrNoActiveCandidate
	}

	inviteID := uuid.NewString()
	title := e.gameTitle(ctx, sess, cand)
	if err := e.tr.Send(ctx, cand.ID, fmt.Sprintf(msgInviteFmt, ev.Username, title), transport.KeyboardNone); err != nil {
		return fmt.Errorf("notify candidate: %w", err)
	}
	if err := e.tr.Send(ctx, p.ID, fmt.Sprintf(msgInviteSentFmt, cand.Name), transport.KeyboardNone); err != nil {
		return fmt.Errorf("confirm invite: %w", err)
	}
	logger.Info(ctx, component, "search.invite",
		slog.String("invite_id", inviteID),
		slog.Int64("candidate_id", cand.ID),
	)
	return nil
}

// Cancel leaves game selection without searching.
func (e *Engine) Cancel(ctx context.Context, sess *session.Handle, p domain.Player) error {
	if !sess.SearchActive() {
		return e.tr.Send(ctx, p.ID, msgNoSearch, transport.KeyboardNone)
	}
	sess.Reset()
	logger.Info(ctx, component, "search.cancel")
	return e.tr.Send(ctx, p.ID, msgSearchCanceled, transport.KeyboardClear)
}

// Card renders a candidate profile.
func Card(p domain.Player) string {
	title := ""
	if p.PreferredGame != nil {
		title = p.PreferredGame.Title
	}
	return fmt.Sprintf(msgCardFmt, p.Name, title, p.Bio)
}

func (e *Engine) resolveGame(ctx context.Context, text string) (domain.Game, error) {
	id, err := domain.ParseGameToken(text)
	if err != nil {
		return domain.Game{}, err
	}
	game, err := e.dir.GetGame(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Game{}, domain.Unresolved(fmt.Sprintf("game %d", id), err)
	}
	return game, err
}

// gameTitle prefers the candidate's own game and falls back to the cycle filter.
func (e *Engine) gameTitle(ctx context.Context, sess *session.Handle, cand domain.Player) string {
	if cand.PreferredGame != nil && cand.PreferredGame.Title != "" {
		return cand.PreferredGame.Title
	}
	if id, ok := sess.GameFilter(); ok {
		if g, err := e.dir.GetGame(ctx, id); err == nil {
			return g.Title
		}
	}
	return "a game"
}
