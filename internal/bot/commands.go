package bot

import (
	"context"

	"github.com/m3rciful/gamerbot/internal/domain"
	"github.com/m3rciful/gamerbot/internal/session"
	"github.com/m3rciful/gamerbot/internal/transport"
)

// Command names understood by the router.
const (
	cmdRegistration  = "/registration"
	cmdCommands      = "/commands"
	cmdChangeName    = "/change_steam_name"
	cmdChangeAbout   = "/change_about"
	cmdChangeGame    = "/change_game"
	cmdEnableSearch  = "/enableSearch"
	cmdDisableSearch = "/disableSearch"
	cmdFind          = "/find"
	cmdNext          = "/next"
	cmdInvite        = "/invite"
	cmdCancel        = "/cancel"
)

// call is the input of one command for a registered player.
type call struct {
	sess   *session.Handle
	player *domain.Player
	ev     Event
}

// Command is one entry of the command table.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	// Hidden commands work but are not listed.
	Hidden bool
	run    func(ctx context.Context, c call) error
}

// Commands returns the command table in listing order.
func (r *Router) Commands() []Command {
	return append([]Command(nil), r.commands...)
}

func (r *Router) commandTable() []Command {
	reset := func(f domain.Field) func(context.Context, call) error {
		return func(ctx context.Context, c call) error {
			prompt, err := r.reg.Reset(ctx, c.player, f)
			return r.answer(ctx, c.player.ID, prompt, err)
		}
	}
	visibility := func(enabled bool) func(context.Context, call) error {
		return func(ctx context.Context, c call) error {
			prompt, err := r.reg.SetSearchEnabled(ctx, c.player, enabled)
			return r.answer(ctx, c.player.ID, prompt, err)
		}
	}

	return []Command{
		{
			Name: cmdRegistration, Aliases: []string{"/start"}, Description: "start or check registration",
			run: func(ctx context.Context, c call) error {
				return r.advance(ctx, c.player, c.ev.Text, true)
			},
		},
		{
			Name: cmdCommands, Aliases: []string{"/help"}, Description: "list commands",
			run: func(ctx context.Context, c call) error {
				return r.tr.Send(ctx, c.player.ID, r.commandList(), transport.KeyboardNone)
			},
		},
		{Name: cmdFind, Description: "find teammates", run: func(ctx context.Context, c call) error {
			return r.mm.ToggleSearch(ctx, c.sess, *c.player, c.ev)
		}},
		{Name: cmdNext, Description: "show the next player", run: func(ctx context.Context, c call) error {
			return r.mm.Next(ctx, c.sess, *c.player)
		}},
		{Name: cmdInvite, Description: "invite the shown player", run: func(ctx context.Context, c call) error {
			return r.mm.Invite(ctx, c.sess, *c.player, c.ev)
		}},
		{Name: cmdCancel, Description: "cancel game selection", run: func(ctx context.Context, c call) error {
			return r.mm.Cancel(ctx, c.sess, *c.player)
		}},
		{Name: cmdChangeName, Description: "change your Steam nickname", run: reset(domain.FieldName)},
		{Name: cmdChangeAbout, Description: "change your description", run: reset(domain.FieldBio)},
		{Name: cmdChangeGame, Description: "change your favourite game", run: reset(domain.FieldPreferredGame)},
		{Name: cmdEnableSearch, Description: "show me in searches", run: visibility(true)},
		{Name: cmdDisableSearch, Description: "hide me from searches", run: visibility(false)},
	}
}
