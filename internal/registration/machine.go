// Package registration walks a player through name, bio and favourite game.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/gamerbot/core/logger"
	"github.com/m3rciful/gamerbot/internal/directory"
	"github.com/m3rciful/gamerbot/internal/domain"
	"github.com/m3rciful/gamerbot/internal/transport"
)

const component = "service.registration"

// Defaults for Config.
const (
	DefaultNameMaxLen = 30
	DefaultBioMaxLen  = 1000
)

// Prompt is the reply the caller sends after a registration action.
type Prompt struct {
	Text     string
	Keyboard transport.Keyboard
}

// Config bounds user input, in runes.
type Config struct {
	NameMaxLen int
	BioMaxLen  int
}

// Machine advances a player's registration one step per input.
type Machine struct {
	dir directory.Directory
	cfg Config
}

// New creates a Machine; zero limits select the defaults.
func New(dir directory.Directory, cfg Config) *Machine {
	if cfg.NameMaxLen <= 0 {
		cfg.NameMaxLen = DefaultNameMaxLen
	}
	if cfg.BioMaxLen <= 0 {
		cfg.BioMaxLen = DefaultBioMaxLen
	}
	return &Machine{dir: dir, cfg: cfg}
}

// Advance consumes input for the player's current step.
// With isStart set it only returns the prompt of the current step.
// p is updated only after the directory accepted the change; the prompt then belongs to the new step.
// Rejected input returns the corrective prompt together with a recoverable error.
func (m *Machine) Advance(ctx context.Context, p *domain.Player, input string, isStart bool) (Prompt, error) {
	step := p.Step()
	if isStart || step == domain.StepDone {
		return PromptFor(step), nil
	}

	updated := *p
	var field domain.Field
	switch step {
	case domain.StepNamePending:
		name := strings.TrimSpace(input)
		if name == "" {
			return Prompt{Text: msgNameEmpty}, domain.Invalid("empty name")
		}
		if utf8.RuneCountInString(name) > m.cfg.NameMaxLen {
			return Prompt{Text: fmt.Sprintf(msgNameTooLongFmt, m.cfg.NameMaxLen)}, domain.Invalid("name too long")
		}
		updated.Name, field = name, domain.FieldName

	case domain.StepBioPending:
		if utf8.RuneCountInString(input) > m.cfg.BioMaxLen {
			return Prompt{Text: fmt.Sprintf(msgBioTooLongFmt, m.cfg.BioMaxLen)}, domain.Invalid("bio too long")
		}
		updated.Bio, field = input, domain.FieldBio

	case domain.StepGamePending:
		game, err := m.resolveGame(ctx, input)
		if err != nil {
			if domain.KindOf(err) == domain.KindUnresolvedReference {
				return Prompt{Text: msgUnknownGame, Keyboard: transport.KeyboardGamePicker}, err
			}
			return Prompt{}, err
		}
		updated.PreferredGame, field = &game, domain.FieldPreferredGame
	}

	err := m.dir.SaveFields(ctx, updated, field)
	if field == domain.FieldPreferredGame && errors.Is(err, domain.ErrNotFound) {
		// removed from the catalog between lookup and save
		return Prompt{Text: msgUnknownGame, Keyboard: transport.KeyboardGamePicker}, domain.Unresolved("game gone", err)
	}
	if err != nil {
		return Prompt{}, fmt.Errorf("save %s: %w", field, err)
	}
	*p = updated
	next := p.Step()
	logger.Info(ctx, component, "registration.advance",
		slog.String("field", string(field)),
		slog.String("step", next.String()),
	)
	return PromptFor(next), nil
}

// Reset clears one profile field and re-prompts for it.
func (m *Machine) Reset(ctx context.Context, p *domain.Player, field domain.Field) (Prompt, error) {
	updated := *p
	if !updated.Clear(field) {
		return Prompt{}, domain.Invalid(fmt.Sprintf("field %q cannot be reset", field))
	}
	if err := m.dir.SaveFields(ctx, updated, field); err != nil {
		return Prompt{}, fmt.Errorf("reset %s: %w", field, err)
	}
	*p = updated
	logger.Info(ctx, component, "registration.reset",
		slog.String("field", string(field)),
		slog.String("step", p.Step().String()),
	)
	return m.Advance(ctx, p, "", true)
}

// SetSearchEnabled toggles whether the player shows up in other players' searches.
func (m *Machine) SetSearchEnabled(ctx context.Context, p *domain.Player, enabled bool) (Prompt, error) {
	updated := *p
	updated.SearchEnabled = enabled
	if err := m.dir.SaveFields(ctx, updated, domain.FieldSearchEnabled); err != nil {
		return Prompt{}, fmt.Errorf("save search flag: %w", err)
	}
	*p = updated
	logger.Info(ctx, component, "registration.search_visibility", slog.Bool("enabled", enabled))
	if enabled {
		return Prompt{Text: msgSearchEnabled}, nil
	}
	return Prompt{Text: msgSearchDisabled}, nil
}

// PromptFor returns the prompt bound to a step.
func PromptFor(step domain.Step) Prompt {
	switch step {
	case domain.StepNew, domain.StepNamePending:
		return Prompt{Text: msgEnterName, Keyboard: transport.KeyboardClear}
	case domain.StepBioPending:
		return Prompt{Text: msgEnterBio}
	case domain.StepGamePending:
		return Prompt{Text: msgPickGame, Keyboard: transport.KeyboardGamePicker}
	default:
		return Prompt{Text: msgDone, Keyboard: transport.KeyboardClear}
	}
}

// resolveGame maps picker input to a catalog entry.
func (m *Machine) resolveGame(ctx context.Context, input string) (domain.Game, error) {
	id, err := domain.ParseGameToken(input)
	if err != nil {
		return domain.Game{}, err
	}
	game, err := m.dir.GetGame(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Game{}, domain.Unresolved(fmt.Sprintf("game %d", id), err)
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}
