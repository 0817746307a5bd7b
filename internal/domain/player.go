package domain

import "strings"

// Game is read-only catalog data.
type Game struct {
	ID          int64  `db:"id" json:"id" yaml:"id"`
	Title       string `db:"title" json:"title" yaml:"title"`
	Genre       string `db:"genre" json:"genre" yaml:"genre"`
	Description string `db:"description" json:"description" yaml:"description"`
	Poster      string `db:"poster" json:"poster" yaml:"poster"`
}

// Player is a registered (or registering) bot user keyed by Telegram user id.
type Player struct {
	ID            int64
	Name          string
	Bio           string
	PreferredGame *Game
	SearchEnabled bool
}

// Field names a single mutable Player attribute for partial saves.
type Field string

const (
	FieldName          Field = "name"
	FieldBio           Field = "bio"
	FieldPreferredGame Field = "preferred_game"
	FieldSearchEnabled Field = "search_enabled"
)

// NewPlayer returns a blank player with search enabled.
func NewPlayer(id int64) Player {
	return Player{ID: id, SearchEnabled: true}
}

// HasName reports whether a non-blank name is set.
func (p Player) HasName() bool { return strings.TrimSpace(p.Name) != "" }

// HasBio reports whether a non-blank bio is set.
func (p Player) HasBio() bool { return strings.TrimSpace(p.Bio) != "" }

// HasPreferredGame reports whether a favourite game is chosen.
func (p Player) HasPreferredGame() bool { return p.PreferredGame != nil }

// PreferredGameID returns the favourite game id, if any.
func (p Player) PreferredGameID() (int64, bool) {
	if p.PreferredGame == nil {
		return 0, false
	}
	return p.PreferredGame.ID, true
}

// Step computes the registration step from the filled fields.
func (p Player) Step() Step {
	switch {
	case !p.HasName():
		return StepNamePending
	case !p.HasBio():
		return StepBioPending
	case !p.HasPreferredGame():
		return StepGamePending
	default:
		return StepDone
	}
}

// Registered reports whether onboarding is complete.
func (p Player) Registered() bool { return p.Step() == StepDone }

// Clear unsets one field. Only profile fields can be cleared.
func (p *Player) Clear(f Field) bool {
	switch f {
	case FieldName:
		p.Name = ""
	case FieldBio:
		p.Bio = ""
	case FieldPreferredGame:
		p.PreferredGame = nil
	default:
		return false
	}
	return true
}
