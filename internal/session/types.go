// Package session keeps per-player matchmaking state in memory.
// Nothing here survives a restart.
package session

import "github.com/m3rciful/gamerbot/internal/domain"

// Phase is the matchmaking step of a single player.
type Phase string

const (
	// PhaseIdle means no search is running.
	PhaseIdle Phase = "idle"
	// PhaseAwaitingGame means the next text is read as a game choice.
	PhaseAwaitingGame Phase = "awaiting_game_choice"
	// PhaseServing means candidates are being shown one by one.
	PhaseServing Phase = "serving"
)

// Session is the mutable record stored per player.
type Session struct {
	Phase      Phase
	GameFilter *int64
	Queue      []domain.Player
	Current    *domain.Player
}

func newSession() *Session {
	return &Session{Phase: PhaseIdle}
}

// Snapshot is a detached copy of a Session.
type Snapshot struct {
	Phase      Phase
	GameFilter *int64
	Pending    int
	Current    *domain.Player
}
