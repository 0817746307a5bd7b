package matchmaking

import (
	"math/rand"

	"github.com/m3rciful/gamerbot/internal/domain"
)

// Random provides random numbers that can be replaced in tests
type Random interface {
	// IntN returns a random int in [0, n)
	IntN(n int) int
}

type mathRandom struct{}

func (mathRandom) IntN(n int) int { return rand.Intn(n) }

// shuffle is a Fisher-Yates shuffle driven by r.
func shuffle(r Random, players []domain.Player) {
	for i := len(players) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		players[i], players[j] = players[j], players[i]
	}
}
