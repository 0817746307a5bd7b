package session

import (
	"sync"

	"github.com/m3rciful/gamerbot/internal/domain"
)

const defaultShards = 16

type shard struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	// turns serializes event handling per player; entries are never removed
	turns map[int64]*sync.Mutex
}

// Store is a sharded in-memory map of sessions keyed by player id.
// Operations on different keys never contend on the same lock unless they hash to one shard.
type Store struct {
	shards []*shard
	mask   uint64
}

// NewStore creates a store with n shards rounded up to a power of two.
func NewStore(n int) *Store {
	if n <= 0 {
		n = defaultShards
	}
	size := 1
	for size < n {
		size <<= 1
	}
	s := &Store{shards: make([]*shard, size), mask: uint64(size - 1)}
	for i := range s.shards {
		s.shards[i] = &shard{
			sessions: make(map[int64]*Session),
			turns:    make(map[int64]*sync.Mutex),
		}
	}
	return s
}

func (s *Store) shardFor(id int64) *shard {
	// fibonacci hashing spreads sequential Telegram ids
	h := uint64(id) * 11400714819323198485
	return s.shards[(h>>32)&s.mask]
}

// Lock blocks until the player's previous event is done and returns the release func.
// Events of different players never wait on each other.
func (s *Store) Lock(playerID int64) (unlock func()) {
	sh := s.shardFor(playerID)
	sh.mu.Lock()
	turn, ok := sh.turns[playerID]
	if !ok {
		turn = &sync.Mutex{}
		sh.turns[playerID] = turn
	}
	sh.mu.Unlock()

	turn.Lock()
	return turn.Unlock
}

// For returns the handle the matchmaking engine uses for one player.
func (s *Store) For(playerID int64) *Handle {
	return &Handle{store: s, id: playerID}
}

// Snapshot returns a copy of the session, or defaults if none exists.
func (s *Store) Snapshot(playerID int64) Snapshot {
	sh := s.shardFor(playerID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[playerID]
	if !ok {
		return Snapshot{Phase: PhaseIdle}
	}
	snap := Snapshot{Phase: sess.Phase, Pending: len(sess.Queue)}
	if sess.GameFilter != nil {
		v := *sess.GameFilter
		snap.GameFilter = &v
	}
	if sess.Current != nil {
		c := *sess.Current
		snap.Current = &c
	}
	return snap
}

// Update runs fn on the player's session under the shard write lock, creating it if needed.
func (s *Store) Update(playerID int64, fn func(*Session)) {
	sh := s.shardFor(playerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[playerID]
	if !ok {
		sess = newSession()
		sh.sessions[playerID] = sess
	}
	fn(sess)
}

// view runs fn under the read lock; sess is nil when absent.
func (s *Store) view(playerID int64, fn func(*Session)) {
	sh := s.shardFor(playerID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	fn(sh.sessions[playerID])
}

// Clear removes the session entirely.
func (s *Store) Clear(playerID int64) {
	sh := s.shardFor(playerID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.sessions, playerID)
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

// Handle binds a Store to one player id.
type Handle struct {
	store *Store
	id    int64
}

// PlayerID returns the key this handle operates on.
func (h *Handle) PlayerID() int64 { return h.id }

// Phase returns the current phase, PhaseIdle by default.
func (h *Handle) Phase() Phase {
	phase := PhaseIdle
	h.store.view(h.id, func(s *Session) {
		if s != nil {
			phase = s.Phase
		}
	})
	return phase
}

// SearchActive reports whether the player is choosing a game.
func (h *Handle) SearchActive() bool {
	return h.Phase() == PhaseAwaitingGame
}

// SetPhase stores the phase.
func (h *Handle) SetPhase(p Phase) {
	h.store.Update(h.id, func(s *Session) { s.Phase = p })
}

// GameFilter returns the selected game id of this cycle.
func (h *Handle) GameFilter() (int64, bool) {
	var (
		id int64
		ok bool
	)
	h.store.view(h.id, func(s *Session) {
		if s != nil && s.GameFilter != nil {
			id, ok = *s.GameFilter, true
		}
	})
	return id, ok
}

// SetGameFilter stores the selected game id.
func (h *Handle) SetGameFilter(gameID int64) {
	h.store.Update(h.id, func(s *Session) { s.GameFilter = &gameID })
}

// ClearGameFilter removes the selected game id.
func (h *Handle) ClearGameFilter() {
	h.store.Update(h.id, func(s *Session) { s.GameFilter = nil })
}

// Current returns the last shown candidate.
func (h *Handle) Current() (domain.Player, bool) {
	var (
		p  domain.Player
		ok bool
	)
	h.store.view(h.id, func(s *Session) {
		if s != nil && s.Current != nil {
			p, ok = *s.Current, true
		}
	})
	return p, ok
}

// Load replaces the candidate queue. The slice is copied.
func (h *Handle) Load(queue []domain.Player) {
	cp := append([]domain.Player(nil), queue...)
	h.store.Update(h.id, func(s *Session) { s.Queue = cp })
}

// Pending returns the number of candidates not yet shown.
func (h *Handle) Pending() int {
	n := 0
	h.store.view(h.id, func(s *Session) {
		if s != nil {
			n = len(s.Queue)
		}
	})
	return n
}

// Pop takes the candidate at the back of the queue and records it as current.
// It returns domain.ErrEmptyQueue when nothing is left; Current is left untouched then.
func (h *Handle) Pop() (domain.Player, error) {
	var (
		next domain.Player
		err  error
	)
	h.store.Update(h.id, func(s *Session) {
		n := len(s.Queue)
		if n == 0 {
			err = domain.ErrEmptyQueue
			return
		}
		next = s.Queue[n-1]
		s.Queue[n-1] = domain.Player{}
		s.Queue = s.Queue[:n-1]
		cur := next
		s.Current = &cur
	})
	return next, err
}

// Reset starts a fresh cycle: idle, no filter, empty queue, no current candidate.
func (h *Handle) Reset() {
	h.store.Update(h.id, func(s *Session) {
		*s = Session{Phase: PhaseIdle}
	})
}

// Snapshot returns a copy of the session.
func (h *Handle) Snapshot() Snapshot { return h.store.Snapshot(h.id) }
