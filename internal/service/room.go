package service

import (
	"sync"
	"time"

	"github.com/arfandy/coup-server/pkg/coup"
)

// Room is one live game plus the lock that serializes every request touching
// it. The engine itself is lock-free; all access goes through these methods.
type Room struct {
	ID int

	mu         sync.Mutex
	game       *coup.Game
	createdAt  time.Time
	lastActive time.Time
}

func (r *Room) touch() {
	r.lastActive = time.Now()
}

// join seats a player. Callers hold no lock; returns the seat id and whether
// the room had space.
func (r *Room) join(name string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	return r.game.AddPlayer(name)
}

// hasOpenSeat reports whether the room is still waiting for players.
func (r *Room) hasOpenSeat() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Phase() == coup.PhaseWaitingForPlayers && r.game.PlayerCount() < coup.NumSeats
}

// View projects the room for one seat. Read-only with respect to the game,
// but still serialized by the room lock for a coherent snapshot.
func (r *Room) View(playerID int) (coup.View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	return r.game.ViewFor(playerID)
}

// Apply feeds one /action request to the state machine and reports the
// resulting phase and narration.
func (r *Room) Apply(playerID int, in coup.Input) (coup.Phase, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	r.game.HandleInput(playerID, in)
	return r.game.Phase(), r.game.Message()
}

// Quit eliminates a seat immediately and unwinds any sub-protocol waiting
// on it.
func (r *Room) Quit(playerID int) (coup.Phase, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	r.game.Eliminate(playerID)
	return r.game.Phase(), r.game.Message()
}

// Phase returns the room's current phase.
func (r *Room) Phase() coup.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Phase()
}

// idleFor reports how long the room has gone without a request.
func (r *Room) idleFor(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return now.Sub(r.lastActive)
}

// result snapshots the fields the archive keeps for a finished game.
func (r *Room) result() GameResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return GameResult{
		Winner:   r.game.Winner(),
		Message:  r.game.Message(),
		Turns:    r.game.Turns(),
		Duration: time.Since(r.createdAt),
	}
}
