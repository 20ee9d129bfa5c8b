// Package coup implements the rules engine for four-player Coup: the deck,
// the per-seat hands and coins, the turn state machine with its challenge
// and block sub-protocols, and the per-seat view projection.
//
// The package is pure game logic: no I/O, no logging, no locking. A Game is
// not safe for concurrent use; callers serialize access (see internal/service).
package coup

import "fmt"

// Role is one of the five character cards.
type Role string

const (
	Duke       Role = "Duke"
	Captain    Role = "Captain"
	Assassin   Role = "Assassin"
	Ambassador Role = "Ambassador"
	Contessa   Role = "Contessa"
)

// copiesPerRole is how many of each role the starting deck contains.
const copiesPerRole = 3

// AllRoles returns the five roles in canonical order.
func AllRoles() []Role {
	return []Role{Duke, Captain, Assassin, Ambassador, Contessa}
}

// ParseRole validates a role name from the wire.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case Duke, Captain, Assassin, Ambassador, Contessa:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
