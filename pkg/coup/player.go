package coup

// Player is one of the four seats in a room.
type Player struct {
	ID        int
	Name      string
	Coins     int
	Influence []Role // hidden hand, 0-2 cards
}

// Eliminated reports whether the seat has lost all influence.
func (p *Player) Eliminated() bool {
	return len(p.Influence) == 0
}

// HasCard reports whether the hand contains the given role.
func (p *Player) HasCard(r Role) bool {
	for _, c := range p.Influence {
		if c == r {
			return true
		}
	}
	return false
}

// removeCard removes one copy of r from the hand. Returns false if absent.
func (p *Player) removeCard(r Role) bool {
	for i, c := range p.Influence {
		if c == r {
			p.Influence = append(p.Influence[:i], p.Influence[i+1:]...)
			return true
		}
	}
	return false
}
