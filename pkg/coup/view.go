package coup

// View is the per-seat projection of a room returned by /state. It is an
// immutable snapshot: slices are copied, and the caller's own hand is the
// only hidden information it ever carries.
type View struct {
	GameState        Phase        `json:"game_state"`
	Message          string       `json:"message"`
	YourID           int          `json:"your_id"`
	YourCards        []Role       `json:"your_cards"`
	Players          []PlayerView `json:"players"`
	CurrentPlayerIdx int          `json:"current_player_idx"`
	UIContext        UIContext    `json:"ui_context"`
}

// PlayerView is the public face of a seat: everyone sees coins and the card
// count, never the cards.
type PlayerView struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Coins          int    `json:"coins"`
	InfluenceCount int    `json:"influence_count"`
	IsOut          bool   `json:"is_out"`
}

// UIContext tags for the decision a seat is being asked to make.
const (
	UISelectingTarget    = "selecting_target"
	UIBroadcastResponse  = "broadcast_response"
	UIChallengeBlock     = "challenge_block"
	UILoseInfluence      = "lose_influence"
	UIAmbassadorExchange = "ambassador_exchange"
)

// UIContext describes the single decision the viewing seat is empowered to
// make right now. A zero value (empty type) means no input is expected.
type UIContext struct {
	Type         string     `json:"type,omitempty"`
	Action       ActionName `json:"action,omitempty"`
	CanChallenge bool       `json:"can_challenge,omitempty"`
	CanBlock     bool       `json:"can_block,omitempty"`
	Cards        []Role     `json:"cards,omitempty"`
	NumToKeep    int        `json:"num_to_keep,omitempty"`
}

// ViewFor projects the room for one seat. Returns false if the seat id has
// not joined this room. Never mutates the game.
func (g *Game) ViewFor(playerID int) (View, bool) {
	if playerID < 0 || playerID >= len(g.players) {
		return View{}, false
	}
	me := g.players[playerID]

	v := View{
		GameState:        g.phase,
		Message:          g.message,
		YourID:           me.ID,
		YourCards:        append([]Role(nil), me.Influence...),
		CurrentPlayerIdx: g.currentIdx,
	}
	for _, p := range g.players {
		v.Players = append(v.Players, PlayerView{
			ID:             p.ID,
			Name:           p.Name,
			Coins:          p.Coins,
			InfluenceCount: len(p.Influence),
			IsOut:          p.Eliminated(),
		})
	}

	if me.Eliminated() {
		return v, true
	}

	switch g.phase {
	case PhaseSelectingTarget:
		if g.actor != nil && g.actor.ID == playerID {
			v.UIContext = UIContext{Type: UISelectingTarget, Action: g.action}
		}
	case PhaseAwaitingResponse:
		if g.isResponder(playerID) && !g.passed[playerID] {
			attrs := g.action.Attrs()
			v.UIContext = UIContext{
				Type:         UIBroadcastResponse,
				Action:       g.action,
				CanChallenge: attrs.Challengeable(),
				CanBlock:     len(attrs.BlockableBy) > 0,
			}
		}
	case PhaseAwaitingBlockChallenge:
		if g.actor != nil && g.actor.ID == playerID {
			v.UIContext = UIContext{Type: UIChallengeBlock}
		}
	case PhaseChoosingInfluence:
		if g.losing != nil && g.losing.ID == playerID {
			v.UIContext = UIContext{
				Type:  UILoseInfluence,
				Cards: append([]Role(nil), g.losing.Influence...),
			}
		}
	case PhaseAmbassadorExchange:
		if g.actor != nil && g.actor.ID == playerID {
			v.UIContext = UIContext{
				Type:      UIAmbassadorExchange,
				Cards:     append([]Role(nil), g.pool...),
				NumToKeep: g.poolKeep,
			}
		}
	}
	return v, true
}
