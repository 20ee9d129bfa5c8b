package coup

import (
	"fmt"
	"math/rand"
)

// Phase is the room state machine phase. The literals are the wire values
// the display client switches on.
type Phase string

const (
	PhaseWaitingForPlayers      Phase = "WAITING_FOR_PLAYERS"
	PhaseAwaitingAction         Phase = "AWAITING_ACTION"
	PhaseMustCoup               Phase = "MUST_COUP"
	PhaseSelectingTarget        Phase = "SELECTING_TARGET"
	PhaseAwaitingResponse       Phase = "AWAITING_BROADCAST_RESPONSE"
	PhaseAwaitingBlockChallenge Phase = "AWAITING_BLOCK_CHALLENGE"
	PhaseChoosingInfluence      Phase = "CHOOSING_INFLUENCE_TO_LOSE"
	PhaseAmbassadorExchange     Phase = "AMBASSADOR_EXCHANGE"
	PhaseGameOver               Phase = "GAME_OVER"
)

// NumSeats is the fixed number of seats per room.
const NumSeats = 4

// mustCoupThreshold forces a Coup when a seat starts its turn at or above it.
const mustCoupThreshold = 10

// afterLoss is where the state machine goes once the pending influence loss
// resolves.
type afterLoss int

const (
	thenNextTurn afterLoss = iota
	thenExecuteAction
)

// Input is a single /action request payload. Which fields are meaningful
// depends on the current phase; the engine ignores the rest.
type Input struct {
	Action   string
	TargetID *int
	Response string
	Card     string
	Cards    []string
}

// Responses a responder may submit during the response phases.
const (
	ResponsePass      = "Pass"
	ResponseChallenge = "Challenge"
	ResponseBlock     = "Block"
)

// Game is one room: four seats, the court deck, the revealed pile, and the
// turn state machine. Not safe for concurrent use.
type Game struct {
	players    []*Player
	deck       *Deck
	revealed   []Role
	phase      Phase
	currentIdx int
	message    string
	turns      int

	// Transient sub-protocol state, cleared at every turn boundary.
	action     ActionName
	actor      *Player
	target     *Player
	responders []*Player
	passed     map[int]bool
	blocker    *Player
	challenger *Player
	losing     *Player
	postLoss   afterLoss
	pool       []Role // ambassador exchange offer
	poolKeep   int    // how many the actor keeps
}

// NewGame creates an empty room with a freshly shuffled deck.
func NewGame(rng *rand.Rand) *Game {
	return &Game{
		deck:    NewDeck(rng),
		phase:   PhaseWaitingForPlayers,
		message: "Waiting for players...",
		passed:  make(map[int]bool),
	}
}

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.phase }

// Message returns the last narration line.
func (g *Game) Message() string { return g.message }

// PlayerCount returns the number of seats filled.
func (g *Game) PlayerCount() int { return len(g.players) }

// Turns returns the number of completed turns.
func (g *Game) Turns() int { return g.turns }

// Winner returns the sole surviving seat's name, or "" while the game is
// running or when nobody survived.
func (g *Game) Winner() string {
	if g.phase != PhaseGameOver {
		return ""
	}
	for _, p := range g.players {
		if !p.Eliminated() {
			return p.Name
		}
	}
	return ""
}

// AddPlayer seats a new player and deals their starting hand. Returns the
// seat id, or false if the room is full. Filling the last seat starts the game.
func (g *Game) AddPlayer(name string) (int, bool) {
	if len(g.players) >= NumSeats {
		return 0, false
	}
	p := &Player{ID: len(g.players), Name: name, Coins: 2}
	for i := 0; i < 2; i++ {
		if c, ok := g.deck.Draw(); ok {
			p.Influence = append(p.Influence, c)
		}
	}
	g.players = append(g.players, p)
	g.message = fmt.Sprintf("Waiting for %d more players...", NumSeats-len(g.players))
	if len(g.players) == NumSeats {
		g.start()
	}
	return p.ID, true
}

// start opens play once the room is full. Seats that quit while waiting are
// already eliminated, so the first turn goes to the first living seat; a room
// that filled with at most one survivor ends immediately.
func (g *Game) start() {
	if g.aliveCount() <= 1 {
		g.finish()
		return
	}
	for g.players[g.currentIdx].Eliminated() {
		g.currentIdx = (g.currentIdx + 1) % len(g.players)
	}
	g.phase = PhaseAwaitingAction
	g.message = fmt.Sprintf("Game starting! %s's turn.", g.players[g.currentIdx].Name)
}

// HandleInput applies one request from a seat. Out-of-turn, out-of-phase and
// otherwise invalid requests are absorbed: the phase never changes on them,
// though the narration may, and the caller discovers the outcome on its next
// state read.
func (g *Game) HandleInput(playerID int, in Input) {
	if playerID < 0 || playerID >= len(g.players) {
		return
	}
	switch g.phase {
	case PhaseAwaitingAction, PhaseMustCoup:
		if playerID != g.currentIdx {
			return
		}
		g.startAction(in)
	case PhaseSelectingTarget:
		if g.actor == nil || playerID != g.actor.ID {
			return
		}
		g.selectTarget(in.TargetID)
	case PhaseAwaitingResponse:
		g.handleResponse(playerID, in.Response)
	case PhaseAwaitingBlockChallenge:
		if g.actor == nil || playerID != g.actor.ID {
			return
		}
		g.handleBlockChallenge(in.Response)
	case PhaseChoosingInfluence:
		if g.losing == nil || playerID != g.losing.ID {
			return
		}
		g.resolveInfluenceLoss(in.Card)
	case PhaseAmbassadorExchange:
		if g.actor == nil || playerID != g.actor.ID {
			return
		}
		g.confirmExchange(in.Cards)
	}
}

// startAction handles an action declaration from the seat whose turn it is.
// The coin cost is deducted here, at declaration, and never refunded.
func (g *Game) startAction(in Input) {
	name, err := ParseAction(in.Action)
	if err != nil {
		return
	}
	actor := g.players[g.currentIdx]
	if g.phase == PhaseMustCoup && name != CoupAction {
		g.message = fmt.Sprintf("%s has 10+ coins and must Coup.", actor.Name)
		return
	}
	attrs := name.Attrs()
	if actor.Coins < attrs.Cost {
		g.message = fmt.Sprintf("Not enough coins for %s.", name)
		return
	}
	actor.Coins -= attrs.Cost

	g.action = name
	g.actor = actor
	if attrs.HasTarget {
		g.phase = PhaseSelectingTarget
		g.message = fmt.Sprintf("Select target for %s.", name)
		// The client may send the target along with the declaration.
		if in.TargetID != nil {
			g.selectTarget(in.TargetID)
		}
		return
	}
	g.beginResponsePhase()
}

// selectTarget validates the actor's target choice. The target must be
// another, still-living seat; anything else keeps the phase.
func (g *Game) selectTarget(targetID *int) {
	if targetID == nil {
		return
	}
	id := *targetID
	if id < 0 || id >= len(g.players) || id == g.actor.ID {
		return
	}
	target := g.players[id]
	if target.Eliminated() {
		g.message = fmt.Sprintf("%s is already eliminated. Choose another target.", target.Name)
		return
	}
	g.target = target
	g.beginResponsePhase()
}

// beginResponsePhase computes the responder set for the declared action and
// either waits for responses or resolves immediately.
//
// Targeted actions ask only the target; broadcast actions ask every other
// living seat. Income resolves with no response round at all.
func (g *Game) beginResponsePhase() {
	g.passed = make(map[int]bool)
	if g.target != nil {
		g.message = fmt.Sprintf("%s uses %s on %s.", g.actor.Name, g.action, g.target.Name)
	} else {
		g.message = fmt.Sprintf("%s uses %s.", g.actor.Name, g.action)
	}

	attrs := g.action.Attrs()
	// Income and Coup admit no challenge and no block; a response round
	// where Pass is the only legal reply would just stall the room.
	if !attrs.Challengeable() && len(attrs.BlockableBy) == 0 {
		g.executeAction()
		return
	}

	g.responders = nil
	if attrs.HasTarget {
		if g.target != nil && !g.target.Eliminated() {
			g.responders = []*Player{g.target}
		}
	} else {
		for _, p := range g.players {
			if p.ID != g.actor.ID && !p.Eliminated() {
				g.responders = append(g.responders, p)
			}
		}
	}

	if len(g.responders) == 0 {
		g.executeAction()
		return
	}
	g.phase = PhaseAwaitingResponse
}

// handleResponse adjudicates one Pass/Challenge/Block from a responder. The
// first non-Pass response is binding and clears the rest of the round.
func (g *Game) handleResponse(playerID int, response string) {
	if !g.isResponder(playerID) {
		return
	}
	attrs := g.action.Attrs()
	switch response {
	case ResponseChallenge:
		if !attrs.Challengeable() {
			g.message = fmt.Sprintf("%s cannot be challenged.", g.action)
			return
		}
		g.challenger = g.players[playerID]
		g.responders = nil
		g.passed = make(map[int]bool)
		g.resolveActionChallenge()
	case ResponseBlock:
		if len(attrs.BlockableBy) == 0 {
			g.message = fmt.Sprintf("%s cannot be blocked.", g.action)
			return
		}
		g.blocker = g.players[playerID]
		g.responders = nil
		g.passed = make(map[int]bool)
		g.phase = PhaseAwaitingBlockChallenge
		g.message = fmt.Sprintf("%s blocks. %s, do you challenge?", g.blocker.Name, g.actor.Name)
	case ResponsePass:
		g.passed[playerID] = true
		g.checkAllPassed()
	}
}

func (g *Game) isResponder(playerID int) bool {
	for _, p := range g.responders {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// checkAllPassed resolves the action once every living responder has passed.
func (g *Game) checkAllPassed() {
	for _, p := range g.responders {
		if !p.Eliminated() && !g.passed[p.ID] {
			return
		}
	}
	g.executeAction()
}

// resolveActionChallenge checks the actor's claimed character against their
// hand. A truthful actor swaps the revealed card for a fresh draw and the
// challenger loses influence, after which the action still executes. A caught
// bluff costs the actor an influence and the action is nullified (its coin
// cost is not refunded).
func (g *Game) resolveActionChallenge() {
	char := g.action.Attrs().Character
	if g.actor.HasCard(char) {
		g.actor.removeCard(char)
		g.deck.Return(char)
		if c, ok := g.deck.Draw(); ok {
			g.actor.Influence = append(g.actor.Influence, c)
		}
		g.message = fmt.Sprintf("%s reveals %s! Challenge failed.", g.actor.Name, char)
		g.beginInfluenceLoss(g.challenger, thenExecuteAction)
	} else {
		g.message = fmt.Sprintf("%s was bluffing!", g.actor.Name)
		g.beginInfluenceLoss(g.actor, thenNextTurn)
	}
}

// handleBlockChallenge is the actor's move in AWAITING_BLOCK_CHALLENGE:
// passing concedes the block (turn ends, costs stay paid), challenging tests
// whether the blocker holds any role the action is blockable by.
func (g *Game) handleBlockChallenge(response string) {
	switch response {
	case ResponsePass:
		g.message = fmt.Sprintf("Block by %s succeeds.", g.blocker.Name)
		g.nextTurn()
	case ResponseChallenge:
		g.challenger = g.actor
		g.resolveBlockChallenge()
	}
}

// resolveBlockChallenge adjudicates a challenged block. A proven blocker
// swaps the revealed card for a fresh draw and the challenger (the original
// actor) loses influence with the action nullified; a bluffed block costs the
// blocker an influence and the action then executes normally.
func (g *Game) resolveBlockChallenge() {
	for _, r := range g.action.Attrs().BlockableBy {
		if g.blocker.HasCard(r) {
			g.blocker.removeCard(r)
			g.deck.Return(r)
			if c, ok := g.deck.Draw(); ok {
				g.blocker.Influence = append(g.blocker.Influence, c)
			}
			g.message = fmt.Sprintf("%s reveals %s! Block stands.", g.blocker.Name, r)
			g.beginInfluenceLoss(g.challenger, thenNextTurn)
			return
		}
	}
	g.message = fmt.Sprintf("Block by %s was a bluff!", g.blocker.Name)
	g.beginInfluenceLoss(g.blocker, thenExecuteAction)
}

// beginInfluenceLoss parks the state machine until the losing seat picks a
// card. A seat with nothing left to lose resolves immediately.
func (g *Game) beginInfluenceLoss(loser *Player, then afterLoss) {
	g.losing = loser
	g.postLoss = then
	if loser.Eliminated() {
		g.afterInfluenceLoss()
		return
	}
	g.phase = PhaseChoosingInfluence
}

// resolveInfluenceLoss discards the chosen card to the revealed pile. A card
// name the seat does not hold falls back to the first held card.
func (g *Game) resolveInfluenceLoss(card string) {
	loser := g.losing
	role := Role(card)
	if !loser.HasCard(role) {
		if len(loser.Influence) == 0 {
			g.afterInfluenceLoss()
			return
		}
		role = loser.Influence[0]
	}
	loser.removeCard(role)
	g.revealed = append(g.revealed, role)
	g.message = fmt.Sprintf("%s lost a %s.", loser.Name, role)
	if loser.Eliminated() {
		g.message = fmt.Sprintf("%s has been eliminated.", loser.Name)
	}
	g.afterInfluenceLoss()
}

func (g *Game) afterInfluenceLoss() {
	g.losing = nil
	if g.postLoss == thenExecuteAction {
		g.executeAction()
		return
	}
	g.nextTurn()
}

// executeAction applies the declared action's effect. Costs were already
// deducted at declaration.
func (g *Game) executeAction() {
	actor, target := g.actor, g.target
	switch g.action {
	case Income:
		actor.Coins++
	case ForeignAid:
		actor.Coins += 2
	case Tax:
		actor.Coins += 3
	case Steal:
		stolen := min(2, target.Coins)
		target.Coins -= stolen
		actor.Coins += stolen
		g.message = fmt.Sprintf("%s stole %d coins from %s.", actor.Name, stolen, target.Name)
		g.nextTurn()
		return
	case CoupAction, Assassinate:
		if target.Eliminated() {
			// Target quit mid-protocol; nothing left to take.
			g.nextTurn()
			return
		}
		g.message = fmt.Sprintf("%s must lose an influence.", target.Name)
		g.beginInfluenceLoss(target, thenNextTurn)
		return
	case Exchange:
		g.beginExchange()
		return
	}
	g.message = fmt.Sprintf("%s's %s succeeds.", actor.Name, g.action)
	g.nextTurn()
}

// beginExchange sets up the ambassador offer: the actor's whole hand plus two
// draws, from which the actor keeps as many as they had.
func (g *Game) beginExchange() {
	g.poolKeep = len(g.actor.Influence)
	g.pool = append([]Role(nil), g.actor.Influence...)
	for i := 0; i < 2; i++ {
		if c, ok := g.deck.Draw(); ok {
			g.pool = append(g.pool, c)
		}
	}
	g.actor.Influence = nil
	g.phase = PhaseAmbassadorExchange
	g.message = fmt.Sprintf("%s, choose %d card(s) to keep.", g.actor.Name, g.poolKeep)
}

// confirmExchange validates the kept multiset against the offer, returns the
// remainder to the deck with a reshuffle, and ends the turn. An invalid
// selection keeps the phase so the actor can retry.
func (g *Game) confirmExchange(cards []string) {
	if len(cards) != g.poolKeep {
		g.message = fmt.Sprintf("Invalid selection. Must choose %d.", g.poolKeep)
		return
	}
	kept := make([]Role, 0, len(cards))
	counts := make(map[Role]int)
	for _, r := range g.pool {
		counts[r]++
	}
	for _, c := range cards {
		r, err := ParseRole(c)
		if err != nil || counts[r] == 0 {
			g.message = "Invalid selection. Card not in offer."
			return
		}
		counts[r]--
		kept = append(kept, r)
	}
	var returned []Role
	for r, n := range counts {
		for i := 0; i < n; i++ {
			returned = append(returned, r)
		}
	}
	g.actor.Influence = kept
	g.deck.Return(returned...)
	g.pool = nil
	g.poolKeep = 0
	g.nextTurn()
}

// Eliminate removes a seat from play immediately (the quit path). Held cards
// go back to the deck, not the revealed pile, and coins are zeroed. The state
// machine is then unwound so the room never waits on the departed seat.
func (g *Game) Eliminate(playerID int) {
	if playerID < 0 || playerID >= len(g.players) {
		return
	}
	// The terminal state is immutable; a winner's client quitting on exit
	// must not erase the result.
	if g.phase == PhaseGameOver {
		return
	}
	p := g.players[playerID]
	if p.Eliminated() {
		return
	}
	if len(p.Influence) > 0 {
		g.deck.Return(p.Influence...)
		p.Influence = nil
	}
	p.Coins = 0
	g.message = fmt.Sprintf("%s has been eliminated.", p.Name)

	if g.phase == PhaseWaitingForPlayers {
		return
	}

	switch {
	case g.phase == PhaseAwaitingResponse && g.isResponder(playerID):
		g.checkAllPassed()
	case g.currentIdx == playerID:
		g.nextTurn()
	case g.losing != nil && g.losing.ID == playerID:
		g.afterInfluenceLoss()
	case g.blocker != nil && g.blocker.ID == playerID:
		// Block withdrawn; the action goes through.
		g.executeAction()
	}

	if g.phase != PhaseGameOver && g.aliveCount() <= 1 {
		g.finish()
	}
}

func (g *Game) aliveCount() int {
	n := 0
	for _, p := range g.players {
		if !p.Eliminated() {
			n++
		}
	}
	return n
}

func (g *Game) finish() {
	g.clearPending()
	g.phase = PhaseGameOver
	if w := func() string {
		for _, p := range g.players {
			if !p.Eliminated() {
				return p.Name
			}
		}
		return ""
	}(); w != "" {
		g.message = fmt.Sprintf("Winner: %s", w)
	} else {
		g.message = "Winner: None"
	}
}

func (g *Game) clearPending() {
	g.action = ""
	g.actor = nil
	g.target = nil
	g.responders = nil
	g.passed = make(map[int]bool)
	g.blocker = nil
	g.challenger = nil
	g.losing = nil
	g.postLoss = thenNextTurn
	g.pool = nil
	g.poolKeep = 0
}

// nextTurn clears all transient state and hands the turn to the next living
// seat, or ends the game when at most one remains. A seat starting its turn
// with 10 or more coins is forced into MUST_COUP.
func (g *Game) nextTurn() {
	g.clearPending()
	g.turns++
	if g.aliveCount() <= 1 {
		g.finish()
		return
	}
	g.currentIdx = (g.currentIdx + 1) % len(g.players)
	for g.players[g.currentIdx].Eliminated() {
		g.currentIdx = (g.currentIdx + 1) % len(g.players)
	}
	next := g.players[g.currentIdx]
	if next.Coins >= mustCoupThreshold {
		g.phase = PhaseMustCoup
		g.message = fmt.Sprintf("%s must Coup.", next.Name)
	} else {
		g.phase = PhaseAwaitingAction
		g.message = fmt.Sprintf("%s's turn.", next.Name)
	}
}
