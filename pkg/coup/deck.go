package coup

import "math/rand"

// Deck is the court deck: an ordered pile drawn from the top, with every
// return followed by a uniform reshuffle of the whole pile.
type Deck struct {
	cards []Role
	rng   *rand.Rand
}

// NewDeck builds the 15-card starting deck (three of each role) and shuffles it.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	for _, r := range AllRoles() {
		for i := 0; i < copiesPerRole; i++ {
			d.cards = append(d.cards, r)
		}
	}
	d.shuffle()
	return d
}

// Draw removes and returns the top card. Returns false if the deck is empty,
// which cannot happen in a legal game but is guarded anyway.
func (d *Deck) Draw() (Role, bool) {
	if len(d.cards) == 0 {
		return "", false
	}
	top := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return top, true
}

// Return appends cards to the deck and reshuffles.
func (d *Deck) Return(cards ...Role) {
	d.cards = append(d.cards, cards...)
	d.shuffle()
}

// Len returns the number of cards remaining.
func (d *Deck) Len() int {
	return len(d.cards)
}

func (d *Deck) shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}
