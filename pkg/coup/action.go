package coup

import "fmt"

// ActionName identifies one of the seven declarable actions.
type ActionName string

const (
	Income      ActionName = "Income"
	ForeignAid  ActionName = "ForeignAid"
	CoupAction  ActionName = "Coup"
	Tax         ActionName = "Tax"
	Steal       ActionName = "Steal"
	Assassinate ActionName = "Assassinate"
	Exchange    ActionName = "Exchange"
)

// ActionAttrs is the fixed metadata for an action. The catalog below is the
// authoritative action table; there is no per-action behavior outside the
// engine's execute step.
type ActionAttrs struct {
	Cost        int
	Character   Role // role the actor claims; empty for Income/ForeignAid/Coup
	HasTarget   bool
	BlockableBy []Role
}

// Challengeable reports whether declaring this action claims a character.
func (a ActionAttrs) Challengeable() bool {
	return a.Character != ""
}

var actionCatalog = map[ActionName]ActionAttrs{
	Income:      {},
	ForeignAid:  {BlockableBy: []Role{Duke}},
	CoupAction:  {Cost: 7, HasTarget: true},
	Tax:         {Character: Duke},
	Steal:       {Character: Captain, HasTarget: true, BlockableBy: []Role{Captain, Ambassador}},
	Assassinate: {Cost: 3, Character: Assassin, HasTarget: true, BlockableBy: []Role{Contessa}},
	Exchange:    {Character: Ambassador},
}

// Attrs looks up the metadata for an action name.
func (a ActionName) Attrs() ActionAttrs {
	return actionCatalog[a]
}

// ParseAction validates an action name from the wire.
func ParseAction(s string) (ActionName, error) {
	if _, ok := actionCatalog[ActionName(s)]; ok {
		return ActionName(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}
