package combat

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/brave/internal/game/character"
)

// ActionType identifies what a combatant intends to do on their turn.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionType int

const (
	ActionUnknown     ActionType = iota // zero value; intentionally invalid
	ActionBRVAttack                     // steal Brave from one opponent
	ActionHPAttack                      // release all Brave as HP damage
	ActionBRVHPAttack                   // BRV attack, then HP attack if any Brave remains
	ActionSkill                         // run a registered skill, possibly after a cast
	ActionItem                          // delegated to the ItemHandler
	ActionDefend                        // apply the configured defense buff to self
	ActionFlee                          // probabilistic escape ending the combat
)

// String returns the snake_case name of the ActionType.
// Postcondition: returns "unknown" for ActionUnknown and unrecognised values.
func (a ActionType) String() string {
	switch a {
	case ActionBRVAttack:
		return "brv_attack"
	case ActionHPAttack:
		return "hp_attack"
	case ActionBRVHPAttack:
		return "brv_hp_attack"
	case ActionSkill:
		return "skill"
	case ActionItem:
		return "item"
	case ActionDefend:
		return "defend"
	case ActionFlee:
		return "flee"
	default:
		return "unknown"
	}
}

// Hostile reports whether a targets an opponent.
func (a ActionType) Hostile() bool {
	return a == ActionBRVAttack || a == ActionHPAttack || a == ActionBRVHPAttack
}

// ParseActionType resolves the snake_case name produced by String.
//
// Postcondition: returns ActionUnknown and an error for unrecognised names.
func ParseActionType(s string) (ActionType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for a := ActionBRVAttack; a <= ActionFlee; a++ {
		if a.String() == name {
			return a, nil
		}
	}
	return ActionUnknown, fmt.Errorf("unknown action type %q", s)
}

// Action is one intent submitted for a ready combatant.
type Action struct {
	Actor character.Combatant
	Type  ActionType
	// Target is required for hostile actions and single-target skills.
	Target character.Combatant
	// SkillID names the skill for ActionSkill.
	SkillID string
	// ItemID names the item for ActionItem.
	ItemID string
}

// ItemHandler applies an item on behalf of the combat manager.
// Inventory lives outside combat; the manager only forwards the intent.
type ItemHandler interface {
	UseItem(user, target character.Combatant, itemID string) (ok bool, reason string)
}
