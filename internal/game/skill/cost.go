package skill

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/brave/internal/game/character"
)

// Cost is a precondition paid before any effect runs.
type Cost interface {
	// Check reports whether user can pay, with a reason when not.
	Check(user character.Combatant, ctx *Context) (bool, string)
	// Pay deducts the cost. Only called after every Check succeeded.
	Pay(user character.Combatant, ctx *Context)
}

// MPCost spends MP.
type MPCost struct {
	Amount int
}

func (c MPCost) Check(user character.Combatant, _ *Context) (bool, string) {
	if user.MP() < c.Amount {
		return false, fmt.Sprintf("not enough MP (%d/%d)", user.MP(), c.Amount)
	}
	return true, ""
}

func (c MPCost) Pay(user character.Combatant, _ *Context) {
	user.SetMP(user.MP() - c.Amount)
}

// StackCost spends a named gimmick counter.
type StackCost struct {
	Counter string
	Amount  int
}

func (c StackCost) Check(user character.Combatant, _ *Context) (bool, string) {
	have := user.Counters().Get(c.Counter)
	if have < c.Amount {
		return false, fmt.Sprintf("not enough %s (%d/%d)", c.Counter, have, c.Amount)
	}
	return true, ""
}

func (c StackCost) Pay(user character.Combatant, _ *Context) {
	user.Counters().Consume(c.Counter, c.Amount)
}

// HPCost spends a fraction of max HP. The user must survive payment.
// The amount paid is added to Context.HPConsumed.
type HPCost struct {
	// Percent is a fraction of MaxHP, e.g. 0.1 for 10%.
	Percent float64
}

func (c HPCost) amount(user character.Combatant) int {
	return int(math.Floor(float64(user.MaxHP()) * c.Percent))
}

func (c HPCost) Check(user character.Combatant, _ *Context) (bool, string) {
	need := c.amount(user)
	if user.HP() <= need {
		return false, fmt.Sprintf("not enough HP (%d/%d)", user.HP(), need+1)
	}
	return true, ""
}

func (c HPCost) Pay(user character.Combatant, ctx *Context) {
	need := c.amount(user)
	user.SetHP(user.HP() - need)
	ctx.HPConsumed += need
}

// Combine folds costs that draw on the same pool into one, so that a skill
// carrying MPCost{5} twice is checked as MPCost{10}. Stack costs merge per
// counter and HP percentages add before flooring. Order follows the first
// occurrence of each pool; unrecognised costs pass through unchanged.
func Combine(costs []Cost) []Cost {
	out := make([]Cost, 0, len(costs))
	mp, hp := -1, -1
	stacks := make(map[string]int)
	for _, c := range costs {
		switch c := c.(type) {
		case MPCost:
			if mp < 0 {
				mp = len(out)
				out = append(out, c)
				continue
			}
			out[mp] = MPCost{Amount: out[mp].(MPCost).Amount + c.Amount}
		case HPCost:
			if hp < 0 {
				hp = len(out)
				out = append(out, c)
				continue
			}
			out[hp] = HPCost{Percent: out[hp].(HPCost).Percent + c.Percent}
		case StackCost:
			i, ok := stacks[c.Counter]
			if !ok {
				stacks[c.Counter] = len(out)
				out = append(out, c)
				continue
			}
			prev := out[i].(StackCost)
			out[i] = StackCost{Counter: c.Counter, Amount: prev.Amount + c.Amount}
		default:
			out = append(out, c)
		}
	}
	return out
}
