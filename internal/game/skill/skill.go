// Package skill composes skills from costs and ordered effect pipelines and
// tracks per-caster cooldowns.
package skill

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/brave"
	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/damage"
)

// TargetType is the primary target selection of a skill.
type TargetType string

const (
	TargetSelf       TargetType = "self"
	TargetSingle     TargetType = "single"
	TargetParty      TargetType = "party"
	TargetAllEnemies TargetType = "all_enemies"
)

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool {
	switch t {
	case TargetSelf, TargetSingle, TargetParty, TargetAllEnemies:
		return true
	}
	return false
}

// Hostile reports whether t selects opponents.
func (t TargetType) Hostile() bool { return t == TargetSingle || t == TargetAllEnemies }

// Skill is an immutable template shared by every user.
type Skill struct {
	ID          string
	Name        string
	Description string
	Costs       []Cost
	Effects     []Effect
	// Cooldown is the number of the caster's turns before reuse.
	Cooldown int
	Target   TargetType
	Ultimate bool
	// CastTime is the delay in seconds before the skill resolves; 0 resolves immediately.
	CastTime      float64
	Interruptible bool
}

// Context is the per-execution state threaded through costs and effects.
type Context struct {
	// Party is the user's side, Enemies the opposing side.
	Party   []character.Combatant
	Enemies []character.Combatant

	Calc  *damage.Calculator
	Brave *brave.Model

	// HPConsumed accumulates HP paid by costs in this execution.
	HPConsumed int
	// HPDealt accumulates HP damage dealt by effects in this execution.
	HPDealt int

	// OnHPDamage, when set, is called after an effect removes HP from target.
	OnHPDamage func(target character.Combatant, dealt int)

	Logger *zap.Logger
}

func (c *Context) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// EffectResult records one effect applied to one target.
type EffectResult struct {
	Effect   string
	TargetID string
	Success  bool
	Reason   string

	BRVDamage int
	BRVGained int
	Break     bool
	Critical  bool
	HPDamage  int
	HPDealt   int

	Healed     int
	MPRestored int
	Buff       string
	Shield     int

	Counter      string
	CounterValue int
}

// Result is the outcome of one skill execution.
type Result struct {
	SkillID string
	Success bool
	Reason  string
	Effects []EffectResult
}

// TotalHPDealt sums HP actually removed by every effect.
func (r Result) TotalHPDealt() int {
	n := 0
	for _, e := range r.Effects {
		n += e.HPDealt
	}
	return n
}

// TotalBRVDamage sums Brave damage across every effect.
func (r Result) TotalBRVDamage() int {
	n := 0
	for _, e := range r.Effects {
		n += e.BRVDamage
	}
	return n
}

// AnyBreak reports whether any effect broke its target.
func (r Result) AnyBreak() bool {
	for _, e := range r.Effects {
		if e.Break {
			return true
		}
	}
	return false
}

// AnyCritical reports whether any effect landed a critical.
func (r Result) AnyCritical() bool {
	for _, e := range r.Effects {
		if e.Critical {
			return true
		}
	}
	return false
}

// Execute checks and pays every cost, then runs each effect in declared order.
// Costs on the same pool are summed before they are checked.
// Each effect's CanExecute is evaluated immediately before that effect runs,
// so earlier effects may enable or disable later ones.
//
// Precondition: ctx must be non-nil; ctx.Calc and ctx.Brave must be set when
// the skill carries a Damage effect.
// Postcondition: when any cost is unmet, Success is false and no state is mutated.
func (s *Skill) Execute(user, target character.Combatant, ctx *Context) Result {
	targets, reason := s.Targets(user, target, ctx)
	if reason != "" {
		return Result{SkillID: s.ID, Reason: reason}
	}
	costs := Combine(s.Costs)
	if ok, why := affordable(costs, user, ctx); !ok {
		ctx.logger().Debug("skill cost unmet",
			zap.String("skill", s.ID),
			zap.String("user", user.ID()),
			zap.String("reason", why),
		)
		return Result{SkillID: s.ID, Reason: why}
	}
	for _, c := range costs {
		c.Pay(user, ctx)
	}

	res := Result{SkillID: s.ID, Success: true}
	for _, e := range s.Effects {
		for _, t := range effectTargets(e, user, targets, ctx) {
			if ok, why := e.CanExecute(user, t, ctx); !ok {
				res.Effects = append(res.Effects, EffectResult{Effect: e.Name(), TargetID: t.ID(), Reason: why})
				continue
			}
			res.Effects = append(res.Effects, e.Execute(user, t, ctx))
		}
	}
	return res
}

// Affordable reports whether user can pay every cost of s right now, with
// the reason when not.
func (s *Skill) Affordable(user character.Combatant) (bool, string) {
	return affordable(Combine(s.Costs), user, &Context{})
}

func affordable(costs []Cost, user character.Combatant, ctx *Context) (bool, string) {
	for _, c := range costs {
		if ok, why := c.Check(user, ctx); !ok {
			return false, why
		}
	}
	return true, ""
}

// Targets resolves the primary targets of s.
//
// Postcondition: returns a non-empty slice, or a non-empty reason.
func (s *Skill) Targets(user, target character.Combatant, ctx *Context) ([]character.Combatant, string) {
	switch s.Target {
	case TargetSelf:
		return []character.Combatant{user}, ""
	case TargetSingle:
		if target == nil {
			return nil, "no target"
		}
		return []character.Combatant{target}, ""
	case TargetParty:
		party := living(ctx.Party)
		if len(party) == 0 {
			return []character.Combatant{user}, ""
		}
		return party, ""
	case TargetAllEnemies:
		enemies := living(ctx.Enemies)
		if len(enemies) == 0 {
			return nil, "no valid target"
		}
		return enemies, ""
	default:
		return nil, "unknown target type " + string(s.Target)
	}
}

func effectTargets(e Effect, user character.Combatant, primary []character.Combatant, ctx *Context) []character.Combatant {
	switch e.Scope() {
	case ScopeUser:
		return []character.Combatant{user}
	case ScopeParty:
		if party := living(ctx.Party); len(party) > 0 {
			return party
		}
		return []character.Combatant{user}
	default:
		return primary
	}
}

func living(cs []character.Combatant) []character.Combatant {
	out := make([]character.Combatant, 0, len(cs))
	for _, c := range cs {
		if c.IsAlive() {
			out = append(out, c)
		}
	}
	return out
}
