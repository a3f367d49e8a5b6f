package skill

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/brave/internal/game/brave"
	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/damage"
)

// Scope selects which combatants an effect applies to.
type Scope int

const (
	// ScopeTarget applies the effect to the skill's primary targets.
	ScopeTarget Scope = iota
	// ScopeUser applies the effect to the user only.
	ScopeUser
	// ScopeParty applies the effect to every living member of the user's side.
	ScopeParty
)

// Effect is one stateless step of a skill pipeline.
type Effect interface {
	Name() string
	Scope() Scope
	CanExecute(user, target character.Combatant, ctx *Context) (bool, string)
	Execute(user, target character.Combatant, ctx *Context) EffectResult
}

// DamageType selects the Brave/HP path of a Damage effect.
type DamageType string

const (
	DamageBRV   DamageType = "brv"
	DamageHP    DamageType = "hp"
	DamageBRVHP DamageType = "brv_hp"
)

// StatType selects the physical or magical formula.
type StatType string

const (
	StatPhysical StatType = "physical"
	StatMagical  StatType = "magical"
)

// GimmickBonus adds PerStack to the multiplier for every point in Counter on the user.
type GimmickBonus struct {
	Counter  string
	PerStack float64
}

// Damage deals Brave and/or HP damage.
type Damage struct {
	Type       DamageType
	Multiplier float64
	// HPMultiplier scales the HP half of a brv_hp strike; 0 means 1.0.
	HPMultiplier float64
	Stat         StatType
	Element      string
	Bonus        *GimmickBonus
}

func (d Damage) Name() string { return "damage" }
func (d Damage) Scope() Scope { return ScopeTarget }

func (d Damage) CanExecute(user, target character.Combatant, ctx *Context) (bool, string) {
	if !target.IsAlive() {
		return false, "target defeated"
	}
	if d.Type == DamageHP && user.BRV() <= 0 {
		return false, brave.ErrNoBrave.Error()
	}
	return true, ""
}

// multiplier returns the base multiplier plus any gimmick bonus.
func (d Damage) multiplier(user character.Combatant) float64 {
	m := d.Multiplier
	if d.Bonus != nil && d.Bonus.Counter != "" {
		m += float64(user.Counters().Get(d.Bonus.Counter)) * d.Bonus.PerStack
	}
	return m
}

func (d Damage) Execute(user, target character.Combatant, ctx *Context) EffectResult {
	res := EffectResult{Effect: d.Name(), TargetID: target.ID(), Success: true}
	mult := d.multiplier(user)

	if d.Type == DamageBRV || d.Type == DamageBRVHP {
		var dr damage.Result
		if d.Stat == StatMagical {
			dr = ctx.Calc.MagicDamage(user, target, mult, d.Element)
		} else {
			dr = ctx.Calc.BRVDamage(user, target, mult)
		}
		br := ctx.Brave.BRVAttack(user, target, dr.FinalDamage)
		res.BRVDamage = br.Stolen
		res.BRVGained = br.ActualGain
		res.Break = br.IsBreak
		res.Critical = dr.IsCritical
	}

	if d.Type == DamageHP || d.Type == DamageBRVHP {
		hpMult := mult
		if d.Type == DamageBRVHP {
			hpMult = d.HPMultiplier
			if hpMult == 0 {
				hpMult = 1.0
			}
		}
		hr, err := ctx.Brave.HPAttack(user, target, hpMult)
		switch {
		case errors.Is(err, brave.ErrNoBrave) && d.Type == DamageBRVHP:
			// the BRV half landed; nothing to release
		case err != nil:
			res.Success = false
			res.Reason = err.Error()
			return res
		default:
			res.HPDamage = hr.HPDamage
			res.HPDealt = hr.Dealt
			ctx.HPDealt += hr.Dealt
			if ctx.OnHPDamage != nil && hr.Dealt > 0 {
				ctx.OnHPDamage(target, hr.Dealt)
			}
		}
	}
	return res
}

// ResourceType selects the pool a Heal restores.
type ResourceType string

const (
	ResourceHP ResourceType = "hp"
	ResourceMP ResourceType = "mp"
)

// Heal restores HP or MP: Base + stat*StatScale + Percent*max.
type Heal struct {
	Resource  ResourceType
	Base      int
	Stat      string
	StatScale float64
	Percent   float64
	PartyWide bool
	// Self restores the user instead of the skill's targets.
	Self bool
}

func (h Heal) Name() string { return "heal" }

func (h Heal) Scope() Scope {
	if h.Self {
		return ScopeUser
	}
	if h.PartyWide {
		return ScopeParty
	}
	return ScopeTarget
}

func (h Heal) CanExecute(_, target character.Combatant, _ *Context) (bool, string) {
	if !target.IsAlive() {
		return false, "target defeated"
	}
	return true, ""
}

// Amount computes the restore value for user healing target.
func (h Heal) Amount(user, target character.Combatant) int {
	amount := float64(h.Base) + float64(statValue(user, h.Stat))*h.StatScale
	maxPool := target.MaxHP()
	if h.Resource == ResourceMP {
		maxPool = target.MaxMP()
	}
	amount += float64(maxPool) * h.Percent
	return int(math.Floor(amount))
}

func (h Heal) Execute(user, target character.Combatant, _ *Context) EffectResult {
	res := EffectResult{Effect: h.Name(), TargetID: target.ID(), Success: true}
	amount := h.Amount(user, target)
	if h.Resource == ResourceMP {
		res.MPRestored = target.RestoreMP(amount)
	} else {
		res.Healed = target.Heal(amount)
	}
	return res
}

// Buff applies a timed named modifier.
type Buff struct {
	ID        string
	Value     float64
	Duration  int
	PartyWide bool
}

func (b Buff) Name() string { return "buff" }

func (b Buff) Scope() Scope {
	if b.PartyWide {
		return ScopeParty
	}
	return ScopeTarget
}

func (b Buff) CanExecute(_, target character.Combatant, _ *Context) (bool, string) {
	if !target.IsAlive() {
		return false, "target defeated"
	}
	return true, ""
}

func (b Buff) Execute(_, target character.Combatant, _ *Context) EffectResult {
	target.Buffs().Apply(b.ID, b.Value, b.Duration)
	return EffectResult{Effect: b.Name(), TargetID: target.ID(), Success: true, Buff: b.ID}
}

// Shield grows the target's absorb pool by Base + HPConsumed*HPConsumedScale.
type Shield struct {
	Base            int
	HPConsumedScale float64
	PartyWide       bool
}

func (s Shield) Name() string { return "shield" }

func (s Shield) Scope() Scope {
	if s.PartyWide {
		return ScopeParty
	}
	return ScopeTarget
}

func (s Shield) CanExecute(_, target character.Combatant, _ *Context) (bool, string) {
	if !target.IsAlive() {
		return false, "target defeated"
	}
	return true, ""
}

func (s Shield) Execute(_, target character.Combatant, ctx *Context) EffectResult {
	amount := s.Base + int(math.Floor(float64(ctx.HPConsumed)*s.HPConsumedScale))
	target.AddShield(amount)
	return EffectResult{Effect: s.Name(), TargetID: target.ID(), Success: true, Shield: amount}
}

// GimmickOp is a counter mutation.
type GimmickOp string

const (
	GimmickAdd     GimmickOp = "add"
	GimmickConsume GimmickOp = "consume"
	GimmickSet     GimmickOp = "set"
)

// Gimmick mutates a named counter on the user.
type Gimmick struct {
	Op      GimmickOp
	Counter string
	Amount  int
	// Max clamps ADD; 0 falls back to the counter's declared maximum.
	Max int
}

func (g Gimmick) Name() string { return "gimmick" }
func (g Gimmick) Scope() Scope { return ScopeUser }

func (g Gimmick) CanExecute(user, _ character.Combatant, _ *Context) (bool, string) {
	switch g.Op {
	case GimmickAdd, GimmickSet:
		return true, ""
	case GimmickConsume:
		if user.Counters().Get(g.Counter) < 1 {
			return false, fmt.Sprintf("no %s to consume", g.Counter)
		}
		return true, ""
	default:
		return false, fmt.Sprintf("unknown gimmick op %q", g.Op)
	}
}

func (g Gimmick) Execute(user, _ character.Combatant, _ *Context) EffectResult {
	counters := user.Counters()
	switch g.Op {
	case GimmickAdd:
		counters.Add(g.Counter, g.Amount, g.Max)
	case GimmickConsume:
		counters.Consume(g.Counter, g.Amount)
	case GimmickSet:
		counters.Set(g.Counter, g.Amount)
	}
	return EffectResult{
		Effect:       g.Name(),
		TargetID:     user.ID(),
		Success:      true,
		Counter:      g.Counter,
		CounterValue: counters.Get(g.Counter),
	}
}

// Lifesteal heals the user for Ratio of the HP damage dealt earlier in the chain.
type Lifesteal struct {
	Ratio float64
}

func (l Lifesteal) Name() string { return "lifesteal" }
func (l Lifesteal) Scope() Scope { return ScopeUser }

func (l Lifesteal) CanExecute(user, _ character.Combatant, ctx *Context) (bool, string) {
	if ctx.HPDealt <= 0 {
		return false, "no damage dealt"
	}
	if !user.IsAlive() {
		return false, "user defeated"
	}
	return true, ""
}

func (l Lifesteal) Execute(user, _ character.Combatant, ctx *Context) EffectResult {
	healed := user.Heal(int(math.Floor(float64(ctx.HPDealt) * l.Ratio)))
	return EffectResult{Effect: l.Name(), TargetID: user.ID(), Success: true, Healed: healed}
}

func statValue(c character.Combatant, stat string) int {
	switch stat {
	case "attack":
		return c.AttackStat()
	case "defense":
		return c.DefenseStat()
	case "magic":
		return c.MagicStat()
	case "spirit":
		return c.SpiritStat()
	case "speed":
		return c.SpeedStat()
	case "luck":
		return c.LuckStat()
	default:
		return 0
	}
}
