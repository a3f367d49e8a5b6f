package combat

import "github.com/cory-johannsen/brave/internal/game/skill"

// Outcome is the part every action result shares.
type Outcome struct {
	Action   ActionType
	ActorID  string
	TargetID string
	Success  bool
	// Reason is a human-readable explanation when Success is false.
	Reason string
}

// Summary returns the shared outcome fields.
func (o Outcome) Summary() Outcome { return o }

// Result is returned by ExecuteAction. The concrete type is one of
// *BRVAttackResult, *HPAttackResult, *ComboResult, *SkillResult, *ItemResult,
// *DefendResult, *FleeResult or *RejectedResult.
type Result interface {
	Summary() Outcome
}

// BRVAttackResult reports a Brave steal.
type BRVAttackResult struct {
	Outcome
	Damage   int
	Critical bool
	Stolen   int
	Gained   int
	Break    bool
}

// HPAttackResult reports an HP release. On no_brv Success is false and the
// numeric fields are zero.
type HPAttackResult struct {
	Outcome
	HPDamage    int
	Dealt       int
	Wound       int
	BRVConsumed int
	BreakBonus  bool
}

// ComboResult reports a BRV attack followed by an HP attack.
// HP is nil when the attacker had no Brave left to release.
type ComboResult struct {
	Outcome
	BRV BRVAttackResult
	HP  *HPAttackResult
}

// SkillResult reports a skill use. When Casting is true the skill has not
// resolved yet; its effects arrive later from Manager.Update.
type SkillResult struct {
	Outcome
	SkillID  string
	Casting  bool
	CastTime float64
	Skill    skill.Result
}

// ItemResult reports an item use.
type ItemResult struct {
	Outcome
	ItemID string
}

// DefendResult reports the defense buff applied to the actor.
type DefendResult struct {
	Outcome
	Buff     string
	Value    float64
	Duration int
}

// FleeResult reports an escape attempt.
type FleeResult struct {
	Outcome
}

// RejectedResult is returned when an action could not be dispatched at all.
// No combat state is mutated and the actor keeps their turn.
type RejectedResult struct {
	Outcome
}

// totals extracts the numbers published with ActionResolved.
func totals(r Result) (brvDamage, hpDamage int, brk, crit bool) {
	switch v := r.(type) {
	case *BRVAttackResult:
		return v.Damage, 0, v.Break, v.Critical
	case *HPAttackResult:
		return 0, v.Dealt, false, false
	case *ComboResult:
		brvDamage, brk, crit = v.BRV.Damage, v.BRV.Break, v.BRV.Critical
		if v.HP != nil {
			hpDamage = v.HP.Dealt
		}
		return brvDamage, hpDamage, brk, crit
	case *SkillResult:
		return v.Skill.TotalBRVDamage(), v.Skill.TotalHPDealt(), v.Skill.AnyBreak(), v.Skill.AnyCritical()
	}
	return 0, 0, false, false
}
