// Package brave applies Brave steal and HP release semantics and tracks break state.
package brave

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/damage"
)

// ErrNoBrave is returned by HPAttack when the attacker has no Brave to release.
var ErrNoBrave = errors.New("no_brv: attacker has no brave")

// Config holds Brave recovery settings.
type Config struct {
	// RecoveryRate is the fraction of InitBRV restored per turn end.
	RecoveryRate float64
}

// DefaultConfig returns the stock recovery rate.
func DefaultConfig() Config { return Config{RecoveryRate: 0.2} }

// BRVResult describes one Brave steal.
type BRVResult struct {
	// Stolen is the amount the defender's pool was attacked for.
	Stolen int
	// ActualGain is what the attacker kept after clamping to MaxBRV.
	ActualGain int
	// IsBreak is true when the defender's pool ended at zero.
	IsBreak bool
}

// HPResult describes one HP release.
type HPResult struct {
	Damage damage.Result
	// HPDamage is the formula output before shield absorption.
	HPDamage int
	// Dealt is the HP the defender actually lost.
	Dealt       int
	Wound       int
	BRVConsumed int
	// BreakBonus is true when the defender was broken at the moment of the strike.
	BreakBonus bool
}

// Model owns break marks for one combat session.
// It is not safe for concurrent use.
type Model struct {
	calc   *damage.Calculator
	cfg    Config
	marks  map[string]bool
	logger *zap.Logger
}

// NewModel creates a Model.
//
// Precondition: calc must be non-nil.
func NewModel(calc *damage.Calculator, cfg Config, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{calc: calc, cfg: cfg, marks: make(map[string]bool), logger: logger}
}

// InitializeBRV sets c's Brave to its archetype baseline and clears any break mark.
//
// Postcondition: c.BRV() == c.InitBRV() (clamped to MaxBRV).
func (m *Model) InitializeBRV(c character.Combatant) {
	c.SetBRV(c.InitBRV())
	delete(m.marks, c.ID())
}

// BRVAttack drains dmg from defender's pool, clamped at zero, and adds dmg to
// attacker's pool, clamped at MaxBRV.
//
// Postcondition: defender.BRV() >= 0; attacker.BRV() <= attacker.MaxBRV();
// IsBroken(defender) == result.IsBreak.
func (m *Model) BRVAttack(attacker, defender character.Combatant, dmg int) BRVResult {
	dmg = max(0, dmg)
	after := max(0, defender.BRV()-dmg)
	defender.SetBRV(after)

	before := attacker.BRV()
	attacker.SetBRV(before + dmg)
	gain := attacker.BRV() - before

	res := BRVResult{Stolen: dmg, ActualGain: gain, IsBreak: after == 0}
	if res.IsBreak {
		m.marks[defender.ID()] = true
		m.logger.Debug("break",
			zap.String("attacker", attacker.ID()),
			zap.String("defender", defender.ID()),
		)
	} else {
		delete(m.marks, defender.ID())
	}
	return res
}

// HPAttack releases all of attacker's Brave as HP damage against defender,
// with the break bonus when defender is broken. The attacker's Brave resets
// to zero and the defender's break mark is consumed.
//
// Postcondition: on success attacker.BRV() == 0 and defender.HP() >= 0.
// Returns ErrNoBrave without mutating state when attacker.BRV() <= 0.
func (m *Model) HPAttack(attacker, defender character.Combatant, multiplier float64) (HPResult, error) {
	pool := attacker.BRV()
	if pool <= 0 {
		return HPResult{}, ErrNoBrave
	}
	broken := m.IsBroken(defender)
	res := m.calc.HPDamage(pool, multiplier, broken)
	dealt := defender.TakeDamage(res.FinalDamage)
	attacker.SetBRV(0)
	delete(m.marks, defender.ID())

	m.logger.Debug("hp attack",
		zap.String("attacker", attacker.ID()),
		zap.String("defender", defender.ID()),
		zap.Int("brv_consumed", pool),
		zap.Int("dealt", dealt),
		zap.Bool("break_bonus", broken),
	)
	return HPResult{
		Damage:      res,
		HPDamage:    res.FinalDamage,
		Dealt:       dealt,
		Wound:       res.Details.Wound,
		BRVConsumed: pool,
		BreakBonus:  broken,
	}, nil
}

// RecoverIntBRV restores ceil(InitBRV * RecoveryRate) toward the baseline.
// Pools already at or above baseline are untouched, as are defeated combatants.
//
// Postcondition: returns the Brave restored; c.BRV() never rises above InitBRV through recovery.
func (m *Model) RecoverIntBRV(c character.Combatant) int {
	base := c.InitBRV()
	cur := c.BRV()
	if !c.IsAlive() || cur >= base {
		return 0
	}
	step := int(math.Ceil(float64(base) * m.cfg.RecoveryRate))
	c.SetBRV(min(base, cur+step))
	if c.BRV() > 0 {
		delete(m.marks, c.ID())
	}
	return c.BRV() - cur
}

// IsBroken reports whether c was zeroed by a BRV attack and has not regained Brave
// or absorbed an HP attack since.
func (m *Model) IsBroken(c character.Combatant) bool {
	if !m.marks[c.ID()] {
		return false
	}
	if c.BRV() > 0 {
		delete(m.marks, c.ID())
		return false
	}
	return true
}

// Clear drops every break mark.
func (m *Model) Clear() {
	clear(m.marks)
}
