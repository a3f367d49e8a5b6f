// Package character defines the combatant capability interface and the
// concrete Character used by every roster.
package character

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/brave/internal/game/buff"
)

// Stats holds the read-only base statistics of a combatant.
type Stats struct {
	Attack  int `yaml:"attack"`
	Defense int `yaml:"defense"`
	Magic   int `yaml:"magic"`
	Spirit  int `yaml:"spirit"`
	Speed   int `yaml:"speed"`
	Luck    int `yaml:"luck"`
}

// StatHolder exposes the buff-adjusted statistics the damage formulas read.
type StatHolder interface {
	AttackStat() int
	DefenseStat() int
	MagicStat() int
	SpiritStat() int
	SpeedStat() int
	LuckStat() int
	// CriticalBonus is added to the base critical chance.
	CriticalBonus() float64
	// Resistance returns the multiplier against element; 1.0 when undeclared.
	Resistance(element string) float64
}

// Combatant is the capability set every participant in a combat must provide.
//
// Invariant: HP, MP, and BRV are never negative and never exceed their maxima.
type Combatant interface {
	StatHolder

	ID() string
	Name() string

	HP() int
	MaxHP() int
	SetHP(v int)
	MP() int
	MaxMP() int
	SetMP(v int)
	BRV() int
	MaxBRV() int
	SetBRV(v int)
	// InitBRV is the archetype baseline Brave fixed at creation time.
	InitBRV() int

	IsAlive() bool
	// TakeDamage applies HP damage after shield absorption and returns the HP lost.
	TakeDamage(amount int) int
	// Heal restores HP up to MaxHP and returns the amount restored.
	Heal(amount int) int
	// RestoreMP restores MP up to MaxMP and returns the amount restored.
	RestoreMP(amount int) int

	Shield() int
	AddShield(amount int)

	Counters() *Counters
	Buffs() *buff.ActiveSet
}

// CounterSpec declares one named gimmick counter.
type CounterSpec struct {
	Name    string `yaml:"name"`
	Max     int    `yaml:"max"`
	Initial int    `yaml:"initial"`
}

// Spec carries everything needed to build a Character.
type Spec struct {
	// ID is generated when empty.
	ID          string
	Name        string
	Level       int
	Stats       Stats
	MaxHP       int
	MaxMP       int
	MaxBRV      int
	InitBRV     int
	Resistances map[string]float64
	Counters    []CounterSpec
}

// Character is the concrete Combatant.
// It is not safe for concurrent use; a combat session serialises access.
type Character struct {
	id    string
	name  string
	level int
	stats Stats

	hp, maxHP   int
	mp, maxMP   int
	brv, maxBRV int
	initBRV     int
	shield      int
	knockedOut  bool

	resistances map[string]float64
	counters    *Counters
	buffs       *buff.ActiveSet
}

// New builds a Character at full HP and MP with Brave at its baseline.
//
// Precondition: spec.MaxHP > 0.
// Postcondition: HP() == MaxHP(); MP() == MaxMP(); BRV() == min(InitBRV, MaxBRV).
func New(spec Spec) *Character {
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}
	res := make(map[string]float64, len(spec.Resistances))
	for k, v := range spec.Resistances {
		res[k] = v
	}
	counters := NewCounters()
	for _, cs := range spec.Counters {
		counters.Declare(cs.Name, cs.Max)
		counters.Set(cs.Name, cs.Initial)
	}
	c := &Character{
		id:          id,
		name:        spec.Name,
		level:       spec.Level,
		stats:       spec.Stats,
		hp:          spec.MaxHP,
		maxHP:       spec.MaxHP,
		mp:          spec.MaxMP,
		maxMP:       spec.MaxMP,
		maxBRV:      max(0, spec.MaxBRV),
		resistances: res,
		counters:    counters,
		buffs:       buff.NewActiveSet(),
	}
	c.initBRV = clamp(spec.InitBRV, 0, c.maxBRV)
	c.brv = c.initBRV
	return c
}

func (c *Character) ID() string   { return c.id }
func (c *Character) Name() string { return c.name }
func (c *Character) Level() int   { return c.level }

// BaseStats returns the unbuffed statistics.
func (c *Character) BaseStats() Stats { return c.stats }

func (c *Character) HP() int      { return c.hp }
func (c *Character) MaxHP() int   { return c.maxHP }
func (c *Character) SetHP(v int)  { c.hp = clamp(v, 0, c.maxHP) }
func (c *Character) MP() int      { return c.mp }
func (c *Character) MaxMP() int   { return c.maxMP }
func (c *Character) SetMP(v int)  { c.mp = clamp(v, 0, c.maxMP) }
func (c *Character) BRV() int     { return c.brv }
func (c *Character) MaxBRV() int  { return c.maxBRV }
func (c *Character) SetBRV(v int) { c.brv = clamp(v, 0, c.maxBRV) }
func (c *Character) InitBRV() int { return c.initBRV }

func (c *Character) AttackStat() int  { return c.buffed(c.stats.Attack, buff.AttackUp) }
func (c *Character) DefenseStat() int { return c.buffed(c.stats.Defense, buff.DefenseUp) }
func (c *Character) MagicStat() int   { return c.buffed(c.stats.Magic, buff.MagicUp) }
func (c *Character) SpiritStat() int  { return c.buffed(c.stats.Spirit, buff.SpiritUp) }
func (c *Character) SpeedStat() int   { return c.buffed(c.stats.Speed, buff.SpeedUp) }
func (c *Character) LuckStat() int    { return c.stats.Luck }

// CriticalBonus returns the active critical_up buff value.
func (c *Character) CriticalBonus() float64 { return c.buffs.Value(buff.CriticalUp) }

// Resistance returns the declared multiplier for element, or 1.0.
func (c *Character) Resistance(element string) float64 {
	if r, ok := c.resistances[element]; ok && r > 0 {
		return r
	}
	return 1.0
}

// IsAlive reports whether the character can still act.
func (c *Character) IsAlive() bool { return !c.knockedOut && c.hp > 0 }

// KnockOut removes the character from the fight regardless of HP.
//
// Postcondition: IsAlive() is false.
func (c *Character) KnockOut() { c.knockedOut = true }

// TakeDamage drains the shield first, then HP.
//
// Postcondition: 0 <= HP(); the return value is the HP actually lost.
func (c *Character) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	absorbed := min(c.shield, amount)
	c.shield -= absorbed
	rest := amount - absorbed
	lost := min(rest, c.hp)
	c.hp -= lost
	return lost
}

// Heal restores HP on a living character.
//
// Postcondition: HP() <= MaxHP(); returns the HP restored.
func (c *Character) Heal(amount int) int {
	if amount <= 0 || !c.IsAlive() {
		return 0
	}
	before := c.hp
	c.SetHP(c.hp + amount)
	return c.hp - before
}

// RestoreMP restores MP.
//
// Postcondition: MP() <= MaxMP(); returns the MP restored.
func (c *Character) RestoreMP(amount int) int {
	if amount <= 0 {
		return 0
	}
	before := c.mp
	c.SetMP(c.mp + amount)
	return c.mp - before
}

func (c *Character) Shield() int { return c.shield }

// AddShield grows the absorb pool. Non-positive amounts are ignored.
func (c *Character) AddShield(amount int) {
	if amount > 0 {
		c.shield += amount
	}
}

func (c *Character) Counters() *Counters     { return c.counters }
func (c *Character) Buffs() *buff.ActiveSet { return c.buffs }

func (c *Character) buffed(base int, id string) int {
	return int(float64(base) * (1 + c.buffs.Value(id)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
