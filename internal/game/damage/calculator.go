// Package damage computes BRV, HP, and magic damage from combatant statistics.
package damage

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/config"
	"github.com/cory-johannsen/brave/internal/game/character"
)

const (
	// MinBRVDamage is the floor for BRV and magic damage.
	MinBRVDamage = 1
	// MinHPDamage is the floor for HP damage.
	MinHPDamage = 5

	varianceLow  = 0.9
	varianceHigh = 1.1
)

// Roller is the randomness the calculator draws from.
type Roller interface {
	// Uniform returns a value in [lo, hi).
	Uniform(lo, hi float64) float64
	// Chance reports whether an event with probability p occurs.
	Chance(p float64) bool
}

// Config holds the formula constants.
type Config struct {
	BRVScale           float64
	HPScale            float64
	BreakBonus         float64
	WoundRate          float64
	CriticalMultiplier float64
	CriticalChance     float64
}

// DefaultConfig returns the stock balance constants.
func DefaultConfig() Config {
	return Config{
		BRVScale:           0.1,
		HPScale:            0.15,
		BreakBonus:         1.5,
		WoundRate:          0.25,
		CriticalMultiplier: 1.5,
		CriticalChance:     0.1,
	}
}

// ConfigFrom converts the loaded damage section.
func ConfigFrom(c config.DamageConfig) Config {
	return Config{
		BRVScale:           c.BRVScale,
		HPScale:            c.HPScale,
		BreakBonus:         c.BreakBonus,
		WoundRate:          c.WoundRate,
		CriticalMultiplier: c.CriticalMultiplier,
		CriticalChance:     c.CriticalChance,
	}
}

// Kind identifies which formula produced a Result.
type Kind int

const (
	KindBRV Kind = iota
	KindHP
	KindMagic
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBRV:
		return "brv"
	case KindHP:
		return "hp"
	case KindMagic:
		return "magic"
	default:
		return "unknown"
	}
}

// Details records the inputs that fed a calculation.
type Details struct {
	Kind Kind
	// OffenseStat and DefenseStat are the attack/defense or magic/spirit pair read.
	OffenseStat int
	DefenseStat int
	// BRVPoints is the Brave pool converted by an HP calculation.
	BRVPoints int
	IsBreak   bool
	Element   string
	// ElementBonus is 1/resistance for magic damage, 1 otherwise.
	ElementBonus float64
	// Wound is the persistent scarring value derived from HP damage.
	Wound int
}

// Result is an immutable calculation outcome.
type Result struct {
	BaseDamage  int
	FinalDamage int
	IsCritical  bool
	Multiplier  float64
	Variance    float64
	Details     Details
}

// Calculator evaluates the damage formulas. It holds no mutable state.
type Calculator struct {
	cfg    Config
	roller Roller
	logger *zap.Logger
}

// NewCalculator creates a Calculator.
//
// Precondition: roller must be non-nil. A nil logger is replaced by a no-op logger.
func NewCalculator(cfg Config, roller Roller, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{cfg: cfg, roller: roller, logger: logger}
}

// Config returns the constants in use.
func (c *Calculator) Config() Config { return c.cfg }

// BRVDamage computes physical Brave damage.
//
// Postcondition: result.FinalDamage >= MinBRVDamage; result.BaseDamage >= 1.
func (c *Calculator) BRVDamage(attacker, defender character.StatHolder, multiplier float64) Result {
	atk, def := attacker.AttackStat(), defender.DefenseStat()
	res := c.scaled(attacker, atk, def, multiplier, 1.0)
	res.Details.Kind = KindBRV
	c.logger.Debug("brv damage",
		zap.Int("attack", atk),
		zap.Int("defense", def),
		zap.Float64("multiplier", multiplier),
		zap.Int("final", res.FinalDamage),
		zap.Bool("critical", res.IsCritical),
	)
	return res
}

// MagicDamage computes magical Brave damage using magic against spirit, scaled
// by 1/resistance when element is non-empty.
//
// Postcondition: result.FinalDamage >= MinBRVDamage.
func (c *Calculator) MagicDamage(attacker, defender character.StatHolder, multiplier float64, element string) Result {
	mag, spr := attacker.MagicStat(), defender.SpiritStat()
	bonus := 1.0
	if element != "" {
		bonus = 1.0 / defender.Resistance(element)
	}
	res := c.scaled(attacker, mag, spr, multiplier, bonus)
	res.Details.Kind = KindMagic
	res.Details.Element = element
	c.logger.Debug("magic damage",
		zap.Int("magic", mag),
		zap.Int("spirit", spr),
		zap.String("element", element),
		zap.Float64("element_bonus", bonus),
		zap.Int("final", res.FinalDamage),
	)
	return res
}

// HPDamage converts a Brave pool into HP damage. HP damage never crits. The
// break bonus applies after the MinHPDamage floor, so a broken defender always
// takes more than an unbroken one when BreakBonus > 1.
//
// Postcondition: result.FinalDamage >= MinHPDamage;
// result.Details.Wound == floor(FinalDamage * WoundRate).
func (c *Calculator) HPDamage(brvPoints int, multiplier float64, isBreak bool) Result {
	base := int(math.Floor(float64(brvPoints) * multiplier * c.cfg.HPScale))
	final := max(MinHPDamage, base)
	if isBreak {
		final = max(MinHPDamage, int(math.Floor(float64(final)*c.cfg.BreakBonus)))
	}
	wound := int(math.Floor(float64(final) * c.cfg.WoundRate))
	c.logger.Debug("hp damage",
		zap.Int("brv_points", brvPoints),
		zap.Float64("multiplier", multiplier),
		zap.Bool("break", isBreak),
		zap.Int("final", final),
		zap.Int("wound", wound),
	)
	return Result{
		BaseDamage:  base,
		FinalDamage: final,
		Multiplier:  multiplier,
		Variance:    1.0,
		Details: Details{
			Kind:         KindHP,
			BRVPoints:    brvPoints,
			IsBreak:      isBreak,
			ElementBonus: 1.0,
			Wound:        wound,
		},
	}
}

func (c *Calculator) scaled(attacker character.StatHolder, off, def int, multiplier, bonus float64) Result {
	base := max(1, off-def)
	variance := c.roller.Uniform(varianceLow, varianceHigh)
	dmg := float64(base) * multiplier * c.cfg.BRVScale * bonus * variance
	crit := c.roller.Chance(c.critChance(attacker))
	if crit {
		dmg *= c.cfg.CriticalMultiplier
	}
	return Result{
		BaseDamage:  base,
		FinalDamage: max(MinBRVDamage, int(math.Floor(dmg))),
		IsCritical:  crit,
		Multiplier:  multiplier,
		Variance:    variance,
		Details: Details{
			OffenseStat:  off,
			DefenseStat:  def,
			ElementBonus: bonus,
		},
	}
}

func (c *Calculator) critChance(attacker character.StatHolder) float64 {
	return c.cfg.CriticalChance + float64(attacker.LuckStat())/100.0 + attacker.CriticalBonus()
}
