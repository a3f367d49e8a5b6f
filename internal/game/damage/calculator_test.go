package damage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/brave/internal/config"
	"github.com/cory-johannsen/brave/internal/game/buff"
	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/damage"
	"github.com/cory-johannsen/brave/internal/game/dice"
)

// fixedRoller returns a constant variance and a fixed critical outcome,
// recording the last critical probability it was asked about.
type fixedRoller struct {
	variance  float64
	crit      bool
	lastCritP float64
}

func (r *fixedRoller) Uniform(lo, hi float64) float64 { return r.variance }
func (r *fixedRoller) Chance(p float64) bool {
	r.lastCritP = p
	return r.crit
}

func combatant(atk, def, mag, spr, luck int) *character.Character {
	return character.New(character.Spec{
		Name:        "c",
		MaxHP:       100,
		Stats:       character.Stats{Attack: atk, Defense: def, Magic: mag, Spirit: spr, Luck: luck},
		Resistances: map[string]float64{"fire": 2.0, "ice": 0.5},
	})
}

func calc(r damage.Roller) *damage.Calculator {
	return damage.NewCalculator(damage.DefaultConfig(), r, zap.NewNop())
}

func TestBRVDamage_ScenarioFloorsToOne(t *testing.T) {
	a := combatant(20, 0, 0, 0, 0)
	d := combatant(0, 5, 0, 0, 0)
	for _, v := range []float64{0.9, 1.0, 1.1} {
		res := calc(&fixedRoller{variance: v}).BRVDamage(a, d, 1.0)
		assert.Equal(t, 15, res.BaseDamage)
		assert.Equal(t, 1, res.FinalDamage, "variance %v", v)
		assert.False(t, res.IsCritical)
		assert.Equal(t, damage.KindBRV, res.Details.Kind)
	}
}

func TestBRVDamage_BaseAtLeastOne(t *testing.T) {
	a := combatant(3, 0, 0, 0, 0)
	d := combatant(0, 50, 0, 0, 0)
	res := calc(&fixedRoller{variance: 1.0}).BRVDamage(a, d, 1.0)
	assert.Equal(t, 1, res.BaseDamage)
	assert.Equal(t, damage.MinBRVDamage, res.FinalDamage)
}

func TestBRVDamage_CriticalMultiplies(t *testing.T) {
	a := combatant(210, 0, 0, 0, 0)
	d := combatant(0, 10, 0, 0, 0)
	normal := calc(&fixedRoller{variance: 1.0}).BRVDamage(a, d, 1.0)
	crit := calc(&fixedRoller{variance: 1.0, crit: true}).BRVDamage(a, d, 1.0)
	assert.Equal(t, 20, normal.FinalDamage)
	assert.Equal(t, 30, crit.FinalDamage)
	assert.True(t, crit.IsCritical)
}

func TestBRVDamage_CriticalChanceIncludesLuckAndBuff(t *testing.T) {
	a := combatant(10, 0, 0, 0, 20)
	a.Buffs().Apply(buff.CriticalUp, 0.05, 1)
	d := combatant(0, 0, 0, 0, 0)
	r := &fixedRoller{variance: 1.0}
	calc(r).BRVDamage(a, d, 1.0)
	assert.InDelta(t, 0.35, r.lastCritP, 1e-9)
}

func TestMagicDamage_ElementBonus(t *testing.T) {
	a := combatant(0, 0, 410, 0, 0)
	d := combatant(0, 0, 0, 10, 0)
	c := calc(&fixedRoller{variance: 1.0})

	neutral := c.MagicDamage(a, d, 1.0, "")
	fire := c.MagicDamage(a, d, 1.0, "fire")
	ice := c.MagicDamage(a, d, 1.0, "ice")
	unknown := c.MagicDamage(a, d, 1.0, "wind")

	assert.Equal(t, 40, neutral.FinalDamage)
	assert.Equal(t, 20, fire.FinalDamage)
	assert.Equal(t, 80, ice.FinalDamage)
	assert.Equal(t, 40, unknown.FinalDamage)
	assert.Equal(t, 0.5, fire.Details.ElementBonus)
	assert.Equal(t, damage.KindMagic, fire.Details.Kind)
}

func TestHPDamage_Scenario(t *testing.T) {
	c := calc(&fixedRoller{variance: 1.0})
	res := c.HPDamage(80, 1.0, false)
	assert.Equal(t, 12, res.BaseDamage)
	assert.Equal(t, 12, res.FinalDamage)
	assert.Equal(t, 3, res.Details.Wound)
	assert.False(t, res.IsCritical)

	broken := c.HPDamage(80, 1.0, true)
	assert.Equal(t, 18, broken.FinalDamage)
	assert.True(t, broken.Details.IsBreak)
}

func TestHPDamage_FloorOfFive(t *testing.T) {
	res := calc(&fixedRoller{variance: 1.0}).HPDamage(1, 1.0, false)
	assert.Equal(t, 0, res.BaseDamage)
	assert.Equal(t, damage.MinHPDamage, res.FinalDamage)
	assert.Equal(t, 1, res.Details.Wound)
}

func TestHPDamage_BreakBonusAppliesAboveFloor(t *testing.T) {
	c := calc(&fixedRoller{variance: 1.0})
	for _, brv := range []int{0, 1, 10, 20} {
		plain := c.HPDamage(brv, 1.0, false)
		broken := c.HPDamage(brv, 1.0, true)
		assert.Equal(t, damage.MinHPDamage, plain.FinalDamage, "brv %d", brv)
		assert.Equal(t, 7, broken.FinalDamage, "brv %d", brv)
		assert.Equal(t, 1, broken.Details.Wound)
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := damage.ConfigFrom(config.Defaults().Combat.Damage)
	assert.Equal(t, damage.DefaultConfig(), cfg)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "brv", damage.KindBRV.String())
	assert.Equal(t, "hp", damage.KindHP.String())
	assert.Equal(t, "magic", damage.KindMagic.String())
	assert.Equal(t, "unknown", damage.Kind(99).String())
}

func TestProperty_BRVDamagePureWithoutRandomness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		atk := rapid.IntRange(0, 500).Draw(rt, "atk")
		def := rapid.IntRange(0, 500).Draw(rt, "def")
		mult := rapid.Float64Range(0.1, 5).Draw(rt, "mult")
		a, d := combatant(atk, 0, 0, 0, 0), combatant(0, def, 0, 0, 0)
		r1 := calc(&fixedRoller{variance: 1.0}).BRVDamage(a, d, mult)
		r2 := calc(&fixedRoller{variance: 1.0}).BRVDamage(a, d, mult)
		require.Equal(rt, r1, r2)
		require.GreaterOrEqual(rt, r1.FinalDamage, 1)
	})
}

func TestProperty_HPBreakStrictlyGreater(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		brv := rapid.IntRange(0, 10000).Draw(rt, "brv")
		mult := rapid.Float64Range(0, 3).Draw(rt, "mult")
		c := calc(&fixedRoller{variance: 1.0})
		plain := c.HPDamage(brv, mult, false)
		broken := c.HPDamage(brv, mult, true)
		if broken.FinalDamage <= plain.FinalDamage {
			rt.Fatalf("break %d not greater than plain %d", broken.FinalDamage, plain.FinalDamage)
		}
	})
}

func TestProperty_SeededVarianceWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		roller := dice.NewLoggedRoller(dice.NewSeededSource(seed), nil)
		res := calc(roller).BRVDamage(combatant(100, 0, 0, 0, 0), combatant(0, 0, 0, 0, 0), 1.0)
		if res.Variance < 0.9 || res.Variance > 1.1 {
			rt.Fatalf("variance %v out of range", res.Variance)
		}
	})
}
