package casting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/brave/internal/game/casting"
	"github.com/cory-johannsen/brave/internal/game/character"
)

// fixedChance answers every roll with hit and records the probability asked.
type fixedChance struct {
	hit   bool
	asked []float64
}

func (f *fixedChance) Chance(p float64) bool {
	f.asked = append(f.asked, p)
	return f.hit
}

func mage(id string) *character.Character {
	return character.New(character.Spec{ID: id, Name: id, MaxHP: 50})
}

func TestStartCast_AndProgress(t *testing.T) {
	s := casting.NewSystem(&fixedChance{}, zap.NewNop())
	m := mage("m")
	info := s.StartCast(m, "fireball", nil, 2.0, true)
	assert.Equal(t, casting.Casting, info.State)
	assert.True(t, s.IsCasting(m))

	s.Update(0.5)
	got, ok := s.CastInfo(m)
	require.True(t, ok)
	assert.InDelta(t, 0.25, got.Progress(), 1e-9)
	assert.Empty(t, s.CompletedCasts())
}

func TestUpdate_CompletesIntoQueue(t *testing.T) {
	s := casting.NewSystem(&fixedChance{}, zap.NewNop())
	a, b := mage("a"), mage("b")
	s.StartCast(a, "slow", nil, 3.0, true)
	s.StartCast(b, "quick", nil, 1.0, true)

	s.Update(1.0)
	done := s.CompletedCasts()
	require.Len(t, done, 1)
	assert.Equal(t, "quick", done[0].SkillID)
	assert.Equal(t, casting.CastComplete, done[0].State)
	assert.False(t, s.IsCasting(b))
	assert.True(t, s.IsCasting(a))
	assert.Empty(t, s.CompletedCasts(), "queue drains")

	s.Update(5)
	done = s.CompletedCasts()
	require.Len(t, done, 1)
	assert.Equal(t, "slow", done[0].SkillID)
}

func TestUpdate_CompletionOrderFollowsStartOrder(t *testing.T) {
	s := casting.NewSystem(&fixedChance{}, zap.NewNop())
	s.StartCast(mage("x"), "one", nil, 1, true)
	s.StartCast(mage("y"), "two", nil, 1, true)
	s.StartCast(mage("z"), "three", nil, 1, true)
	s.Update(1)
	done := s.CompletedCasts()
	require.Len(t, done, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{done[0].SkillID, done[1].SkillID, done[2].SkillID})
}

func TestStartCast_ReplacesExisting(t *testing.T) {
	s := casting.NewSystem(&fixedChance{}, zap.NewNop())
	m := mage("m")
	s.StartCast(m, "first", nil, 5, false)
	s.StartCast(m, "second", nil, 1, true)
	assert.Len(t, s.Active(), 1)
	info, _ := s.CastInfo(m)
	assert.Equal(t, "second", info.SkillID)
}

func TestInterruptOnDamage_Chance(t *testing.T) {
	ch := &fixedChance{hit: true}
	s := casting.NewSystem(ch, zap.NewNop())
	m := mage("m")
	s.StartCast(m, "fireball", nil, 5, true)

	assert.True(t, s.InterruptOnDamage(m, 40))
	assert.InDelta(t, 0.4, ch.asked[0], 1e-9)
	assert.False(t, s.IsCasting(m))
}

func TestInterruptOnDamage_CappedChance(t *testing.T) {
	ch := &fixedChance{hit: false}
	s := casting.NewSystem(ch, zap.NewNop())
	m := mage("m")
	s.StartCast(m, "fireball", nil, 5, true)
	assert.False(t, s.InterruptOnDamage(m, 10000))
	assert.Equal(t, casting.MaxInterruptChance, ch.asked[0])
	assert.True(t, s.IsCasting(m))
}

func TestInterruptOnDamage_ImmuneWhenNotInterruptible(t *testing.T) {
	ch := &fixedChance{hit: true}
	s := casting.NewSystem(ch, zap.NewNop())
	m := mage("m")
	s.StartCast(m, "ultima", nil, 5, false)
	assert.False(t, s.InterruptOnDamage(m, 100))
	assert.Empty(t, ch.asked)
	assert.True(t, s.IsCasting(m))
}

func TestCancelCast(t *testing.T) {
	s := casting.NewSystem(&fixedChance{}, zap.NewNop())
	m := mage("m")

	assert.ErrorIs(t, s.CancelCast(m, false), casting.ErrNotCasting)

	s.StartCast(m, "ultima", nil, 5, false)
	assert.ErrorIs(t, s.CancelCast(m, false), casting.ErrNotInterruptible)
	assert.True(t, s.IsCasting(m), "protected cast continues")

	require.NoError(t, s.CancelCast(m, true))
	assert.False(t, s.IsCasting(m))
}

func TestZeroCastTimeCompletesOnNextUpdate(t *testing.T) {
	s := casting.NewSystem(&fixedChance{}, zap.NewNop())
	m := mage("m")
	info := s.StartCast(m, "instant", nil, 0, true)
	assert.Equal(t, 1.0, info.Progress())
	s.Update(0)
	assert.Len(t, s.CompletedCasts(), 1)
}

func TestClear(t *testing.T) {
	s := casting.NewSystem(&fixedChance{}, zap.NewNop())
	s.StartCast(mage("a"), "x", nil, 1, true)
	s.StartCast(mage("b"), "y", nil, 9, true)
	s.Update(1)
	s.Clear()
	assert.Empty(t, s.Active())
	assert.Empty(t, s.CompletedCasts())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "casting", casting.Casting.String())
	assert.Equal(t, "interrupted", casting.Interrupted.String())
	assert.Equal(t, "unknown", casting.State(42).String())
}

func TestProperty_CompletesExactlyOnce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := casting.NewSystem(&fixedChance{}, zap.NewNop())
		castTime := rapid.Float64Range(0.1, 5).Draw(rt, "cast_time")
		s.StartCast(mage("m"), "x", nil, castTime, true)
		completions := 0
		steps := rapid.SliceOfN(rapid.Float64Range(0, 1), 1, 40).Draw(rt, "steps")
		for _, dt := range steps {
			s.Update(dt)
			completions += len(s.CompletedCasts())
		}
		s.Update(castTime)
		completions += len(s.CompletedCasts())
		if completions != 1 {
			rt.Fatalf("cast completed %d times", completions)
		}
	})
}
