package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/brave/internal/game/dice"
)

// fixedSource always returns the configured values.
type fixedSource struct {
	f float64
	n int
}

func (s fixedSource) Intn(n int) int    { return s.n % n }
func (s fixedSource) Float64() float64 { return s.f }

func TestCryptoSource_IntnPanicsOnNonPositive(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
	assert.Panics(t, func() { src.Intn(-3) })
}

func TestCryptoSource_Property_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 1000).Draw(rt, "n")
		v := src.Intn(n)
		assert.GreaterOrEqual(rt, v, 0)
		assert.Less(rt, v, n)
		f := src.Float64()
		assert.GreaterOrEqual(rt, f, 0.0)
		assert.Less(rt, f, 1.0)
	})
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64())
		require.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestSeededSource_DifferentSeedsDiverge(t *testing.T) {
	a := dice.NewSeededSource(1)
	b := dice.NewSeededSource(2)
	same := true
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			same = false
		}
	}
	assert.False(t, same)
}

func TestRoller_UniformBounds_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		r := dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
		v := r.Uniform(0.9, 1.1)
		assert.GreaterOrEqual(rt, v, 0.9)
		assert.LessOrEqual(rt, v, 1.1)
	})
}

func TestRoller_ChanceEdges(t *testing.T) {
	r := dice.NewLoggedRoller(fixedSource{f: 0.0}, nil)
	assert.False(t, r.Chance(0), "zero probability never hits")
	r = dice.NewLoggedRoller(fixedSource{f: 0.999}, nil)
	assert.True(t, r.Chance(1), "certain probability always hits")
	assert.False(t, r.Chance(0.5))
	r = dice.NewLoggedRoller(fixedSource{f: 0.2}, nil)
	assert.True(t, r.Chance(0.5))
}

func TestRoller_LogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := dice.NewLoggedRoller(fixedSource{f: 0.5, n: 3}, zap.New(core))

	r.Uniform(0, 2)
	r.Chance(0.7)
	assert.Equal(t, 3, r.Intn(10))

	entries := logs.FilterMessage("dice roll").All()
	require.Len(t, entries, 3)
	assert.Equal(t, "uniform", entries[0].ContextMap()["kind"])
	assert.Equal(t, 1.0, entries[0].ContextMap()["result"])
	assert.Equal(t, "chance", entries[1].ContextMap()["kind"])
	assert.Equal(t, true, entries[1].ContextMap()["result"])
	assert.Equal(t, "intn", entries[2].ContextMap()["kind"])
}

func TestSeededChance_RatioNearProbability(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewSeededSource(7), nil)
	hits := 0
	for i := 0; i < 1000; i++ {
		if r.Chance(0.5) {
			hits++
		}
	}
	assert.InDelta(t, 0.5, float64(hits)/1000, 0.06)
}
