package skill_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/brave/internal/game/event"
	"github.com/cory-johannsen/brave/internal/game/skill"
)

func strike(cooldown int) *skill.Skill {
	return &skill.Skill{
		ID:       "strike",
		Target:   skill.TargetSingle,
		Cooldown: cooldown,
		Costs:    []skill.Cost{skill.MPCost{Amount: 10}},
		Effects:  []skill.Effect{skill.Damage{Type: skill.DamageBRV, Multiplier: 1}},
	}
}

func TestManager_UnknownSkill(t *testing.T) {
	rec := &event.Recorder{}
	m := skill.NewManager(rec, zap.NewNop())
	u, e := hero("u"), foe("e", 50)
	res, err := m.Execute("nope", u, e, newCtx(nil, nil))
	require.ErrorIs(t, err, skill.ErrUnknownSkill)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Reason)
	assert.Equal(t, 50, u.MP())
	require.Len(t, rec.OfType(event.TypeSkillExecuted), 1)
}

func TestManager_SuccessSetsCooldown(t *testing.T) {
	m := skill.NewManager(nil, nil)
	m.Register(strike(2))
	u, e := hero("u"), foe("e", 50)

	res, err := m.Execute("strike", u, e, newCtx(nil, nil))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, m.Cooldown(u, "strike"))
	assert.True(t, m.IsOnCooldown(u, "strike"))

	other := hero("other")
	assert.False(t, m.IsOnCooldown(other, "strike"), "cooldowns are keyed per caster")
}

func TestManager_CooldownRejectedBeforeCost(t *testing.T) {
	m := skill.NewManager(nil, nil)
	m.Register(strike(3))
	u, e := hero("u"), foe("e", 50)
	m.SetCooldown(u, "strike", 1)
	u.SetMP(0)

	_, err := m.Execute("strike", u, e, newCtx(nil, nil))
	require.ErrorIs(t, err, skill.ErrOnCooldown)
	assert.Equal(t, 1, m.Cooldown(u, "strike"))
}

func TestManager_FailedCostSetsNoCooldown(t *testing.T) {
	m := skill.NewManager(nil, nil)
	m.Register(strike(3))
	u, e := hero("u"), foe("e", 50)
	u.SetMP(5)

	res, err := m.Execute("strike", u, e, newCtx(nil, nil))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 5, u.MP())
	assert.False(t, m.IsOnCooldown(u, "strike"))
}

func TestManager_LastRegistrationWins(t *testing.T) {
	m := skill.NewManager(nil, nil)
	m.Register(strike(1))
	m.Register(strike(5))
	s, ok := m.Get("strike")
	require.True(t, ok)
	assert.Equal(t, 5, s.Cooldown)
	assert.Len(t, m.Skills(), 1)
}

func TestManager_ReduceCooldownsRemovesAtZero(t *testing.T) {
	m := skill.NewManager(nil, nil)
	u := hero("u")
	m.SetCooldown(u, "a", 2)
	m.SetCooldown(u, "b", 1)

	m.ReduceCooldowns(u, 1)
	assert.Equal(t, map[string]int{"a": 1}, m.Cooldowns(u))
	m.ReduceCooldowns(u, 1)
	assert.Empty(t, m.Cooldowns(u))
	assert.NotPanics(t, func() { m.ReduceCooldowns(u, 1) })
}

func TestManager_SetCooldownNonPositiveRemoves(t *testing.T) {
	m := skill.NewManager(nil, nil)
	u := hero("u")
	m.SetCooldown(u, "a", 2)
	m.SetCooldown(u, "a", 0)
	_, present := m.Cooldowns(u)["a"]
	assert.False(t, present)
}

func TestManager_ClearCooldowns(t *testing.T) {
	m := skill.NewManager(nil, nil)
	u := hero("u")
	m.SetCooldown(u, "a", 2)
	m.ClearCooldowns()
	assert.False(t, m.IsOnCooldown(u, "a"))
}

func TestProperty_CooldownExpiresAfterExactlyNReductions(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		m := skill.NewManager(nil, nil)
		m.Register(strike(n))
		u, e := hero("u"), foe("e", 50)
		res, err := m.Execute("strike", u, e, newCtx(nil, nil))
		require.NoError(rt, err)
		require.True(rt, res.Success)
		for i := 0; i < n-1; i++ {
			m.ReduceCooldowns(u, 1)
			if got := m.Cooldown(u, "strike"); got != n-1-i {
				rt.Fatalf("after %d reductions cooldown=%d want %d", i+1, got, n-1-i)
			}
		}
		m.ReduceCooldowns(u, 1)
		if _, present := m.Cooldowns(u)["strike"]; present {
			rt.Fatalf("cooldown entry retained at zero")
		}
	})
}
