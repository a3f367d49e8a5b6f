package combat_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/event"
)

var alwaysDefend = combat.ChooserFunc(func(m *combat.Manager, actor character.Combatant) combat.Action {
	return combat.Action{Actor: actor, Type: combat.ActionDefend}
})

func startedManager(t *testing.T, rec *event.Recorder, goblins int) *combat.Manager {
	t.Helper()
	s := combat.NewSession("loop", testConfig(), coinFlip, nil, rec, nil)
	enemies := make([]character.Combatant, 0, goblins)
	for i := 0; i < goblins; i++ {
		enemies = append(enemies, goblin(fmt.Sprintf("g%d", i+1)))
	}
	require.NoError(t, s.Combat.Start([]character.Combatant{hero("h1"), hero("h2")}, enemies))
	return s.Combat
}

func TestDriver_RunsToVictory(t *testing.T) {
	rec := &event.Recorder{}
	m := startedManager(t, rec, 1)
	d := &combat.Driver{Manager: m, Tick: 0.5, MaxSteps: 10000}

	state, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, combat.StateVictory, state)
	assert.Len(t, rec.OfType(event.TypeCombatEnded), 1)
	assert.Positive(t, m.Turn())
}

func TestDriver_Stalls(t *testing.T) {
	m := startedManager(t, nil, 3)
	d := &combat.Driver{Manager: m, Allies: alwaysDefend, Enemies: alwaysDefend, Tick: 1, MaxSteps: 5}

	state, err := d.Run(context.Background())
	assert.ErrorIs(t, err, combat.ErrStalled)
	assert.Equal(t, combat.StateInProgress, state)
	assert.Equal(t, 25, m.Turn(), "every combatant acts once per step")
}

func TestDriver_RejectedChoiceDefends(t *testing.T) {
	rec := &event.Recorder{}
	m := startedManager(t, rec, 3)
	bogus := combat.ChooserFunc(func(m *combat.Manager, actor character.Combatant) combat.Action {
		return combat.Action{Actor: actor, Type: combat.ActionHPAttack, Target: actor}
	})
	d := &combat.Driver{Manager: m, Allies: bogus, Enemies: alwaysDefend, Tick: 1}
	d.Step()

	for _, ev := range rec.OfType(event.TypeActionResolved) {
		assert.Equal(t, "defend", ev.(event.ActionResolved).Action)
	}
	assert.Equal(t, 5, m.Turn())
	assert.Equal(t, combat.StateInProgress, m.State())
}

func TestDriver_HonoursContext(t *testing.T) {
	m := startedManager(t, nil, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &combat.Driver{Manager: m, Allies: alwaysDefend, Enemies: alwaysDefend, Tick: 1}
	_, err := d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	d.Pace = 5 * time.Millisecond
	_, err = d.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDriver_RejectsNonPositiveTick(t *testing.T) {
	m := startedManager(t, nil, 3)
	_, err := (&combat.Driver{Manager: m}).Run(context.Background())
	assert.Error(t, err)
}
