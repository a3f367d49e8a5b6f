package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/brave/internal/game/atb"
	"github.com/cory-johannsen/brave/internal/game/brave"
	"github.com/cory-johannsen/brave/internal/game/buff"
	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/dice"
	"github.com/cory-johannsen/brave/internal/game/event"
	"github.com/cory-johannsen/brave/internal/game/skill"
)

// stubRoller never varies damage; chance decides every probabilistic roll.
type stubRoller struct {
	chance func(p float64) bool
}

func (stubRoller) Uniform(lo, hi float64) float64 { return 1.0 }
func (r stubRoller) Chance(p float64) bool {
	if r.chance == nil {
		return false
	}
	return r.chance(p)
}

// coinFlip succeeds for rolls of at least even odds, so flee succeeds and crits miss.
var coinFlip = stubRoller{chance: func(p float64) bool { return p >= 0.5 }}

func hero(id string) *character.Character {
	return character.New(character.Spec{
		ID:      id,
		Name:    id,
		MaxHP:   100,
		MaxMP:   50,
		MaxBRV:  500,
		InitBRV: 50,
		Stats:   character.Stats{Attack: 110, Defense: 10, Magic: 40, Spirit: 10, Speed: 10},
	})
}

func goblin(id string) *character.Character {
	return character.New(character.Spec{
		ID:      id,
		Name:    id,
		MaxHP:   100,
		MaxBRV:  300,
		InitBRV: 20,
		Stats:   character.Stats{Attack: 60, Defense: 10, Spirit: 10, Speed: 10},
	})
}

var meteor = &skill.Skill{
	ID:            "meteor",
	Target:        skill.TargetSingle,
	CastTime:      2,
	Interruptible: true,
	Effects:       []skill.Effect{skill.Damage{Type: skill.DamageBRV, Multiplier: 2}},
}

var slash = &skill.Skill{
	ID:       "slash",
	Target:   skill.TargetSingle,
	Cooldown: 2,
	Costs:    []skill.Cost{skill.MPCost{Amount: 10}},
	Effects:  []skill.Effect{skill.Damage{Type: skill.DamageBRV, Multiplier: 1.5}},
}

func testConfig() combat.SessionConfig {
	cfg := combat.DefaultSessionConfig()
	cfg.ATB = atb.Config{Threshold: 10, Rate: 1}
	return cfg
}

type fixture struct {
	s      *combat.Session
	m      *combat.Manager
	rec    *event.Recorder
	hero   *character.Character
	goblin *character.Character
}

// newFixture starts a one-on-one combat and advances time until both sides are ready.
func newFixture(t *testing.T, r combat.Roller) *fixture {
	t.Helper()
	rec := &event.Recorder{}
	s := combat.NewSession("test", testConfig(), r, []*skill.Skill{meteor, slash}, rec, zap.NewNop())
	f := &fixture{s: s, m: s.Combat, rec: rec, hero: hero("hero"), goblin: goblin("goblin")}
	require.NoError(t, f.m.Start([]character.Combatant{f.hero}, []character.Combatant{f.goblin}))
	f.m.Update(1)
	return f
}

func (f *fixture) act(t combat.ActionType, actor, target character.Combatant) combat.Result {
	return f.m.ExecuteAction(combat.Action{Actor: actor, Type: t, Target: target})
}

func TestStart_InitializesBraveAndPublishes(t *testing.T) {
	rec := &event.Recorder{}
	s := combat.NewSession("c1", testConfig(), coinFlip, nil, rec, nil)
	h, g := hero("hero"), goblin("goblin")
	h.SetBRV(0)

	require.NoError(t, s.Combat.Start([]character.Combatant{h}, []character.Combatant{g}))
	assert.Equal(t, combat.StateInProgress, s.Combat.State())
	assert.Equal(t, 50, h.BRV())
	assert.Equal(t, 20, g.BRV())
	assert.True(t, s.Combat.IsAlly(h))
	assert.False(t, s.Combat.IsAlly(g))

	started := rec.OfType(event.TypeCombatStarted)
	require.Len(t, started, 1)
	assert.Equal(t, event.CombatStarted{CombatID: "c1", Allies: []string{"hero"}, Enemies: []string{"goblin"}}, started[0])
}

func TestStart_Errors(t *testing.T) {
	s := combat.NewSession("c1", testConfig(), coinFlip, nil, nil, nil)
	err := s.Combat.Start(nil, []character.Combatant{goblin("g")})
	assert.True(t, errors.Is(err, combat.ErrEmptyRoster))
	assert.Equal(t, combat.StateNotStarted, s.Combat.State())

	err = s.Combat.Start([]character.Combatant{hero("x")}, []character.Combatant{goblin("x")})
	assert.True(t, errors.Is(err, atb.ErrAlreadyRegistered))
	assert.Equal(t, combat.StateNotStarted, s.Combat.State())
	assert.Equal(t, 0, s.ATB.Len(), "a failed start registers nothing")

	require.NoError(t, s.Combat.Start([]character.Combatant{hero("h")}, []character.Combatant{goblin("g")}))
	err = s.Combat.Start([]character.Combatant{hero("h2")}, []character.Combatant{goblin("g2")})
	assert.True(t, errors.Is(err, combat.ErrAlreadyStarted))
}

func TestStart_AlreadyDefeatedSideEndsImmediately(t *testing.T) {
	s := combat.NewSession("c1", testConfig(), coinFlip, nil, nil, nil)
	g := goblin("g")
	g.SetHP(0)
	require.NoError(t, s.Combat.Start([]character.Combatant{hero("h")}, []character.Combatant{g}))
	assert.Equal(t, combat.StateVictory, s.Combat.State())
}

func TestUpdate_PlayerInputFreezesTime(t *testing.T) {
	s := combat.NewSession("c1", testConfig(), coinFlip, nil, nil, nil)
	h, g := hero("h"), goblin("g")
	require.NoError(t, s.Combat.Start([]character.Combatant{h}, []character.Combatant{g}))

	s.Combat.BeginPlayerInput()
	assert.Equal(t, combat.StatePlayerTurn, s.Combat.State())
	s.Combat.Update(5)
	assert.Zero(t, s.Combat.Progress(h))
	assert.Empty(t, s.Combat.ActionOrder())

	s.Combat.EndPlayerInput()
	assert.Equal(t, combat.StateInProgress, s.Combat.State())
	s.Combat.Update(0.5)
	assert.InDelta(t, 0.5, s.Combat.Progress(h), 1e-9)
}

func TestExecuteAction_Rejections(t *testing.T) {
	f := newFixture(t, coinFlip)
	stranger := hero("stranger")
	dead := goblin("dead")

	cases := []struct {
		name   string
		action combat.Action
		reason string
	}{
		{"actor outside combat", combat.Action{Actor: stranger, Type: combat.ActionBRVAttack, Target: f.goblin}, "actor is not in this combat"},
		{"nil actor", combat.Action{Type: combat.ActionDefend}, "actor is not in this combat"},
		{"unknown action", combat.Action{Actor: f.hero, Type: combat.ActionType(99)}, "unknown action"},
		{"attack an ally", combat.Action{Actor: f.hero, Type: combat.ActionBRVAttack, Target: f.hero}, "invalid target"},
		{"attack without target", combat.Action{Actor: f.hero, Type: combat.ActionHPAttack}, "invalid target"},
		{"target outside combat", combat.Action{Actor: f.hero, Type: combat.ActionItem, Target: dead}, "invalid target"},
		{"unknown skill", combat.Action{Actor: f.hero, Type: combat.ActionSkill, SkillID: "nope", Target: f.goblin}, "unknown skill"},
		{"single skill without target", combat.Action{Actor: f.hero, Type: combat.ActionSkill, SkillID: "slash"}, "no target"},
		{"single skill on an ally", combat.Action{Actor: f.hero, Type: combat.ActionSkill, SkillID: "slash", Target: f.hero}, "invalid target"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := f.m.ExecuteAction(tc.action)
			rej, ok := res.(*combat.RejectedResult)
			require.True(t, ok, "expected rejection, got %T", res)
			assert.False(t, rej.Success)
			assert.Contains(t, rej.Reason, tc.reason)
		})
	}

	assert.Equal(t, 0, f.m.Turn(), "rejections never consume a turn")
	assert.Equal(t, 50, f.hero.BRV())
	assert.Equal(t, 20, f.goblin.BRV())
	assert.Equal(t, 1.0, f.m.Progress(f.hero))
	assert.Empty(t, f.rec.OfType(event.TypeActionResolved))
}

func TestExecuteAction_RejectsBeforeStartAndWhenNotReady(t *testing.T) {
	s := combat.NewSession("c1", testConfig(), coinFlip, nil, nil, nil)
	h, g := hero("h"), goblin("g")

	res := s.Combat.ExecuteAction(combat.Action{Actor: h, Type: combat.ActionDefend})
	require.IsType(t, &combat.RejectedResult{}, res)
	assert.Equal(t, "combat has not started", res.Summary().Reason)

	require.NoError(t, s.Combat.Start([]character.Combatant{h}, []character.Combatant{g}))
	res = s.Combat.ExecuteAction(combat.Action{Actor: h, Type: combat.ActionDefend})
	require.IsType(t, &combat.RejectedResult{}, res)
	assert.Equal(t, "actor is not ready", res.Summary().Reason)
	assert.False(t, h.Buffs().Has(buff.DefenseUp))
}

func TestExecuteAction_DefeatedActorRejected(t *testing.T) {
	ally := hero("ally")
	s := combat.NewSession("c2", testConfig(), coinFlip, nil, nil, nil)
	require.NoError(t, s.Combat.Start([]character.Combatant{hero("h"), ally}, []character.Combatant{goblin("g")}))
	s.Combat.Update(1)
	ally.SetHP(0)
	res := s.Combat.ExecuteAction(combat.Action{Actor: ally, Type: combat.ActionDefend})
	assert.Equal(t, "actor is defeated", res.Summary().Reason)
}

func TestBRVAttack_StealsBrave(t *testing.T) {
	f := newFixture(t, coinFlip)

	res := f.act(combat.ActionBRVAttack, f.hero, f.goblin)
	r, ok := res.(*combat.BRVAttackResult)
	require.True(t, ok)
	assert.True(t, r.Success)
	assert.Equal(t, 10, r.Damage)
	assert.Equal(t, 10, r.Stolen)
	assert.Equal(t, 10, r.Gained)
	assert.False(t, r.Break)
	assert.Equal(t, 60, f.hero.BRV())
	assert.Equal(t, 10, f.goblin.BRV())
	assert.Equal(t, 1, f.m.Turn())
	assert.Zero(t, f.m.Progress(f.hero), "acting consumes the gauge")

	resolved := f.rec.OfType(event.TypeActionResolved)
	require.Len(t, resolved, 1)
	ev := resolved[0].(event.ActionResolved)
	assert.Equal(t, "brv_attack", ev.Action)
	assert.Equal(t, 10, ev.BRVDamage)
}

func TestBRVAttack_BreakThenHPAttackAppliesBonus(t *testing.T) {
	f := newFixture(t, coinFlip)
	f.goblin.SetBRV(5)

	r := f.act(combat.ActionBRVAttack, f.hero, f.goblin).(*combat.BRVAttackResult)
	assert.True(t, r.Break)
	assert.True(t, f.m.IsBroken(f.goblin))
	assert.Equal(t, 60, f.hero.BRV())

	f.m.Update(1)
	hp := f.act(combat.ActionHPAttack, f.hero, f.goblin).(*combat.HPAttackResult)
	require.True(t, hp.Success)
	assert.True(t, hp.BreakBonus)
	// floor(floor(60 * 0.15) * 1.5) = 13
	assert.Equal(t, 13, hp.HPDamage)
	assert.Equal(t, 87, f.goblin.HP())
	assert.Equal(t, 60, hp.BRVConsumed)
	assert.False(t, f.m.IsBroken(f.goblin))
}

func TestHPAttack_ReleasesBraveAndRecovers(t *testing.T) {
	f := newFixture(t, coinFlip)

	hp := f.act(combat.ActionHPAttack, f.hero, f.goblin).(*combat.HPAttackResult)
	require.True(t, hp.Success)
	assert.Equal(t, 7, hp.HPDamage)
	assert.Equal(t, 7, hp.Dealt)
	assert.Equal(t, 1, hp.Wound)
	assert.Equal(t, 93, f.goblin.HP())
	// Brave drops to zero, then turn-end recovery restores ceil(50 * 0.2).
	assert.Equal(t, 10, f.hero.BRV())

	ended := f.rec.OfType(event.TypeTurnEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, 10, ended[0].(event.TurnEnded).BRVRecovered)
}

func TestHPAttack_NoBraveStillConsumesTurn(t *testing.T) {
	f := newFixture(t, coinFlip)
	f.hero.SetBRV(0)

	res := f.act(combat.ActionHPAttack, f.hero, f.goblin)
	hp, ok := res.(*combat.HPAttackResult)
	require.True(t, ok)
	assert.False(t, hp.Success)
	assert.Equal(t, brave.ErrNoBrave.Error(), hp.Reason)
	assert.Equal(t, 100, f.goblin.HP())
	assert.Equal(t, 1, f.m.Turn())
	assert.Zero(t, f.m.Progress(f.hero))
}

func TestComboAttack_ChainsBRVIntoHP(t *testing.T) {
	f := newFixture(t, coinFlip)

	r := f.act(combat.ActionBRVHPAttack, f.hero, f.goblin).(*combat.ComboResult)
	assert.True(t, r.Success)
	assert.Equal(t, 10, r.BRV.Damage)
	require.NotNil(t, r.HP)
	assert.Equal(t, 60, r.HP.BRVConsumed)
	assert.Equal(t, 9, r.HP.HPDamage)
	assert.Equal(t, 91, f.goblin.HP())
	assert.Equal(t, 1, f.m.Turn(), "the chain is a single turn")
}

func TestDefend_BuffLastsUntilOwnerActsAgain(t *testing.T) {
	f := newFixture(t, coinFlip)

	d := f.act(combat.ActionDefend, f.hero, nil).(*combat.DefendResult)
	assert.Equal(t, buff.DefenseUp, d.Buff)
	assert.Equal(t, 1, d.Duration)
	assert.Equal(t, 15, f.hero.DefenseStat())

	f.act(combat.ActionBRVAttack, f.goblin, f.hero)
	assert.True(t, f.hero.Buffs().Has(buff.DefenseUp), "defense holds through the enemy turn")
	assert.Equal(t, 46, f.hero.BRV(), "60 attack against 15 defense steals 4")

	f.m.Update(1)
	f.act(combat.ActionBRVAttack, f.hero, f.goblin)
	assert.False(t, f.hero.Buffs().Has(buff.DefenseUp))

	ended := f.rec.OfType(event.TypeTurnEnded)
	require.Len(t, ended, 3)
	assert.Equal(t, []string{buff.DefenseUp}, ended[2].(event.TurnEnded).ExpiredBuffs)
}

func TestFlee_SuccessEndsCombat(t *testing.T) {
	f := newFixture(t, coinFlip)

	res := f.act(combat.ActionFlee, f.hero, nil)
	assert.True(t, res.Summary().Success)
	assert.Equal(t, combat.StateFled, f.m.State())

	events := f.rec.Events()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, event.TypeActionResolved, events[len(events)-2].EventType())
	assert.Equal(t, event.CombatEnded{CombatID: "test", State: "fled", Turns: 1}, events[len(events)-1])
}

func TestFlee_FailureKeepsFighting(t *testing.T) {
	f := newFixture(t, stubRoller{})

	res := f.act(combat.ActionFlee, f.hero, nil)
	assert.False(t, res.Summary().Success)
	assert.Equal(t, "could not escape", res.Summary().Reason)
	assert.Equal(t, combat.StateInProgress, f.m.State())
	assert.Equal(t, 1, f.m.Turn())
}

func TestFlee_SuccessRatioMatchesChance(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(42), zap.NewNop())
	const tries = 1000
	fled := 0
	for i := 0; i < tries; i++ {
		s := combat.NewSession("flee", testConfig(), roller, nil, nil, nil)
		h := hero("h")
		require.NoError(t, s.Combat.Start([]character.Combatant{h}, []character.Combatant{goblin("g")}))
		s.Combat.Update(1)
		if s.Combat.ExecuteAction(combat.Action{Actor: h, Type: combat.ActionFlee}).Summary().Success {
			fled++
		}
	}
	ratio := float64(fled) / tries
	assert.InDelta(t, 0.5, ratio, 0.05, "ratio %v", ratio)
}

func TestVictory_EndsAndBlocksFurtherActions(t *testing.T) {
	f := newFixture(t, coinFlip)
	f.goblin.SetHP(5)

	f.act(combat.ActionHPAttack, f.hero, f.goblin)
	assert.Equal(t, combat.StateVictory, f.m.State())
	assert.False(t, f.goblin.IsAlive())
	assert.Empty(t, f.m.ActionOrder())
	assert.Zero(t, f.s.ATB.Len())

	ended := f.rec.OfType(event.TypeCombatEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "victory", ended[0].(event.CombatEnded).State)

	res := f.act(combat.ActionDefend, f.hero, nil)
	require.IsType(t, &combat.RejectedResult{}, res)
	assert.Equal(t, "combat is over", res.Summary().Reason)
	assert.Nil(t, f.m.Update(1))
}

func TestDefeat_WhenAllAlliesFall(t *testing.T) {
	f := newFixture(t, coinFlip)
	f.hero.SetHP(2)

	f.act(combat.ActionHPAttack, f.goblin, f.hero)
	assert.Equal(t, combat.StateDefeat, f.m.State())
	ended := f.rec.OfType(event.TypeCombatEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "defeat", ended[0].(event.CombatEnded).State)
}

func TestDispatch_RestoresInProgress(t *testing.T) {
	f := newFixture(t, coinFlip)
	f.m.BeginPlayerInput()
	f.act(combat.ActionDefend, f.hero, nil)
	assert.Equal(t, combat.StateInProgress, f.m.State())
	f.act(combat.ActionDefend, f.goblin, nil)
	assert.Equal(t, combat.StateInProgress, f.m.State())
}

func TestSkill_InstantSetsCooldownUntilTurnsPass(t *testing.T) {
	f := newFixture(t, coinFlip)

	res := f.m.ExecuteAction(combat.Action{Actor: f.hero, Type: combat.ActionSkill, SkillID: "slash", Target: f.goblin})
	r, ok := res.(*combat.SkillResult)
	require.True(t, ok)
	require.True(t, r.Success, r.Reason)
	assert.Equal(t, 40, f.hero.MP())
	assert.Equal(t, 15, r.Skill.TotalBRVDamage())
	// Cooldown 2, reduced once by the turn that used it.
	assert.Equal(t, 1, f.s.Skills.Cooldown(f.hero, "slash"))

	f.m.Update(1)
	res = f.m.ExecuteAction(combat.Action{Actor: f.hero, Type: combat.ActionSkill, SkillID: "slash", Target: f.goblin})
	require.IsType(t, &combat.RejectedResult{}, res)
	assert.Contains(t, res.Summary().Reason, "cooldown")

	f.act(combat.ActionDefend, f.hero, nil)
	assert.False(t, f.s.Skills.IsOnCooldown(f.hero, "slash"))
}

func TestSkill_UnknownToCombatantRejected(t *testing.T) {
	f := newFixture(t, coinFlip)
	f.m.GrantSkills(f.hero.ID(), "meteor")

	res := f.m.ExecuteAction(combat.Action{Actor: f.hero, Type: combat.ActionSkill, SkillID: "slash", Target: f.goblin})
	require.IsType(t, &combat.RejectedResult{}, res)
	assert.Contains(t, res.Summary().Reason, "not known")
	assert.True(t, f.m.Knows(f.goblin, "slash"), "combatants without a grant know every skill")
}

func TestSkill_UnmetCostConsumesTurn(t *testing.T) {
	f := newFixture(t, coinFlip)
	f.hero.SetMP(5)

	res := f.m.ExecuteAction(combat.Action{Actor: f.hero, Type: combat.ActionSkill, SkillID: "slash", Target: f.goblin})
	r := res.(*combat.SkillResult)
	assert.False(t, r.Success)
	assert.Contains(t, r.Reason, "not enough MP")
	assert.Equal(t, 1, f.m.Turn())
	assert.False(t, f.s.Skills.IsOnCooldown(f.hero, "slash"))
}

func TestCast_CompletesDuringUpdate(t *testing.T) {
	f := newFixture(t, coinFlip)

	res := f.m.ExecuteAction(combat.Action{Actor: f.hero, Type: combat.ActionSkill, SkillID: "meteor", Target: f.goblin})
	r := res.(*combat.SkillResult)
	assert.True(t, r.Casting)
	assert.Equal(t, 2.0, r.CastTime)
	assert.Equal(t, 20, f.goblin.BRV(), "nothing lands while casting")
	require.Len(t, f.rec.OfType(event.TypeCastStarted), 1)

	f.m.Update(1)
	for _, c := range f.m.ActionOrder() {
		assert.NotEqual(t, f.hero.ID(), c.ID(), "casters do not act")
	}
	progress, casting := f.m.CastProgress(f.hero)
	assert.True(t, casting)
	assert.InDelta(t, 0.5, progress, 1e-9)

	done := f.m.Update(1)
	require.Len(t, done, 1)
	assert.True(t, done[0].Success)
	assert.Equal(t, 20, done[0].Skill.TotalBRVDamage())
	assert.Equal(t, 0, f.goblin.BRV())
	assert.True(t, f.m.IsBroken(f.goblin))
	assert.Len(t, f.rec.OfType(event.TypeCastCompleted), 1)
	_, casting = f.m.CastProgress(f.hero)
	assert.False(t, casting)
}

func TestCast_InterruptedByHPDamage(t *testing.T) {
	always := stubRoller{chance: func(float64) bool { return true }}
	f := newFixture(t, always)

	f.m.ExecuteAction(combat.Action{Actor: f.hero, Type: combat.ActionSkill, SkillID: "meteor", Target: f.goblin})
	f.act(combat.ActionHPAttack, f.goblin, f.hero)

	_, casting := f.m.CastProgress(f.hero)
	assert.False(t, casting)
	interrupted := f.rec.OfType(event.TypeCastInterrupted)
	require.Len(t, interrupted, 1)
	assert.Equal(t, "meteor", interrupted[0].(event.CastInterrupted).SkillID)
	assert.Empty(t, f.m.Update(5))
}

type recordingItems struct {
	calls []string
}

func (r *recordingItems) UseItem(user, target character.Combatant, itemID string) (bool, string) {
	r.calls = append(r.calls, user.ID()+">"+target.ID()+":"+itemID)
	if itemID == "empty" {
		return false, "none left"
	}
	target.Heal(20)
	return true, ""
}

func TestItem_DelegatesToHandler(t *testing.T) {
	f := newFixture(t, coinFlip)

	res := f.m.ExecuteAction(combat.Action{Actor: f.hero, Type: combat.ActionItem, ItemID: "potion"})
	assert.False(t, res.Summary().Success)
	assert.Equal(t, "items are unavailable", res.Summary().Reason)

	items := &recordingItems{}
	f.m.SetItemHandler(items)
	f.hero.SetHP(50)
	f.m.Update(1)
	res = f.m.ExecuteAction(combat.Action{Actor: f.hero, Type: combat.ActionItem, ItemID: "potion"})
	assert.True(t, res.Summary().Success)
	assert.Equal(t, 70, f.hero.HP())

	f.m.Update(1)
	res = f.m.ExecuteAction(combat.Action{Actor: f.hero, Type: combat.ActionItem, ItemID: "empty"})
	assert.Equal(t, "none left", res.Summary().Reason)
	assert.Equal(t, []string{"hero>hero:potion", "hero>hero:empty"}, items.calls)
}

func TestTargets(t *testing.T) {
	f := newFixture(t, coinFlip)
	assert.Equal(t, []character.Combatant{f.goblin}, f.m.ValidTargets(f.hero, combat.ActionBRVAttack))
	assert.Equal(t, []character.Combatant{f.hero}, f.m.ValidTargets(f.hero, combat.ActionItem))
	assert.Equal(t, []character.Combatant{f.goblin}, f.m.SkillTargets(f.hero, "slash"))
	assert.Nil(t, f.m.SkillTargets(f.hero, "nope"))
	assert.Nil(t, f.m.ValidTargets(hero("stranger"), combat.ActionBRVAttack))
}

func TestProperty_RejectedActionsNeverMutate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := combat.NewSession("p", testConfig(), coinFlip, []*skill.Skill{slash}, nil, nil)
		h, g := hero("h"), goblin("g")
		require.NoError(rt, s.Combat.Start([]character.Combatant{h}, []character.Combatant{g}))
		// Only a partial tick: nobody is ready yet.
		s.Combat.Update(rapid.Float64Range(0, 0.9).Draw(rt, "dt"))

		typ := combat.ActionType(rapid.IntRange(0, 8).Draw(rt, "type"))
		target := rapid.SampledFrom([]character.Combatant{nil, h, g}).Draw(rt, "target")
		res := s.Combat.ExecuteAction(combat.Action{Actor: h, Type: typ, Target: target, SkillID: "slash"})
		if _, ok := res.(*combat.RejectedResult); !ok {
			rt.Fatalf("expected rejection for unready actor, got %T", res)
		}
		if s.Combat.Turn() != 0 || h.BRV() != 50 || g.BRV() != 20 || h.MP() != 50 {
			rt.Fatalf("rejected action mutated state")
		}
	})
}
