// Package combat runs ATB combat encounters and the sessions that host them.
package combat

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/config"
	"github.com/cory-johannsen/brave/internal/game/atb"
	"github.com/cory-johannsen/brave/internal/game/brave"
	"github.com/cory-johannsen/brave/internal/game/buff"
	"github.com/cory-johannsen/brave/internal/game/casting"
	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/damage"
	"github.com/cory-johannsen/brave/internal/game/event"
	"github.com/cory-johannsen/brave/internal/game/skill"
)

var (
	// ErrAlreadyStarted is returned by Start on a combat that has left StateNotStarted.
	ErrAlreadyStarted = errors.New("combat already started")
	// ErrEmptyRoster is returned by Start when either side has no combatants.
	ErrEmptyRoster = errors.New("roster is empty")
)

// Config holds the action constants owned by the manager.
type Config struct {
	// FleeChance is the probability that ActionFlee succeeds.
	FleeChance     float64
	DefendBuff     string
	DefendValue    float64
	DefendDuration int
}

// DefaultConfig returns a 50% flee chance and a one-turn +50% defense buff for Defend.
func DefaultConfig() Config {
	return Config{FleeChance: 0.5, DefendBuff: buff.DefenseUp, DefendValue: 0.5, DefendDuration: 1}
}

// ConfigFrom converts the application combat section.
func ConfigFrom(c config.CombatConfig) Config {
	return Config{
		FleeChance:     c.FleeChance,
		DefendBuff:     c.Defend.Buff,
		DefendValue:    c.Defend.Value,
		DefendDuration: c.Defend.Duration,
	}
}

// Chancer decides probabilistic outcomes such as fleeing.
type Chancer interface {
	Chance(p float64) bool
}

// Deps are the subsystems a Manager orchestrates. Every field except Items
// is required; nil Publisher and Logger fall back to no-ops.
type Deps struct {
	Scheduler *atb.Scheduler
	Brave     *brave.Model
	Calc      *damage.Calculator
	Casting   *casting.System
	Skills    *skill.Manager
	Chance    Chancer
	Items     ItemHandler
	Publisher event.Publisher
	Logger    *zap.Logger
}

// Manager is the combat state machine for one encounter. It owns turn
// dispatch, battle-end evaluation, and lifecycle events.
// It is not safe for concurrent use.
type Manager struct {
	id      string
	cfg     Config
	state   State
	turn    int
	allies  []character.Combatant
	enemies []character.Combatant
	// ally maps every registered combatant ID to its side.
	ally map[string]bool
	// known restricts the skills of combatants granted an explicit list.
	known map[string]map[string]bool

	atb    *atb.Scheduler
	brave  *brave.Model
	calc   *damage.Calculator
	casts  *casting.System
	skills *skill.Manager
	chance Chancer
	items  ItemHandler
	pub    event.Publisher
	logger *zap.Logger
}

// NewManager creates a Manager in StateNotStarted.
//
// Precondition: d.Scheduler, d.Brave, d.Calc, d.Casting, d.Skills and d.Chance must be non-nil.
// Postcondition: State() == StateNotStarted.
func NewManager(id string, cfg Config, d Deps) *Manager {
	if d.Publisher == nil {
		d.Publisher = event.Nop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Manager{
		id:     id,
		cfg:    cfg,
		ally:   make(map[string]bool),
		known:  make(map[string]map[string]bool),
		atb:    d.Scheduler,
		brave:  d.Brave,
		calc:   d.Calc,
		casts:  d.Casting,
		skills: d.Skills,
		chance: d.Chance,
		items:  d.Items,
		pub:    d.Publisher,
		logger: d.Logger.With(zap.String("combat", id)),
	}
}

// SetItemHandler installs the collaborator used by ActionItem.
func (m *Manager) SetItemHandler(h ItemHandler) { m.items = h }

// GrantSkills limits the combatant with id to the listed skills. Combatants
// never granted a list may use every registered skill.
func (m *Manager) GrantSkills(id string, skillIDs ...string) {
	set, ok := m.known[id]
	if !ok {
		set = make(map[string]bool, len(skillIDs))
		m.known[id] = set
	}
	for _, s := range skillIDs {
		set[s] = true
	}
}

// Knows reports whether c may use skill id.
func (m *Manager) Knows(c character.Combatant, id string) bool {
	set, ok := m.known[c.ID()]
	return !ok || set[id]
}

// Start registers both rosters with the scheduler, initializes their Brave,
// and moves the combat to StateInProgress.
//
// Precondition: both rosters are non-empty and no combatant appears twice.
// Postcondition: on success State() is StateInProgress, or terminal when a
// side is already defeated; on error nothing is registered.
func (m *Manager) Start(allies, enemies []character.Combatant) error {
	if m.state != StateNotStarted {
		return fmt.Errorf("combat %s: %w", m.id, ErrAlreadyStarted)
	}
	if len(allies) == 0 || len(enemies) == 0 {
		return fmt.Errorf("combat %s: %w", m.id, ErrEmptyRoster)
	}
	for _, c := range append(append([]character.Combatant{}, allies...), enemies...) {
		if err := m.atb.Register(c); err != nil {
			m.atb.Clear()
			return fmt.Errorf("combat %s: %w", m.id, err)
		}
	}

	m.allies = append([]character.Combatant(nil), allies...)
	m.enemies = append([]character.Combatant(nil), enemies...)
	for _, c := range m.allies {
		m.ally[c.ID()] = true
		m.brave.InitializeBRV(c)
	}
	for _, c := range m.enemies {
		m.ally[c.ID()] = false
		m.brave.InitializeBRV(c)
	}
	m.state = StateInProgress

	m.logger.Info("combat started",
		zap.Int("allies", len(m.allies)),
		zap.Int("enemies", len(m.enemies)),
	)
	m.pub.Publish(event.CombatStarted{CombatID: m.id, Allies: ids(m.allies), Enemies: ids(m.enemies)})
	m.checkBattleEnd()
	return nil
}

// Update advances the ATB gauges and active casts by dt seconds, resolves any
// completed casts, and evaluates the end conditions. While State() is
// StatePlayerTurn time is frozen and nothing advances.
//
// Postcondition: returns the result of every cast resolved during this call.
func (m *Manager) Update(dt float64) []*SkillResult {
	if !m.state.Active() {
		return nil
	}
	frozen := m.state == StatePlayerTurn
	m.atb.Update(dt, frozen)
	if frozen {
		return nil
	}

	m.casts.Update(dt)
	var resolved []*SkillResult
	for _, info := range m.casts.CompletedCasts() {
		if !m.state.Active() {
			break
		}
		resolved = append(resolved, m.resolveCast(info))
		m.checkBattleEnd()
	}
	m.checkBattleEnd()
	return resolved
}

// BeginPlayerInput freezes time while a player chooses an action.
func (m *Manager) BeginPlayerInput() {
	if m.state.Active() {
		m.state = StatePlayerTurn
	}
}

// EndPlayerInput resumes time without dispatching an action.
func (m *Manager) EndPlayerInput() {
	if m.state == StatePlayerTurn {
		m.state = StateInProgress
	}
}

// ExecuteAction dispatches a for its ready actor. Every dispatched action,
// successful or not, consumes the actor's gauge and runs turn-end bookkeeping.
//
// Postcondition: a *RejectedResult is returned, with no state mutated, when
// the combat is not running, the actor cannot act, or the target is invalid.
func (m *Manager) ExecuteAction(a Action) Result {
	if rej := m.validate(a); rej != nil {
		m.logger.Debug("action rejected",
			zap.String("action", a.Type.String()),
			zap.String("actor", idOf(a.Actor)),
			zap.String("reason", rej.Reason),
		)
		return rej
	}

	actor := a.Actor
	if m.ally[actor.ID()] {
		m.state = StatePlayerTurn
	} else {
		m.state = StateEnemyTurn
	}
	expired := actor.Buffs().Tick()

	var (
		res  Result
		fled bool
	)
	switch a.Type {
	case ActionBRVAttack:
		res = m.brvAttack(actor, a.Target)
	case ActionHPAttack:
		res = m.hpAttack(actor, a.Target)
	case ActionBRVHPAttack:
		res = m.comboAttack(actor, a.Target)
	case ActionSkill:
		res = m.useSkill(actor, a.Target, a.SkillID)
	case ActionItem:
		res = m.useItem(actor, a.Target, a.ItemID)
	case ActionDefend:
		res = m.defend(actor)
	case ActionFlee:
		fr := m.flee(actor)
		fled = fr.Success
		res = fr
	}

	if err := m.atb.Consume(actor); err != nil {
		m.logger.Error("consuming gauge", zap.Error(err))
	}
	m.endTurn(actor, expired)
	m.publishResolved(res)

	if fled {
		m.end(StateFled)
		return res
	}
	m.checkBattleEnd()
	if m.state.Active() {
		m.state = StateInProgress
	}
	return res
}

func (m *Manager) validate(a Action) *RejectedResult {
	rej := &RejectedResult{Outcome{Action: a.Type, ActorID: idOf(a.Actor), TargetID: idOf(a.Target)}}
	switch {
	case m.state == StateNotStarted:
		rej.Reason = "combat has not started"
	case m.state.IsTerminal():
		rej.Reason = "combat is over"
	case a.Actor == nil || !m.inCombat(a.Actor):
		rej.Reason = "actor is not in this combat"
	case !a.Actor.IsAlive():
		rej.Reason = "actor is defeated"
	case m.casts.IsCasting(a.Actor):
		rej.Reason = "actor is casting"
	case !m.atb.Ready(a.Actor):
		rej.Reason = "actor is not ready"
	case a.Type <= ActionUnknown || a.Type > ActionFlee:
		rej.Reason = "unknown action"
	case a.Type.Hostile() && !m.isOpponent(a.Actor, a.Target):
		rej.Reason = "invalid target"
	case a.Target != nil && !m.inCombat(a.Target):
		rej.Reason = "invalid target"
	case a.Type == ActionSkill:
		rej.Reason = m.validateSkill(a)
	}
	if rej.Reason == "" {
		return nil
	}
	return rej
}

func (m *Manager) validateSkill(a Action) string {
	if !m.Knows(a.Actor, a.SkillID) {
		return fmt.Sprintf("skill %q is not known", a.SkillID)
	}
	s, err := m.skills.Check(a.SkillID, a.Actor)
	if err != nil {
		return err.Error()
	}
	if s.Target == skill.TargetSingle {
		if a.Target == nil {
			return "no target"
		}
		if !m.isOpponent(a.Actor, a.Target) {
			return "invalid target"
		}
	}
	return ""
}

func (m *Manager) brvAttack(attacker, defender character.Combatant) *BRVAttackResult {
	dmg := m.calc.BRVDamage(attacker, defender, 1.0)
	br := m.brave.BRVAttack(attacker, defender, dmg.FinalDamage)
	return &BRVAttackResult{
		Outcome:  Outcome{Action: ActionBRVAttack, ActorID: attacker.ID(), TargetID: defender.ID(), Success: true},
		Damage:   dmg.FinalDamage,
		Critical: dmg.IsCritical,
		Stolen:   br.Stolen,
		Gained:   br.ActualGain,
		Break:    br.IsBreak,
	}
}

func (m *Manager) hpAttack(attacker, defender character.Combatant) *HPAttackResult {
	out := &HPAttackResult{Outcome: Outcome{Action: ActionHPAttack, ActorID: attacker.ID(), TargetID: defender.ID()}}
	hp, err := m.brave.HPAttack(attacker, defender, 1.0)
	if err != nil {
		m.logger.Warn("hp attack failed",
			zap.String("attacker", attacker.ID()),
			zap.Error(err),
		)
		out.Reason = err.Error()
		return out
	}
	out.Success = true
	out.HPDamage = hp.HPDamage
	out.Dealt = hp.Dealt
	out.Wound = hp.Wound
	out.BRVConsumed = hp.BRVConsumed
	out.BreakBonus = hp.BreakBonus
	m.onHPDamage(defender, hp.Dealt)
	return out
}

func (m *Manager) comboAttack(attacker, defender character.Combatant) *ComboResult {
	brv := m.brvAttack(attacker, defender)
	out := &ComboResult{
		Outcome: Outcome{Action: ActionBRVHPAttack, ActorID: attacker.ID(), TargetID: defender.ID(), Success: true},
		BRV:     *brv,
	}
	if attacker.BRV() > 0 {
		out.HP = m.hpAttack(attacker, defender)
	}
	return out
}

func (m *Manager) useSkill(actor, target character.Combatant, id string) *SkillResult {
	s, _ := m.skills.Get(id)
	if s.CastTime > 0 {
		m.casts.StartCast(actor, s.ID, target, s.CastTime, s.Interruptible)
		m.pub.Publish(event.CastStarted{CombatID: m.id, CasterID: actor.ID(), SkillID: s.ID, CastTime: s.CastTime})
		return &SkillResult{
			Outcome:  Outcome{Action: ActionSkill, ActorID: actor.ID(), TargetID: idOf(target), Success: true},
			SkillID:  s.ID,
			Casting:  true,
			CastTime: s.CastTime,
		}
	}
	return m.runSkill(actor, target, s.ID)
}

func (m *Manager) runSkill(actor, target character.Combatant, id string) *SkillResult {
	ctx := &skill.Context{
		Party:      m.sideOf(actor),
		Enemies:    m.opponentsOf(actor),
		Calc:       m.calc,
		Brave:      m.brave,
		OnHPDamage: m.onHPDamage,
		Logger:     m.logger,
	}
	res, err := m.skills.Execute(id, actor, target, ctx)
	out := &SkillResult{
		Outcome: Outcome{Action: ActionSkill, ActorID: actor.ID(), TargetID: idOf(target), Success: res.Success, Reason: res.Reason},
		SkillID: id,
		Skill:   res,
	}
	if err != nil {
		out.Reason = err.Error()
	}
	return out
}

func (m *Manager) resolveCast(info casting.Info) *SkillResult {
	m.pub.Publish(event.CastCompleted{CombatID: m.id, CasterID: info.Caster.ID(), SkillID: info.SkillID})
	caster := info.Caster
	if !caster.IsAlive() {
		res := &SkillResult{
			Outcome: Outcome{Action: ActionSkill, ActorID: caster.ID(), TargetID: idOf(info.Target), Reason: "caster is defeated"},
			SkillID: info.SkillID,
		}
		m.publishResolved(res)
		return res
	}
	target := info.Target
	if s, ok := m.skills.Get(info.SkillID); ok && s.Target == skill.TargetSingle && target != nil && !target.IsAlive() && m.ally[target.ID()] != m.ally[caster.ID()] {
		// Opponent died during the cast: retarget the first living opponent.
		if alive := living(m.opponentsOf(caster)); len(alive) > 0 {
			target = alive[0]
		}
	}
	res := m.runSkill(caster, target, info.SkillID)
	m.publishResolved(res)
	return res
}

func (m *Manager) useItem(actor, target character.Combatant, itemID string) *ItemResult {
	out := &ItemResult{
		Outcome: Outcome{Action: ActionItem, ActorID: actor.ID(), TargetID: idOf(target)},
		ItemID:  itemID,
	}
	if m.items == nil {
		out.Reason = "items are unavailable"
		return out
	}
	if target == nil {
		target = actor
		out.TargetID = actor.ID()
	}
	out.Success, out.Reason = m.items.UseItem(actor, target, itemID)
	return out
}

func (m *Manager) defend(actor character.Combatant) *DefendResult {
	actor.Buffs().Apply(m.cfg.DefendBuff, m.cfg.DefendValue, m.cfg.DefendDuration)
	return &DefendResult{
		Outcome:  Outcome{Action: ActionDefend, ActorID: actor.ID(), TargetID: actor.ID(), Success: true},
		Buff:     m.cfg.DefendBuff,
		Value:    m.cfg.DefendValue,
		Duration: m.cfg.DefendDuration,
	}
}

func (m *Manager) flee(actor character.Combatant) *FleeResult {
	out := &FleeResult{Outcome{Action: ActionFlee, ActorID: actor.ID()}}
	if m.chance.Chance(m.cfg.FleeChance) {
		out.Success = true
		return out
	}
	out.Reason = "could not escape"
	return out
}

// onHPDamage rolls a cast interrupt when a casting combatant loses HP.
func (m *Manager) onHPDamage(target character.Combatant, dealt int) {
	info, ok := m.casts.CastInfo(target)
	if !ok || dealt <= 0 {
		return
	}
	if m.casts.InterruptOnDamage(target, dealt) {
		m.pub.Publish(event.CastInterrupted{CombatID: m.id, CasterID: target.ID(), SkillID: info.SkillID, Damage: dealt})
	}
}

func (m *Manager) endTurn(actor character.Combatant, expired []string) {
	recovered := m.brave.RecoverIntBRV(actor)
	m.skills.ReduceCooldowns(actor, 1)
	m.turn++
	m.pub.Publish(event.TurnEnded{
		CombatID:     m.id,
		Turn:         m.turn,
		ActorID:      actor.ID(),
		BRVRecovered: recovered,
		ExpiredBuffs: expired,
	})
}

func (m *Manager) publishResolved(r Result) {
	o := r.Summary()
	brv, hp, brk, crit := totals(r)
	m.pub.Publish(event.ActionResolved{
		CombatID:  m.id,
		Turn:      m.turn,
		ActorID:   o.ActorID,
		TargetID:  o.TargetID,
		Action:    o.Action.String(),
		Success:   o.Success,
		Reason:    o.Reason,
		BRVDamage: brv,
		HPDamage:  hp,
		Break:     brk,
		Critical:  crit,
	})
}

func (m *Manager) checkBattleEnd() {
	if !m.state.Active() {
		return
	}
	switch {
	case allDefeated(m.enemies):
		m.end(StateVictory)
	case allDefeated(m.allies):
		m.end(StateDefeat)
	}
}

// end moves to a terminal state and stops all scheduling.
func (m *Manager) end(s State) {
	m.state = s
	m.atb.Clear()
	m.casts.Clear()
	m.brave.Clear()
	m.skills.ClearCooldowns()
	m.logger.Info("combat ended", zap.String("state", s.String()), zap.Int("turns", m.turn))
	m.pub.Publish(event.CombatEnded{CombatID: m.id, State: s.String(), Turns: m.turn})
}

// ID returns the combat identifier.
func (m *Manager) ID() string { return m.id }

// State returns the current lifecycle state.
func (m *Manager) State() State { return m.state }

// Turn returns the number of turns completed.
func (m *Manager) Turn() int { return m.turn }

// Allies returns a copy of the ally roster.
func (m *Manager) Allies() []character.Combatant {
	return append([]character.Combatant(nil), m.allies...)
}

// Enemies returns a copy of the enemy roster.
func (m *Manager) Enemies() []character.Combatant {
	return append([]character.Combatant(nil), m.enemies...)
}

// Combatant looks up a participant by ID.
func (m *Manager) Combatant(id string) (character.Combatant, bool) {
	for _, c := range m.allies {
		if c.ID() == id {
			return c, true
		}
	}
	for _, c := range m.enemies {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// IsAlly reports whether c fights on the ally side.
func (m *Manager) IsAlly(c character.Combatant) bool { return c != nil && m.ally[c.ID()] }

// IsBroken reports whether c is broken.
func (m *Manager) IsBroken(c character.Combatant) bool { return m.brave.IsBroken(c) }

// ActionOrder returns the ready combatants, highest gauge first. Casting
// combatants are skipped until their cast resolves.
//
// Postcondition: returns nil unless the combat is running.
func (m *Manager) ActionOrder() []character.Combatant {
	if !m.state.Active() {
		return nil
	}
	var out []character.Combatant
	for _, c := range m.atb.ActionOrder() {
		if !m.casts.IsCasting(c) {
			out = append(out, c)
		}
	}
	return out
}

// Progress returns c's ATB gauge as a fraction of the threshold.
func (m *Manager) Progress(c character.Combatant) float64 { return m.atb.Progress(c) }

// CastProgress returns c's cast progress, or false when c is not casting.
func (m *Manager) CastProgress(c character.Combatant) (float64, bool) {
	info, ok := m.casts.CastInfo(c)
	if !ok {
		return 0, false
	}
	return info.Progress(), true
}

// ValidTargets lists the targets actor may pick for t. Attacks target living
// opponents; every other action targets the actor's own side.
func (m *Manager) ValidTargets(actor character.Combatant, t ActionType) []character.Combatant {
	if actor == nil || !m.inCombat(actor) {
		return nil
	}
	if t.Hostile() {
		return living(m.opponentsOf(actor))
	}
	return m.sideOf(actor)
}

// Cooldown returns the turns c must wait before using skill id again.
func (m *Manager) Cooldown(c character.Combatant, id string) int { return m.skills.Cooldown(c, id) }

// SkillTargets lists the targets actor may pick for skill id.
func (m *Manager) SkillTargets(actor character.Combatant, id string) []character.Combatant {
	s, ok := m.skills.Get(id)
	if !ok || actor == nil || !m.inCombat(actor) {
		return nil
	}
	switch s.Target {
	case skill.TargetSelf:
		return []character.Combatant{actor}
	case skill.TargetParty:
		return living(m.sideOf(actor))
	default:
		return living(m.opponentsOf(actor))
	}
}

func (m *Manager) inCombat(c character.Combatant) bool {
	_, ok := m.ally[c.ID()]
	return ok
}

func (m *Manager) isOpponent(actor, target character.Combatant) bool {
	return target != nil && m.inCombat(target) && target.IsAlive() && m.ally[target.ID()] != m.ally[actor.ID()]
}

func (m *Manager) sideOf(c character.Combatant) []character.Combatant {
	if m.ally[c.ID()] {
		return m.Allies()
	}
	return m.Enemies()
}

func (m *Manager) opponentsOf(c character.Combatant) []character.Combatant {
	if m.ally[c.ID()] {
		return m.Enemies()
	}
	return m.Allies()
}

func allDefeated(cs []character.Combatant) bool {
	for _, c := range cs {
		if c.IsAlive() {
			return false
		}
	}
	return true
}

func living(cs []character.Combatant) []character.Combatant {
	var out []character.Combatant
	for _, c := range cs {
		if c.IsAlive() {
			out = append(out, c)
		}
	}
	return out
}

func ids(cs []character.Combatant) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID()
	}
	return out
}

func idOf(c character.Combatant) string {
	if c == nil {
		return ""
	}
	return c.ID()
}
