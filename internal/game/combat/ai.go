package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/skill"
	"github.com/cory-johannsen/brave/internal/scripting"
)

// Chooser picks an action for a ready combatant.
type Chooser interface {
	Choose(m *Manager, actor character.Combatant) Action
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(m *Manager, actor character.Combatant) Action

// Choose calls f.
func (f ChooserFunc) Choose(m *Manager, actor character.Combatant) Action { return f(m, actor) }

// HeuristicChooser releases Brave with an HP attack when the actor holds at
// least twice its baseline or the target is broken, and otherwise builds
// Brave with a BRV attack. It always targets the living opponent with the
// lowest HP, first in roster order on ties.
type HeuristicChooser struct{}

// Choose implements Chooser.
//
// Postcondition: returns ActionDefend when no opponent is alive.
func (HeuristicChooser) Choose(m *Manager, actor character.Combatant) Action {
	target := weakest(m.ValidTargets(actor, ActionBRVAttack))
	if target == nil {
		return Action{Actor: actor, Type: ActionDefend}
	}
	if actor.BRV() > 0 && (actor.BRV() >= 2*actor.InitBRV() || m.IsBroken(target)) {
		return Action{Actor: actor, Type: ActionHPAttack, Target: target}
	}
	return Action{Actor: actor, Type: ActionBRVAttack, Target: target}
}

// SkillChooser plays the actor's skills, preferring the one it has used
// least, and otherwise acts as HeuristicChooser. A skill is playable when the
// actor knows it, it is off cooldown and its costs are affordable. While the
// heuristic would build Brave, skills that open with an HP strike are held
// back; once it would release, only skills that deal HP damage are played.
// Restorative skills wait for a wounded ally or a drained caster.
type SkillChooser struct {
	uses map[string]map[string]int
}

// NewSkillChooser creates a SkillChooser with no usage history.
func NewSkillChooser() *SkillChooser {
	return &SkillChooser{uses: make(map[string]map[string]int)}
}

// Choose implements Chooser.
//
// Postcondition: a returned ActionSkill passes validation for actor.
func (c *SkillChooser) Choose(m *Manager, actor character.Combatant) Action {
	base := HeuristicChooser{}.Choose(m, actor)
	if base.Type == ActionDefend {
		return base
	}
	release := base.Type == ActionHPAttack

	var (
		best   *skill.Skill
		target character.Combatant
	)
	for _, s := range m.skills.Skills() {
		if !c.playable(m, actor, s, release) {
			continue
		}
		if best == nil || c.uses[actor.ID()][s.ID] < c.uses[actor.ID()][best.ID] {
			best = s
		}
	}
	if best == nil {
		return base
	}
	switch best.Target {
	case skill.TargetSingle:
		target = base.Target
	case skill.TargetSelf:
		target = actor
	}
	if c.uses[actor.ID()] == nil {
		c.uses[actor.ID()] = make(map[string]int)
	}
	c.uses[actor.ID()][best.ID]++
	return Action{Actor: actor, Type: ActionSkill, SkillID: best.ID, Target: target}
}

func (c *SkillChooser) playable(m *Manager, actor character.Combatant, s *skill.Skill, release bool) bool {
	if !m.Knows(actor, s.ID) || m.skills.IsOnCooldown(actor, s.ID) {
		return false
	}
	if ok, _ := s.Affordable(actor); !ok {
		return false
	}
	if (release && !dealsHP(s)) || (!release && opensWithHP(s)) {
		return false
	}
	for _, e := range s.Effects {
		h, ok := e.(skill.Heal)
		if !ok || hasDamage(s) {
			continue
		}
		if h.Resource == skill.ResourceMP {
			return actor.MP()*2 < actor.MaxMP()
		}
		return anyWounded(restoreScope(m, actor, s, h))
	}
	return true
}

// opensWithHP reports whether the first damage effect of s is a pure HP strike.
func opensWithHP(s *skill.Skill) bool {
	for _, e := range s.Effects {
		if d, ok := e.(skill.Damage); ok {
			return d.Type == skill.DamageHP
		}
	}
	return false
}

func dealsHP(s *skill.Skill) bool {
	for _, e := range s.Effects {
		if d, ok := e.(skill.Damage); ok && d.Type != skill.DamageBRV {
			return true
		}
	}
	return false
}

func hasDamage(s *skill.Skill) bool {
	for _, e := range s.Effects {
		if _, ok := e.(skill.Damage); ok {
			return true
		}
	}
	return false
}

func restoreScope(m *Manager, actor character.Combatant, s *skill.Skill, h skill.Heal) []character.Combatant {
	if h.Self || s.Target == skill.TargetSelf {
		return []character.Combatant{actor}
	}
	return living(m.sideOf(actor))
}

// anyWounded reports whether some combatant is below 60% HP.
func anyWounded(cs []character.Combatant) bool {
	for _, c := range cs {
		if c.IsAlive() && c.HP()*10 < c.MaxHP()*6 {
			return true
		}
	}
	return false
}

func weakest(cs []character.Combatant) character.Combatant {
	var best character.Combatant
	for _, c := range cs {
		if best == nil || c.HP() < best.HP() {
			best = c
		}
	}
	return best
}

// ChooseActionHook is the Lua global consulted by ScriptedChooser.
const ChooseActionHook = "choose_action"

// ScriptedChooser asks a Lua script for each decision. The hook receives a
// state table and returns a table such as
// {action = "hp_attack", target = "<id>"} or {action = "skill", skill = "<id>", target = "<id>"}.
// A missing hook, an invalid reply or a rejected choice falls back to Fallback.
type ScriptedChooser struct {
	scripts  *scripting.Manager
	set      string
	fallback Chooser
	logger   *zap.Logger
}

// NewScriptedChooser creates a ScriptedChooser reading hooks from script set.
//
// Precondition: scripts must be non-nil. A nil fallback uses HeuristicChooser.
func NewScriptedChooser(scripts *scripting.Manager, set string, fallback Chooser, logger *zap.Logger) *ScriptedChooser {
	if fallback == nil {
		fallback = HeuristicChooser{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptedChooser{scripts: scripts, set: set, fallback: fallback, logger: logger}
}

// Choose implements Chooser.
func (s *ScriptedChooser) Choose(m *Manager, actor character.Combatant) Action {
	ret, err := s.scripts.Call(s.set, ChooseActionHook, Snapshot(m, actor))
	if err != nil || ret == nil {
		return s.fallback.Choose(m, actor)
	}
	reply, ok := ret.(map[string]any)
	if !ok {
		s.logger.Warn("choose_action returned a non-table", zap.String("actor", actor.ID()))
		return s.fallback.Choose(m, actor)
	}
	a, ok := s.parse(m, actor, reply)
	if !ok {
		return s.fallback.Choose(m, actor)
	}
	return a
}

func (s *ScriptedChooser) parse(m *Manager, actor character.Combatant, reply map[string]any) (Action, bool) {
	name, _ := reply["action"].(string)
	t, err := ParseActionType(name)
	if err != nil {
		s.logger.Warn("choose_action returned an unknown action",
			zap.String("actor", actor.ID()),
			zap.String("action", name),
		)
		return Action{}, false
	}
	a := Action{Actor: actor, Type: t}
	a.SkillID, _ = reply["skill"].(string)
	a.ItemID, _ = reply["item"].(string)
	if id, _ := reply["target"].(string); id != "" {
		target, found := m.Combatant(id)
		if !found {
			s.logger.Warn("choose_action returned an unknown target",
				zap.String("actor", actor.ID()),
				zap.String("target", id),
			)
			return Action{}, false
		}
		a.Target = target
	}
	if t.Hostile() && a.Target == nil {
		return Action{}, false
	}
	return a, true
}

// Snapshot renders the combat as seen by actor into plain values for scripts:
// {actor = {...}, allies = {...}, opponents = {...}, turn = n}. Each
// combatant entry carries id, name, hp, max_hp, mp, max_mp, brv, max_brv,
// init_brv, alive, broken, casting and counters.
func Snapshot(m *Manager, actor character.Combatant) map[string]any {
	var allies, opponents []any
	for _, c := range m.Allies() {
		if m.IsAlly(actor) {
			allies = append(allies, describe(m, c))
		} else {
			opponents = append(opponents, describe(m, c))
		}
	}
	for _, c := range m.Enemies() {
		if m.IsAlly(actor) {
			opponents = append(opponents, describe(m, c))
		} else {
			allies = append(allies, describe(m, c))
		}
	}
	var skills []any
	for _, sk := range m.skills.Skills() {
		if m.Knows(actor, sk.ID) && !m.skills.IsOnCooldown(actor, sk.ID) {
			skills = append(skills, sk.ID)
		}
	}
	return map[string]any{
		"actor":     describe(m, actor),
		"allies":    allies,
		"opponents": opponents,
		"skills":    skills,
		"turn":      m.Turn(),
	}
}

func describe(m *Manager, c character.Combatant) map[string]any {
	_, casting := m.CastProgress(c)
	return map[string]any{
		"id":       c.ID(),
		"name":     c.Name(),
		"hp":       c.HP(),
		"max_hp":   c.MaxHP(),
		"mp":       c.MP(),
		"max_mp":   c.MaxMP(),
		"brv":      c.BRV(),
		"max_brv":  c.MaxBRV(),
		"init_brv": c.InitBRV(),
		"alive":    c.IsAlive(),
		"broken":   m.IsBroken(c),
		"casting":  casting,
		"counters": c.Counters().Snapshot(),
	}
}
