package skill

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/event"
)

var (
	// ErrUnknownSkill is returned when a skill id is not registered.
	ErrUnknownSkill = errors.New("unknown skill")
	// ErrOnCooldown is returned when the caster's cooldown for a skill is active.
	ErrOnCooldown = errors.New("skill on cooldown")
)

// Manager is the skill registry plus per-caster cooldown table.
// It is not safe for concurrent use; a combat session serialises access.
//
// Invariant: no stored cooldown is <= 0.
type Manager struct {
	skills    map[string]*Skill
	cooldowns map[string]map[string]int
	pub       event.Publisher
	logger    *zap.Logger
}

// NewManager creates an empty Manager.
// A nil publisher discards events; a nil logger is replaced by a no-op logger.
func NewManager(pub event.Publisher, logger *zap.Logger) *Manager {
	if pub == nil {
		pub = event.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		skills:    make(map[string]*Skill),
		cooldowns: make(map[string]map[string]int),
		pub:       pub,
		logger:    logger,
	}
}

// Register inserts s. A later registration with the same id replaces the earlier one.
func (m *Manager) Register(s *Skill) {
	m.skills[s.ID] = s
	m.logger.Debug("skill registered", zap.String("skill", s.ID))
}

// Get returns the skill with id.
func (m *Manager) Get(id string) (*Skill, bool) {
	s, ok := m.skills[id]
	return s, ok
}

// Skills returns every registered skill sorted by id.
func (m *Manager) Skills() []*Skill {
	out := make([]*Skill, 0, len(m.skills))
	for _, s := range m.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Check reports whether user may start id now without running it.
//
// Postcondition: returns an error wrapping ErrUnknownSkill or ErrOnCooldown, or nil.
func (m *Manager) Check(id string, user character.Combatant) (*Skill, error) {
	s, ok := m.skills[id]
	if !ok {
		return nil, fmt.Errorf("skill %q: %w", id, ErrUnknownSkill)
	}
	if m.IsOnCooldown(user, id) {
		return s, fmt.Errorf("skill %q (%d turns): %w", id, m.Cooldown(user, id), ErrOnCooldown)
	}
	return s, nil
}

// Execute runs skill id for user against target. Unknown ids and active
// cooldowns are rejected with an error before any cost is checked. The
// cooldown is set only when the skill succeeds.
//
// Postcondition: on error no state is mutated.
func (m *Manager) Execute(id string, user, target character.Combatant, ctx *Context) (Result, error) {
	s, err := m.Check(id, user)
	if err != nil {
		m.logger.Debug("skill rejected", zap.String("skill", id), zap.String("user", user.ID()), zap.Error(err))
		m.pub.Publish(event.SkillExecuted{CasterID: user.ID(), SkillID: id, Reason: err.Error()})
		return Result{SkillID: id, Reason: err.Error()}, err
	}

	res := s.Execute(user, target, ctx)
	if res.Success && s.Cooldown > 0 {
		m.SetCooldown(user, id, s.Cooldown)
	}
	m.pub.Publish(event.SkillExecuted{CasterID: user.ID(), SkillID: id, Success: res.Success, Reason: res.Reason})
	return res, nil
}

// IsOnCooldown reports whether user must wait to use id.
func (m *Manager) IsOnCooldown(user character.Combatant, id string) bool {
	return m.Cooldown(user, id) > 0
}

// Cooldown returns the remaining turns for user's id, or 0.
func (m *Manager) Cooldown(user character.Combatant, id string) int {
	return m.cooldowns[user.ID()][id]
}

// Cooldowns returns a copy of user's active cooldowns.
func (m *Manager) Cooldowns(user character.Combatant) map[string]int {
	out := make(map[string]int, len(m.cooldowns[user.ID()]))
	for k, v := range m.cooldowns[user.ID()] {
		out[k] = v
	}
	return out
}

// SetCooldown stores turns for user's id. Non-positive turns remove the entry.
func (m *Manager) SetCooldown(user character.Combatant, id string, turns int) {
	if turns <= 0 {
		m.dropCooldown(user.ID(), id)
		return
	}
	table, ok := m.cooldowns[user.ID()]
	if !ok {
		table = make(map[string]int)
		m.cooldowns[user.ID()] = table
	}
	table[id] = turns
}

// ReduceCooldowns decrements every cooldown of user by amount, removing
// entries that reach zero or below.
func (m *Manager) ReduceCooldowns(user character.Combatant, amount int) {
	table, ok := m.cooldowns[user.ID()]
	if !ok {
		return
	}
	for id := range table {
		table[id] -= amount
		if table[id] <= 0 {
			delete(table, id)
		}
	}
	if len(table) == 0 {
		delete(m.cooldowns, user.ID())
	}
}

// ClearCooldowns drops every cooldown.
func (m *Manager) ClearCooldowns() {
	clear(m.cooldowns)
}

func (m *Manager) dropCooldown(userID, id string) {
	table, ok := m.cooldowns[userID]
	if !ok {
		return
	}
	delete(table, id)
	if len(table) == 0 {
		delete(m.cooldowns, userID)
	}
}
