// Package buff tracks named, timed stat modifiers on a combatant.
package buff

import "sort"

// Well-known buff identifiers read by the stat accessors.
const (
	AttackUp   = "attack_up"
	DefenseUp  = "defense_up"
	MagicUp    = "magic_up"
	SpiritUp   = "spirit_up"
	SpeedUp    = "speed_up"
	CriticalUp = "critical_up"
)

// Active is one applied modifier.
type Active struct {
	ID string
	// Value is the modifier magnitude, e.g. 0.3 for +30%.
	Value float64
	// Remaining is the number of owner turns left; it is always >= 1 while stored.
	Remaining int
}

// ActiveSet tracks all buffs currently applied to one combatant.
// It is not safe for concurrent use; the caller must serialise access.
type ActiveSet struct {
	buffs map[string]*Active
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{buffs: make(map[string]*Active)}
}

// Apply sets the buff id to value for duration owner turns, replacing any
// existing entry with the same id.
//
// Postcondition: Has(id) is true iff duration >= 1.
func (s *ActiveSet) Apply(id string, value float64, duration int) {
	if duration < 1 {
		delete(s.buffs, id)
		return
	}
	s.buffs[id] = &Active{ID: id, Value: value, Remaining: duration}
}

// Remove deletes the buff with the given id. Missing ids are a no-op.
//
// Postcondition: Has(id) is false.
func (s *ActiveSet) Remove(id string) {
	delete(s.buffs, id)
}

// Tick decrements every buff by one turn and removes those that reach zero.
//
// Postcondition: For every id in the returned slice, Has(id) is false.
// The returned ids are sorted.
func (s *ActiveSet) Tick() []string {
	var expired []string
	for id, b := range s.buffs {
		b.Remaining--
		if b.Remaining <= 0 {
			expired = append(expired, id)
			delete(s.buffs, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// Has reports whether the buff id is active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.buffs[id]
	return ok
}

// Value returns the magnitude of buff id, or 0 if absent.
func (s *ActiveSet) Value(id string) float64 {
	if b, ok := s.buffs[id]; ok {
		return b.Value
	}
	return 0
}

// Len returns the number of active buffs.
func (s *ActiveSet) Len() int { return len(s.buffs) }

// All returns copies of the active buffs sorted by id.
func (s *ActiveSet) All() []Active {
	out := make([]Active, 0, len(s.buffs))
	for _, b := range s.buffs {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
