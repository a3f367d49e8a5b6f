// Package casting tracks timed casts between choosing a skill and resolving it.
package casting

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/character"
)

var (
	// ErrNotInterruptible is returned when a non-forced cancel targets a protected cast.
	ErrNotInterruptible = errors.New("cast is not interruptible")
	// ErrNotCasting is returned when the caster has no active cast.
	ErrNotCasting = errors.New("not casting")
)

const (
	// MaxInterruptChance caps the probability that damage breaks a cast.
	MaxInterruptChance = 0.9
	// interruptDivisor converts damage into interrupt probability.
	interruptDivisor = 100.0
)

// State is a caster's position in the cast lifecycle.
type State int

const (
	NotCasting State = iota
	Casting
	CastComplete
	Interrupted
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case NotCasting:
		return "not_casting"
	case Casting:
		return "casting"
	case CastComplete:
		return "cast_complete"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Chancer decides probabilistic interrupts.
type Chancer interface {
	Chance(p float64) bool
}

// Info is the record of one cast.
type Info struct {
	Caster        character.Combatant
	Target        character.Combatant
	SkillID       string
	CastTime      float64
	Elapsed       float64
	State         State
	Interruptible bool
}

// Progress returns Elapsed/CastTime capped at 1. Zero-length casts report 1.
func (i Info) Progress() float64 {
	if i.CastTime <= 0 {
		return 1
	}
	return min(1, i.Elapsed/i.CastTime)
}

// IsComplete reports whether the cast has run its full time.
func (i Info) IsComplete() bool { return i.Elapsed >= i.CastTime }

// System holds every active cast and the queue of completed ones.
// It is not safe for concurrent use.
//
// Invariant: at most one active cast per caster.
type System struct {
	active    []*Info
	completed []Info
	chance    Chancer
	logger    *zap.Logger
}

// NewSystem creates an empty System.
//
// Precondition: chance must be non-nil.
func NewSystem(chance Chancer, logger *zap.Logger) *System {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &System{chance: chance, logger: logger}
}

// StartCast begins a cast, silently replacing any cast caster already has.
//
// Postcondition: IsCasting(caster) is true and the returned Info is in state Casting.
func (s *System) StartCast(caster character.Combatant, skillID string, target character.Combatant, castTime float64, interruptible bool) Info {
	if i := s.indexOf(caster); i >= 0 {
		s.logger.Debug("cast replaced",
			zap.String("caster", caster.ID()),
			zap.String("skill", s.active[i].SkillID),
		)
		s.remove(i)
	}
	info := &Info{
		Caster:        caster,
		Target:        target,
		SkillID:       skillID,
		CastTime:      max(0, castTime),
		State:         Casting,
		Interruptible: interruptible,
	}
	s.active = append(s.active, info)
	s.logger.Debug("cast started",
		zap.String("caster", caster.ID()),
		zap.String("skill", skillID),
		zap.Float64("cast_time", info.CastTime),
	)
	return *info
}

// Update advances every active cast by dt and moves finished casts into the
// completion queue in start order.
//
// Postcondition: no active cast has Elapsed >= CastTime.
func (s *System) Update(dt float64) {
	if dt < 0 {
		dt = 0
	}
	kept := s.active[:0]
	for _, info := range s.active {
		info.Elapsed += dt
		if info.IsComplete() {
			info.State = CastComplete
			s.completed = append(s.completed, *info)
			s.logger.Debug("cast complete",
				zap.String("caster", info.Caster.ID()),
				zap.String("skill", info.SkillID),
			)
			continue
		}
		kept = append(kept, info)
	}
	clear(s.active[len(kept):])
	s.active = kept
}

// CompletedCasts drains and returns the completion queue.
//
// Postcondition: a second immediate call returns an empty slice.
func (s *System) CompletedCasts() []Info {
	out := s.completed
	s.completed = nil
	return out
}

// InterruptOnDamage rolls min(0.9, damage/100) to break caster's interruptible cast.
//
// Postcondition: returns true iff the cast was interrupted and removed.
func (s *System) InterruptOnDamage(caster character.Combatant, damage int) bool {
	i := s.indexOf(caster)
	if i < 0 || damage <= 0 || !s.active[i].Interruptible {
		return false
	}
	p := min(MaxInterruptChance, float64(damage)/interruptDivisor)
	if !s.chance.Chance(p) {
		return false
	}
	s.logger.Debug("cast interrupted",
		zap.String("caster", caster.ID()),
		zap.String("skill", s.active[i].SkillID),
		zap.Int("damage", damage),
		zap.Float64("chance", p),
	)
	s.remove(i)
	return true
}

// CancelCast removes caster's active cast. Non-interruptible casts are only
// removed when force is true.
//
// Postcondition: returns an error wrapping ErrNotInterruptible and leaves the
// cast running when it is protected and force is false.
func (s *System) CancelCast(caster character.Combatant, force bool) error {
	i := s.indexOf(caster)
	if i < 0 {
		return fmt.Errorf("cancelling cast for %q: %w", caster.ID(), ErrNotCasting)
	}
	if !s.active[i].Interruptible && !force {
		return fmt.Errorf("cancelling cast for %q: %w", caster.ID(), ErrNotInterruptible)
	}
	s.remove(i)
	return nil
}

// IsCasting reports whether caster has an active cast.
func (s *System) IsCasting(caster character.Combatant) bool { return s.indexOf(caster) >= 0 }

// CastInfo returns a copy of caster's active cast.
func (s *System) CastInfo(caster character.Combatant) (Info, bool) {
	i := s.indexOf(caster)
	if i < 0 {
		return Info{}, false
	}
	return *s.active[i], true
}

// Active returns copies of every active cast in start order.
func (s *System) Active() []Info {
	out := make([]Info, len(s.active))
	for i, info := range s.active {
		out[i] = *info
	}
	return out
}

// Clear drops every active and completed cast.
func (s *System) Clear() {
	s.active = nil
	s.completed = nil
}

func (s *System) indexOf(caster character.Combatant) int {
	for i, info := range s.active {
		if info.Caster.ID() == caster.ID() {
			return i
		}
	}
	return -1
}

func (s *System) remove(i int) {
	s.active[i].State = Interrupted
	s.active = append(s.active[:i], s.active[i+1:]...)
}
