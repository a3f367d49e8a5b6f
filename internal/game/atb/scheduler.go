// Package atb implements the speed-driven readiness gauge that decides who acts when.
package atb

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/character"
)

var (
	// ErrAlreadyRegistered is returned when a combatant is registered twice.
	ErrAlreadyRegistered = errors.New("combatant already registered")
	// ErrNotRegistered is returned for operations on an unknown combatant.
	ErrNotRegistered = errors.New("combatant not registered")
)

// Config holds the gauge constants.
type Config struct {
	// Threshold is the gauge value at which a combatant becomes ready.
	Threshold float64
	// Rate converts speed * seconds into gauge units.
	Rate float64
}

// DefaultConfig returns the stock gauge constants.
func DefaultConfig() Config { return Config{Threshold: 1000, Rate: 1.0} }

// Gauge is one combatant's readiness meter.
//
// Invariant: 0 <= Current <= Threshold + one tick's increment.
type Gauge struct {
	Owner     character.Combatant
	Current   float64
	Threshold float64
}

// Ready reports whether the gauge has reached its threshold.
func (g *Gauge) Ready() bool { return g.Current >= g.Threshold }

// Scheduler tracks the gauges of every registered combatant.
// It is not safe for concurrent use; a combat session serialises access.
type Scheduler struct {
	cfg    Config
	order  []*Gauge
	byID   map[string]*Gauge
	logger *zap.Logger
}

// NewScheduler creates an empty Scheduler.
func NewScheduler(cfg Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cfg: cfg, byID: make(map[string]*Gauge), logger: logger}
}

// Register creates a gauge at 0 for c.
//
// Precondition: c must be non-nil.
// Postcondition: returns an error wrapping ErrAlreadyRegistered if c's ID is known.
func (s *Scheduler) Register(c character.Combatant) error {
	if _, ok := s.byID[c.ID()]; ok {
		return fmt.Errorf("registering %q: %w", c.ID(), ErrAlreadyRegistered)
	}
	g := &Gauge{Owner: c, Threshold: s.cfg.Threshold}
	s.order = append(s.order, g)
	s.byID[c.ID()] = g
	return nil
}

// Update advances every living combatant's gauge by speed * dt * Rate unless frozen.
// A gauge never overshoots its threshold by more than the increment of this tick.
//
// Postcondition: when frozen is true or dt <= 0, no gauge changes.
func (s *Scheduler) Update(dt float64, frozen bool) {
	if frozen || dt <= 0 {
		return
	}
	for _, g := range s.order {
		if !g.Owner.IsAlive() {
			continue
		}
		inc := max(0, float64(g.Owner.SpeedStat())*dt*s.cfg.Rate)
		g.Current = min(g.Current+inc, g.Threshold+inc)
	}
}

// ActionOrder returns every living ready combatant, highest gauge first.
// Equal gauges keep registration order.
//
// Postcondition: repeated calls with unchanged gauges return identical slices.
func (s *Scheduler) ActionOrder() []character.Combatant {
	ready := make([]*Gauge, 0, len(s.order))
	for _, g := range s.order {
		if g.Ready() && g.Owner.IsAlive() {
			ready = append(ready, g)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool { return ready[i].Current > ready[j].Current })
	out := make([]character.Combatant, len(ready))
	for i, g := range ready {
		out[i] = g.Owner
	}
	return out
}

// Consume resets c's gauge to 0 after it acts.
//
// Postcondition: returns an error wrapping ErrNotRegistered for unknown combatants.
func (s *Scheduler) Consume(c character.Combatant) error {
	g, ok := s.byID[c.ID()]
	if !ok {
		return fmt.Errorf("consuming %q: %w", c.ID(), ErrNotRegistered)
	}
	g.Current = 0
	return nil
}

// Value returns the current gauge value for c.
func (s *Scheduler) Value(c character.Combatant) (float64, bool) {
	g, ok := s.byID[c.ID()]
	if !ok {
		return 0, false
	}
	return g.Current, true
}

// Progress returns c's gauge as a fraction of the threshold, capped at 1.
func (s *Scheduler) Progress(c character.Combatant) float64 {
	g, ok := s.byID[c.ID()]
	if !ok || g.Threshold <= 0 {
		return 0
	}
	return min(1, g.Current/g.Threshold)
}

// Ready reports whether c is registered, alive, and at or above threshold.
func (s *Scheduler) Ready(c character.Combatant) bool {
	g, ok := s.byID[c.ID()]
	return ok && g.Ready() && c.IsAlive()
}

// Snapshot returns a copy of every gauge in registration order.
func (s *Scheduler) Snapshot() []Gauge {
	out := make([]Gauge, len(s.order))
	for i, g := range s.order {
		out[i] = *g
	}
	return out
}

// Len returns the number of registered gauges.
func (s *Scheduler) Len() int { return len(s.order) }

// Clear drops every gauge.
//
// Postcondition: Len() == 0.
func (s *Scheduler) Clear() {
	s.order = nil
	clear(s.byID)
	s.logger.Debug("atb cleared")
}
