package combat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/character"
)

// ErrStalled is returned by Driver.Run when MaxSteps elapse without an outcome.
var ErrStalled = errors.New("combat stalled")

// Driver runs a started Manager to completion, asking a Chooser for every
// ready combatant's action.
type Driver struct {
	Manager *Manager
	// Allies and Enemies choose for their side. A nil Chooser uses HeuristicChooser.
	Allies  Chooser
	Enemies Chooser
	// Tick is the simulated time in seconds advanced per step.
	Tick float64
	// Pace is the wall-clock delay between steps. Zero runs without waiting.
	Pace time.Duration
	// MaxSteps bounds the run. Zero means unbounded.
	MaxSteps int
	Logger   *zap.Logger
}

// Run steps the combat until it reaches a terminal state.
//
// Precondition: Manager must be non-nil and started; Tick > 0.
// Postcondition: returns the terminal state, or the current state together
// with ctx.Err() or ErrStalled.
func (d *Driver) Run(ctx context.Context) (State, error) {
	m := d.Manager
	if d.Tick <= 0 {
		return m.State(), fmt.Errorf("driver tick must be positive, got %v", d.Tick)
	}
	var pace <-chan time.Time
	if d.Pace > 0 {
		ticker := time.NewTicker(d.Pace)
		defer ticker.Stop()
		pace = ticker.C
	}

	for step := 0; ; step++ {
		if m.State().IsTerminal() {
			return m.State(), nil
		}
		if d.MaxSteps > 0 && step >= d.MaxSteps {
			return m.State(), fmt.Errorf("combat %s after %d steps: %w", m.ID(), step, ErrStalled)
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return m.State(), ctx.Err()
			case <-pace:
			}
		} else if err := ctx.Err(); err != nil {
			return m.State(), err
		}
		d.Step()
	}
}

// Step advances time by one tick and lets every ready combatant act once.
func (d *Driver) Step() {
	m := d.Manager
	m.Update(d.Tick)
	for _, c := range m.ActionOrder() {
		if !m.State().Active() {
			return
		}
		if !c.IsAlive() {
			continue
		}
		d.act(c)
	}
}

func (d *Driver) act(c character.Combatant) {
	m := d.Manager
	chooser := d.Enemies
	if m.IsAlly(c) {
		chooser = d.Allies
		m.BeginPlayerInput()
		defer m.EndPlayerInput()
	}
	if chooser == nil {
		chooser = HeuristicChooser{}
	}
	res := m.ExecuteAction(chooser.Choose(m, c))
	if rej, ok := res.(*RejectedResult); ok {
		d.logger().Debug("choice rejected, defending",
			zap.String("actor", c.ID()),
			zap.String("reason", rej.Reason),
		)
		m.ExecuteAction(Action{Actor: c, Type: ActionDefend})
	}
}

func (d *Driver) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
