// Package encounter assembles combats from ruleset content and drives them
// to an outcome.
package encounter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/combat"
	"github.com/cory-johannsen/brave/internal/game/ruleset"
	"github.com/cory-johannsen/brave/internal/scripting"
)

var (
	// ErrUnknownJob is returned when a party names a job the registry lacks.
	ErrUnknownJob = errors.New("unknown job")
	// ErrUnknownEnemy is returned when a party names an enemy the registry lacks.
	ErrUnknownEnemy = errors.New("unknown enemy")
)

// Party names the rosters of one encounter.
type Party struct {
	Jobs    []string
	Enemies []string
	// LevelModifier scales every spawned enemy; 0 means 1.
	LevelModifier float64
}

// Options tunes how encounters are driven.
type Options struct {
	// Tick is the simulated seconds advanced per step.
	Tick float64
	// Pace is the wall-clock delay between steps.
	Pace time.Duration
	// MaxSteps bounds one encounter. Zero means unbounded.
	MaxSteps int
	// ScriptsDir holds one directory per enemy script set.
	ScriptsDir string
	// InstructionLimit caps each Lua hook call.
	InstructionLimit int
}

// Outcome summarises a finished encounter.
type Outcome struct {
	CombatID  string
	State     combat.State
	Turns     int
	Survivors []string
	Elapsed   time.Duration
}

// Runner builds and runs encounters on an Engine.
type Runner struct {
	engine  *combat.Engine
	rules   *ruleset.Registry
	scripts *scripting.Manager
	opts    Options
	logger  *zap.Logger
}

// NewRunner creates a Runner.
//
// Precondition: engine and rules must be non-nil. A nil scripts manager
// leaves every enemy unscripted.
func NewRunner(engine *combat.Engine, rules *ruleset.Registry, scripts *scripting.Manager, opts Options, logger *zap.Logger) *Runner {
	if engine == nil {
		panic("encounter.NewRunner: precondition violated: engine must be non-nil")
	}
	if rules == nil {
		panic("encounter.NewRunner: precondition violated: rules must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{engine: engine, rules: rules, scripts: scripts, opts: opts, logger: logger}
}

// LoadScripts loads the script set of every registered enemy that names one,
// reading ScriptsDir/<set>. Each set is loaded once.
func (r *Runner) LoadScripts() error {
	if r.scripts == nil {
		return nil
	}
	loaded := make(map[string]bool)
	for _, e := range r.rules.Enemies() {
		if e.Script == "" || loaded[e.Script] {
			continue
		}
		dir := filepath.Join(r.opts.ScriptsDir, e.Script)
		if err := r.scripts.Load(e.Script, dir, r.opts.InstructionLimit); err != nil {
			return fmt.Errorf("loading script set %q for enemy %q: %w", e.Script, e.ID, err)
		}
		loaded[e.Script] = true
	}
	r.logger.Info("enemy scripts loaded", zap.Int("sets", len(loaded)))
	return nil
}

// roster is one side of an encounter before it starts. Every member knows
// exactly the skills its template lists, possibly none.
type roster struct {
	members []character.Combatant
	skills  map[string][]string
	scripts map[string]string
}

func newRoster() *roster {
	return &roster{skills: make(map[string][]string), scripts: make(map[string]string)}
}

func (ro *roster) add(c character.Combatant, skills []string, script string) {
	ro.members = append(ro.members, c)
	ro.skills[c.ID()] = skills
	if script != "" {
		ro.scripts[c.ID()] = script
	}
}

// build resolves a Party into rosters. Combatant ids are "<content id>-<n>"
// with n counting from 1 per side.
func (r *Runner) build(p Party) (allies, enemies *roster, err error) {
	mod := p.LevelModifier
	if mod == 0 {
		mod = 1
	}
	allies, enemies = newRoster(), newRoster()
	for i, id := range p.Jobs {
		job, ok := r.rules.Job(id)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownJob, id)
		}
		allies.add(job.NewCharacter(fmt.Sprintf("%s-%d", id, i+1)), job.Skills, "")
	}
	for i, id := range p.Enemies {
		e, ok := r.rules.Enemy(id)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownEnemy, id)
		}
		enemies.add(e.Spawn(fmt.Sprintf("%s-%d", id, i+1), mod), e.Skills, e.Script)
	}
	return allies, enemies, nil
}

// Run builds p, starts it on the engine and drives it to completion. Allies
// and unscripted enemies play their skills through a SkillChooser; scripted
// enemies fall back to it. The session is removed from the engine before Run
// returns.
//
// Postcondition: on success Outcome.State is terminal.
func (r *Runner) Run(ctx context.Context, p Party) (Outcome, error) {
	start := time.Now()
	allies, enemies, err := r.build(p)
	if err != nil {
		return Outcome{}, err
	}
	s, err := r.engine.StartCombat(allies.members, enemies.members)
	if err != nil {
		return Outcome{}, err
	}
	defer r.engine.EndCombat(s.ID)

	m := s.Combat
	for _, ro := range []*roster{allies, enemies} {
		for id, skills := range ro.skills {
			m.GrantSkills(id, skills...)
		}
	}

	play := combat.NewSkillChooser()
	d := &combat.Driver{
		Manager:  m,
		Allies:   play,
		Enemies:  r.choosers(enemies, play),
		Tick:     r.opts.Tick,
		Pace:     r.opts.Pace,
		MaxSteps: r.opts.MaxSteps,
		Logger:   r.logger,
	}
	state, err := d.Run(ctx)
	out := Outcome{
		CombatID:  s.ID,
		State:     state,
		Turns:     m.Turn(),
		Survivors: survivors(m),
		Elapsed:   time.Since(start),
	}
	if err != nil {
		return out, err
	}
	r.logger.Info("encounter finished",
		zap.String("combat", s.ID),
		zap.Stringer("outcome", state),
		zap.Int("turns", out.Turns),
		zap.Strings("survivors", out.Survivors),
		zap.Duration("elapsed", out.Elapsed),
	)
	return out, nil
}

// RunMany runs n encounters of p one after another, stopping at the first error.
func (r *Runner) RunMany(ctx context.Context, p Party, n int) ([]Outcome, error) {
	out := make([]Outcome, 0, n)
	for i := 0; i < n; i++ {
		o, err := r.Run(ctx, p)
		if err != nil {
			return out, fmt.Errorf("encounter %d: %w", i+1, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *Runner) choosers(enemies *roster, fallback combat.Chooser) combat.Chooser {
	set := bySet{scripted: make(map[string]combat.Chooser), fallback: fallback}
	if r.scripts != nil {
		for id, script := range enemies.scripts {
			set.scripted[id] = combat.NewScriptedChooser(r.scripts, script, fallback, r.logger)
		}
	}
	return set
}

// bySet dispatches to a per-combatant Chooser, defaulting to fallback.
type bySet struct {
	scripted map[string]combat.Chooser
	fallback combat.Chooser
}

func (b bySet) Choose(m *combat.Manager, actor character.Combatant) combat.Action {
	if c, ok := b.scripted[actor.ID()]; ok {
		return c.Choose(m, actor)
	}
	return b.fallback.Choose(m, actor)
}

func survivors(m *combat.Manager) []string {
	var out []string
	for _, side := range [][]character.Combatant{m.Allies(), m.Enemies()} {
		for _, c := range side {
			if c.IsAlive() {
				out = append(out, c.ID())
			}
		}
	}
	return out
}

// Tally counts outcomes by terminal state.
func Tally(outcomes []Outcome) map[combat.State]int {
	out := make(map[combat.State]int)
	for _, o := range outcomes {
		out[o.State]++
	}
	return out
}
