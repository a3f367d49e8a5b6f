package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/config"
	"github.com/cory-johannsen/brave/internal/game/atb"
	"github.com/cory-johannsen/brave/internal/game/brave"
	"github.com/cory-johannsen/brave/internal/game/casting"
	"github.com/cory-johannsen/brave/internal/game/damage"
	"github.com/cory-johannsen/brave/internal/game/event"
	"github.com/cory-johannsen/brave/internal/game/skill"
)

// Roller supplies every random draw a session makes.
type Roller interface {
	Uniform(lo, hi float64) float64
	Chance(p float64) bool
}

// SessionConfig gathers the per-subsystem constants of one session.
type SessionConfig struct {
	Combat Config
	Damage damage.Config
	ATB    atb.Config
	Brave  brave.Config
}

// DefaultSessionConfig returns every subsystem's defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Combat: DefaultConfig(),
		Damage: damage.DefaultConfig(),
		ATB:    atb.DefaultConfig(),
		Brave:  brave.DefaultConfig(),
	}
}

// SessionConfigFrom converts the application combat section.
func SessionConfigFrom(c config.CombatConfig) SessionConfig {
	return SessionConfig{
		Combat: ConfigFrom(c),
		Damage: damage.ConfigFrom(c.Damage),
		ATB:    atb.Config{Threshold: c.ATB.Threshold, Rate: c.ATB.Rate},
		Brave:  brave.Config{RecoveryRate: c.Brave.RecoveryRate},
	}
}

// Session owns exactly one instance of every combat subsystem for a single
// encounter. Sessions share nothing mutable with each other.
type Session struct {
	ID      string
	Calc    *damage.Calculator
	Brave   *brave.Model
	ATB     *atb.Scheduler
	Casting *casting.System
	Skills  *skill.Manager
	Combat  *Manager
}

// NewSession wires a session and registers catalog with its skill manager.
//
// Precondition: roller must be non-nil. A nil pub discards events; a nil logger is replaced by a no-op logger.
// Postcondition: Combat.State() == StateNotStarted.
func NewSession(id string, cfg SessionConfig, roller Roller, catalog []*skill.Skill, pub event.Publisher, logger *zap.Logger) *Session {
	if pub == nil {
		pub = event.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	calc := damage.NewCalculator(cfg.Damage, roller, logger)
	bm := brave.NewModel(calc, cfg.Brave, logger)
	sched := atb.NewScheduler(cfg.ATB, logger)
	casts := casting.NewSystem(roller, logger)
	skills := skill.NewManager(pub, logger)
	skill.RegisterAll(skills, catalog)

	return &Session{
		ID:      id,
		Calc:    calc,
		Brave:   bm,
		ATB:     sched,
		Casting: casts,
		Skills:  skills,
		Combat: NewManager(id, cfg.Combat, Deps{
			Scheduler: sched,
			Brave:     bm,
			Calc:      calc,
			Casting:   casts,
			Skills:    skills,
			Chance:    roller,
			Publisher: pub,
			Logger:    logger,
		}),
	}
}
