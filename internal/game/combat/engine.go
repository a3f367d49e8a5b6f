package combat

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/character"
	"github.com/cory-johannsen/brave/internal/game/event"
	"github.com/cory-johannsen/brave/internal/game/skill"
)

// Engine manages all active combat sessions, keyed by session ID.
// All methods are safe for concurrent use. Each Session itself is not; a
// caller drives one session from one goroutine at a time.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg     SessionConfig
	roller  Roller
	catalog []*skill.Skill
	pub     event.Publisher
	logger  *zap.Logger
}

// NewEngine creates an empty Engine. Every session it starts shares roller,
// catalog and pub, so roller and pub must be safe for concurrent use when
// sessions run on different goroutines.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(cfg SessionConfig, roller Roller, catalog []*skill.Skill, pub event.Publisher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		roller:   roller,
		catalog:  catalog,
		pub:      pub,
		logger:   logger,
	}
}

// StartCombat creates a session with a fresh ID and starts it with the given rosters.
//
// Precondition: both rosters must be non-empty.
// Postcondition: Returns the running session, or an error if Start fails; failed sessions are not stored.
func (e *Engine) StartCombat(allies, enemies []character.Combatant) (*Session, error) {
	s := NewSession(uuid.NewString(), e.cfg, e.roller, e.catalog, e.pub, e.logger)
	if err := s.Combat.Start(allies, enemies); err != nil {
		return nil, fmt.Errorf("starting combat: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[s.ID] = s
	return s, nil
}

// GetCombat returns the session with id.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (e *Engine) GetCombat(id string) (*Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	return s, ok
}

// EndCombat removes the session record for id. Unknown ids are ignored.
func (e *Engine) EndCombat(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, id)
}

// Active returns the IDs of every stored session in sorted order.
func (e *Engine) Active() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
