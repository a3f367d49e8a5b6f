package postgres

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/game/event"
)

// ReportStore persists finished battle reports.
type ReportStore interface {
	Create(ctx context.Context, rep BattleReport) (BattleReport, error)
}

// Recorder builds a BattleReport per combat from bus events and stores it
// when the combat ends. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	open    map[string]*BattleReport
	store   ReportStore
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewRecorder creates a Recorder writing to store with a per-write timeout.
//
// Precondition: store must be non-nil.
func NewRecorder(store ReportStore, timeout time.Duration, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		open:    make(map[string]*BattleReport),
		store:   store,
		timeout: timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Attach subscribes r to every event on bus.
func (r *Recorder) Attach(bus *event.Bus) {
	bus.SubscribeAll(r.Handle)
}

// Handle folds e into the report of its combat. Events for combats that
// were never seen starting are ignored.
func (r *Recorder) Handle(e event.Event) {
	switch ev := e.(type) {
	case event.CombatStarted:
		r.mu.Lock()
		r.open[ev.CombatID] = &BattleReport{
			CombatID:  ev.CombatID,
			Allies:    append([]string(nil), ev.Allies...),
			Enemies:   append([]string(nil), ev.Enemies...),
			StartedAt: r.now(),
		}
		r.mu.Unlock()
	case event.ActionResolved:
		r.mu.Lock()
		if rep, ok := r.open[ev.CombatID]; ok {
			rep.Actions++
			rep.BRVDamage += int64(ev.BRVDamage)
			rep.HPDamage += int64(ev.HPDamage)
			if ev.Break {
				rep.Breaks++
			}
			if ev.Critical {
				rep.Criticals++
			}
		}
		r.mu.Unlock()
	case event.CombatEnded:
		r.mu.Lock()
		rep, ok := r.open[ev.CombatID]
		delete(r.open, ev.CombatID)
		r.mu.Unlock()
		if !ok {
			return
		}
		rep.Outcome = ev.State
		rep.Turns = ev.Turns
		rep.EndedAt = r.now()
		r.save(*rep)
	}
}

func (r *Recorder) save(rep BattleReport) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	stored, err := r.store.Create(ctx, rep)
	if err != nil {
		r.logger.Error("storing battle report", zap.String("combat", rep.CombatID), zap.Error(err))
		return
	}
	r.logger.Info("battle report stored",
		zap.String("combat", rep.CombatID),
		zap.String("report", stored.ID.String()),
		zap.String("outcome", rep.Outcome),
		zap.Int("turns", rep.Turns),
	)
}

// Pending returns the number of combats started but not yet ended.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}
