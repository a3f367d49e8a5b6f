// Package event defines the typed notifications a combat session publishes
// and a synchronous in-process bus that delivers them.
package event

// Type names an event kind.
type Type string

const (
	TypeCombatStarted   Type = "combat_started"
	TypeCombatEnded     Type = "combat_ended"
	TypeActionResolved  Type = "action_resolved"
	TypeTurnEnded       Type = "turn_ended"
	TypeSkillExecuted   Type = "skill_executed"
	TypeCastStarted     Type = "cast_started"
	TypeCastCompleted   Type = "cast_completed"
	TypeCastInterrupted Type = "cast_interrupted"
)

// Event is implemented by every published notification.
type Event interface {
	EventType() Type
}

// CombatStarted is published once when a session leaves NotStarted.
type CombatStarted struct {
	CombatID string
	Allies   []string
	Enemies  []string
}

// CombatEnded is published once when a session reaches a terminal state.
type CombatEnded struct {
	CombatID string
	State    string
	Turns    int
}

// ActionResolved summarises one dispatched action.
type ActionResolved struct {
	CombatID  string
	Turn      int
	ActorID   string
	TargetID  string
	Action    string
	Success   bool
	Reason    string
	BRVDamage int
	HPDamage  int
	Break     bool
	Critical  bool
}

// TurnEnded is published after turn-end bookkeeping for an actor.
type TurnEnded struct {
	CombatID     string
	Turn         int
	ActorID      string
	BRVRecovered int
	ExpiredBuffs []string
}

// SkillExecuted is published by the skill manager for every execution attempt.
type SkillExecuted struct {
	CasterID string
	SkillID  string
	Success  bool
	Reason   string
}

// CastStarted is published when a timed skill begins casting.
type CastStarted struct {
	CombatID string
	CasterID string
	SkillID  string
	CastTime float64
}

// CastCompleted is published when a cast finishes and is about to resolve.
type CastCompleted struct {
	CombatID string
	CasterID string
	SkillID  string
}

// CastInterrupted is published when damage breaks a cast.
type CastInterrupted struct {
	CombatID string
	CasterID string
	SkillID  string
	Damage   int
}

func (CombatStarted) EventType() Type   { return TypeCombatStarted }
func (CombatEnded) EventType() Type     { return TypeCombatEnded }
func (ActionResolved) EventType() Type  { return TypeActionResolved }
func (TurnEnded) EventType() Type       { return TypeTurnEnded }
func (SkillExecuted) EventType() Type   { return TypeSkillExecuted }
func (CastStarted) EventType() Type     { return TypeCastStarted }
func (CastCompleted) EventType() Type   { return TypeCastCompleted }
func (CastInterrupted) EventType() Type { return TypeCastInterrupted }
