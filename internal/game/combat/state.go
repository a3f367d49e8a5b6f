package combat

// State is the combat lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	// StatePlayerTurn freezes the ATB while a player deliberates.
	StatePlayerTurn
	// StateEnemyTurn marks an enemy action in flight.
	StateEnemyTurn
	StateVictory
	StateDefeat
	StateFled
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StatePlayerTurn:
		return "player_turn"
	case StateEnemyTurn:
		return "enemy_turn"
	case StateVictory:
		return "victory"
	case StateDefeat:
		return "defeat"
	case StateFled:
		return "fled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further actions may be dispatched.
func (s State) IsTerminal() bool {
	return s == StateVictory || s == StateDefeat || s == StateFled
}

// Active reports whether the combat is running.
func (s State) Active() bool {
	return s == StateInProgress || s == StatePlayerTurn || s == StateEnemyTurn
}
