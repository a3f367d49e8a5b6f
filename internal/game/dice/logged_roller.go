package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged random draws.
// Every draw is logged at debug level with its kind, bounds, and outcome.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each draw to logger.
//
// Precondition: src must be non-nil. A nil logger is replaced by a no-op logger.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Uniform returns a value drawn uniformly from [lo, hi).
//
// Precondition: lo <= hi.
// Postcondition: lo <= result <= hi.
func (r *Roller) Uniform(lo, hi float64) float64 {
	v := lo + r.src.Float64()*(hi-lo)
	r.logger.Debug("dice roll",
		zap.String("kind", "uniform"),
		zap.Float64("lo", lo),
		zap.Float64("hi", hi),
		zap.Float64("result", v),
	)
	return v
}

// Chance reports whether an event with probability p occurs.
//
// Postcondition: Returns false when p <= 0 and true when p >= 1.
func (r *Roller) Chance(p float64) bool {
	var hit bool
	switch {
	case p <= 0:
		hit = false
	case p >= 1:
		hit = true
	default:
		hit = r.src.Float64() < p
	}
	r.logger.Debug("dice roll",
		zap.String("kind", "chance"),
		zap.Float64("probability", p),
		zap.Bool("result", hit),
	)
	return hit
}

// Intn returns an int in [0, n), logged.
//
// Precondition: n > 0.
func (r *Roller) Intn(n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("dice roll",
		zap.String("kind", "intn"),
		zap.Int("n", n),
		zap.Int("result", v),
	)
	return v
}
