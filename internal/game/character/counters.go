package character

import "sort"

// Counters is a generic table of named, non-negative job resources
// ("gimmick" stacks, charges, stances) with optional declared maxima.
//
// Invariant: every stored value is >= 0 and <= its declared maximum when one exists.
type Counters struct {
	values map[string]int
	maxima map[string]int
}

// NewCounters returns an empty table.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]int), maxima: make(map[string]int)}
}

// Declare registers name with a maximum. A max <= 0 leaves the counter unbounded.
func (c *Counters) Declare(name string, max int) {
	if max > 0 {
		c.maxima[name] = max
	} else {
		delete(c.maxima, name)
	}
	if _, ok := c.values[name]; !ok {
		c.values[name] = 0
	}
	c.values[name] = c.bound(name, c.values[name], 0)
}

// Get returns the current value of name, or 0 if undeclared.
func (c *Counters) Get(name string) int { return c.values[name] }

// Max returns the declared maximum for name.
func (c *Counters) Max(name string) (int, bool) {
	m, ok := c.maxima[name]
	return m, ok
}

// Add increases name by n, clamped to limit when limit > 0, otherwise to the
// declared maximum, and never below 0.
//
// Postcondition: returns the new value.
func (c *Counters) Add(name string, n, limit int) int {
	c.values[name] = c.bound(name, c.values[name]+n, limit)
	return c.values[name]
}

// Consume removes up to n from name.
//
// Postcondition: Get(name) >= 0; returns the amount actually removed.
func (c *Counters) Consume(name string, n int) int {
	if n <= 0 {
		return 0
	}
	cur := c.values[name]
	taken := min(cur, n)
	c.values[name] = cur - taken
	return taken
}

// Set assigns v to name, clamped to [0, declared maximum].
func (c *Counters) Set(name string, v int) {
	c.values[name] = c.bound(name, v, 0)
}

// Names returns every known counter name, sorted.
func (c *Counters) Names() []string {
	out := make([]string, 0, len(c.values))
	for k := range c.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a copy of every counter value.
func (c *Counters) Snapshot() map[string]int {
	out := make(map[string]int, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

func (c *Counters) bound(name string, v, limit int) int {
	if v < 0 {
		v = 0
	}
	if limit <= 0 {
		limit = c.maxima[name]
	}
	if limit > 0 && v > limit {
		v = limit
	}
	return v
}
