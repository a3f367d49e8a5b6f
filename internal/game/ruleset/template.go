package ruleset

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/brave/internal/game/character"
)

// Template is the part of a job or enemy definition that becomes a combatant.
type Template struct {
	ID          string                  `yaml:"id"`
	Name        string                  `yaml:"name"`
	Description string                  `yaml:"description"`
	Level       int                     `yaml:"level"`
	Stats       character.Stats         `yaml:"stats"`
	MaxHP       int                     `yaml:"max_hp"`
	MaxMP       int                     `yaml:"max_mp"`
	Resistances map[string]float64      `yaml:"resistances"`
	Counters    []character.CounterSpec `yaml:"counters"`
	// Skills lists the skill ids the combatant may use.
	Skills []string `yaml:"skills"`
}

func (t Template) violations() []error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if t.Level < 1 {
		errs = append(errs, fmt.Errorf("level must be >= 1, got %d", t.Level))
	}
	if t.MaxHP < 1 {
		errs = append(errs, fmt.Errorf("max_hp must be >= 1, got %d", t.MaxHP))
	}
	if t.MaxMP < 0 {
		errs = append(errs, fmt.Errorf("max_mp must be >= 0, got %d", t.MaxMP))
	}
	for element, r := range t.Resistances {
		if r <= 0 {
			errs = append(errs, fmt.Errorf("resistance %q must be > 0, got %v", element, r))
		}
	}
	seen := make(map[string]bool, len(t.Counters))
	for _, c := range t.Counters {
		switch {
		case c.Name == "":
			errs = append(errs, errors.New("counter name must not be empty"))
		case seen[c.Name]:
			errs = append(errs, fmt.Errorf("counter %q declared twice", c.Name))
		case c.Max < 0 || c.Initial < 0 || c.Initial > c.Max:
			errs = append(errs, fmt.Errorf("counter %q needs 0 <= initial <= max", c.Name))
		}
		seen[c.Name] = true
	}
	return errs
}

// spec builds the character spec for a combatant with the given id and Brave pool.
func (t Template) spec(id string, maxBRV, initBRV int) character.Spec {
	name := t.Name
	if name == "" {
		name = t.ID
	}
	return character.Spec{
		ID:          id,
		Name:        name,
		Level:       t.Level,
		Stats:       t.Stats,
		MaxHP:       t.MaxHP,
		MaxMP:       t.MaxMP,
		MaxBRV:      maxBRV,
		InitBRV:     initBRV,
		Resistances: t.Resistances,
		Counters:    t.Counters,
	}
}
