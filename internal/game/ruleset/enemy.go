package ruleset

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/brave/internal/game/character"
)

const (
	// EnemyBravePerLevel is the max Brave an enemy gains per level before its factor.
	EnemyBravePerLevel = 30
	// MinLevelModifier and MaxLevelModifier bound the scaling passed to Spawn.
	MinLevelModifier = 0.5
	MaxLevelModifier = 2.0
)

// EnemyBrave tunes an enemy's Brave pool.
type EnemyBrave struct {
	// Factor multiplies level * EnemyBravePerLevel; 0 means 1.
	Factor float64 `yaml:"factor"`
	// Init is the baseline as a fraction of max Brave; 0 means 0.2.
	Init float64 `yaml:"init"`
}

// Enemy defines an opponent template.
type Enemy struct {
	Template `yaml:",inline"`
	Brave    EnemyBrave `yaml:"brave"`
	// Script names the Lua script set that chooses this enemy's actions.
	// Empty uses the built-in heuristic.
	Script string `yaml:"script"`
	Boss   bool   `yaml:"boss"`
}

// Validate reports every problem with e and fills Brave defaults.
func (e *Enemy) Validate() error {
	errs := e.violations()
	if e.Brave.Factor < 0 {
		errs = append(errs, fmt.Errorf("brave.factor must be >= 0, got %v", e.Brave.Factor))
	}
	if e.Brave.Init < 0 || e.Brave.Init > 1 {
		errs = append(errs, fmt.Errorf("brave.init must be within [0, 1], got %v", e.Brave.Init))
	}
	if len(errs) > 0 {
		return fmt.Errorf("enemy %q: %w", e.ID, errors.Join(errs...))
	}
	if e.Brave.Factor == 0 {
		e.Brave.Factor = 1
	}
	if e.Brave.Init == 0 {
		e.Brave.Init = 0.2
	}
	return nil
}

// Spawn creates a combatant from e with level, HP, MP and stats scaled by
// levelModifier, clamped to [MinLevelModifier, MaxLevelModifier].
//
// Precondition: e has passed Validate.
// Postcondition: the combatant's level is at least 1.
func (e *Enemy) Spawn(id string, levelModifier float64) *character.Character {
	if id == "" {
		id = e.ID
	}
	mod := math.Max(MinLevelModifier, math.Min(MaxLevelModifier, levelModifier))
	scale := func(v int) int { return int(float64(v) * mod) }

	t := e.Template
	t.Level = max(1, scale(e.Level))
	t.MaxHP = max(1, scale(e.MaxHP))
	t.MaxMP = scale(e.MaxMP)
	t.Stats = character.Stats{
		Attack:  scale(e.Stats.Attack),
		Defense: scale(e.Stats.Defense),
		Magic:   scale(e.Stats.Magic),
		Spirit:  scale(e.Stats.Spirit),
		Speed:   e.Stats.Speed,
		Luck:    e.Stats.Luck,
	}
	maxBRV := int(float64(e.Level*EnemyBravePerLevel) * mod * e.Brave.Factor)
	initBRV := int(float64(maxBRV) * e.Brave.Init)
	return character.New(t.spec(id, maxBRV, initBRV))
}

type enemyFile struct {
	Enemies []*Enemy `yaml:"enemies"`
}

// LoadEnemies reads all .yaml files in dir. Each file holds an `enemies:` list.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed and validated enemies or a non-nil error.
func LoadEnemies(dir string) ([]*Enemy, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	var enemies []*Enemy
	for _, path := range files {
		var f enemyFile
		if err := decodeFile(path, &f); err != nil {
			return nil, err
		}
		for _, e := range f.Enemies {
			if err := e.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
		enemies = append(enemies, f.Enemies...)
	}
	return enemies, nil
}
