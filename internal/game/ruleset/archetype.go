package ruleset

import "fmt"

// Archetype is the broad combat role of a job. It decides how large a Brave
// pool the job carries and how much of it is its baseline.
type Archetype string

const (
	Tank       Archetype = "tank"
	Attacker   Archetype = "attacker"
	Mage       Archetype = "mage"
	Healer     Archetype = "healer"
	Specialist Archetype = "specialist"
	Balanced   Archetype = "balanced"
)

// BravePerLevel is the max Brave a balanced job gains per level.
const BravePerLevel = 40

type braveProfile struct {
	factor   float64
	fraction float64
}

var profiles = map[Archetype]braveProfile{
	Tank:       {factor: 0.8, fraction: 0.2},
	Attacker:   {factor: 1.3, fraction: 0.3},
	Mage:       {factor: 1.0, fraction: 0.15},
	Healer:     {factor: 0.7, fraction: 0.1},
	Specialist: {factor: 1.2, fraction: 0.25},
	Balanced:   {factor: 1.0, fraction: 0.2},
}

// ParseArchetype maps a content string onto an Archetype. The empty string is Balanced.
//
// Postcondition: Returns an error for any name outside the six archetypes.
func ParseArchetype(s string) (Archetype, error) {
	if s == "" {
		return Balanced, nil
	}
	a := Archetype(s)
	if _, ok := profiles[a]; !ok {
		return "", fmt.Errorf("archetype %q is not one of [tank, attacker, mage, healer, specialist, balanced]", s)
	}
	return a, nil
}

// MaxBRV returns floor(level * BravePerLevel * factor).
func (a Archetype) MaxBRV(level int) int {
	return int(float64(level*BravePerLevel) * a.profile().factor)
}

// InitBRV returns the baseline Brave for a pool of maxBRV.
func (a Archetype) InitBRV(maxBRV int) int {
	return int(float64(maxBRV) * a.profile().fraction)
}

func (a Archetype) profile() braveProfile {
	if p, ok := profiles[a]; ok {
		return p
	}
	return profiles[Balanced]
}
