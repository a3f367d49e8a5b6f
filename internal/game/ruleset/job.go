package ruleset

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/brave/internal/game/character"
)

// Job defines a playable job. Its archetype sizes the Brave pool; its
// counters carry the job's gimmick resource.
//
// Precondition: ID, Level and MaxHP must be set after loading.
type Job struct {
	Template  `yaml:",inline"`
	Archetype Archetype `yaml:"archetype"`
}

// Validate reports every problem with j.
func (j *Job) Validate() error {
	errs := j.violations()
	a, err := ParseArchetype(string(j.Archetype))
	if err != nil {
		errs = append(errs, err)
	} else {
		j.Archetype = a
	}
	if len(errs) > 0 {
		return fmt.Errorf("job %q: %w", j.ID, errors.Join(errs...))
	}
	return nil
}

// MaxBRV returns the job's Brave ceiling at its level.
func (j *Job) MaxBRV() int { return j.Archetype.MaxBRV(j.Level) }

// InitBRV returns the job's baseline Brave at its level.
func (j *Job) InitBRV() int { return j.Archetype.InitBRV(j.MaxBRV()) }

// NewCharacter creates a fresh combatant from j. An empty id uses the job id.
//
// Postcondition: the character is at full HP and MP with its baseline Brave
// and every declared counter at its initial value.
func (j *Job) NewCharacter(id string) *character.Character {
	if id == "" {
		id = j.ID
	}
	return character.New(j.spec(id, j.MaxBRV(), j.InitBRV()))
}

type jobFile struct {
	Jobs []*Job `yaml:"jobs"`
}

// LoadJobs reads all .yaml files in dir. Each file holds a `jobs:` list.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed and validated jobs (may be empty slice) or a non-nil error.
func LoadJobs(dir string) ([]*Job, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	var jobs []*Job
	for _, path := range files {
		var f jobFile
		if err := decodeFile(path, &f); err != nil {
			return nil, err
		}
		for _, j := range f.Jobs {
			if err := j.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
		jobs = append(jobs, f.Jobs...)
	}
	return jobs, nil
}
