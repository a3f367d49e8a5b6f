// Package ruleset loads job and enemy templates from YAML and turns them into
// combatants.
package ruleset

import (
	"errors"
	"fmt"
	"sort"
)

// Registry provides lookup of job and enemy templates by ID.
type Registry struct {
	jobs    map[string]*Job
	enemies map[string]*Enemy
}

// NewRegistry returns an empty Registry.
//
// Postcondition: Returns a non-nil *Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job), enemies: make(map[string]*Enemy)}
}

// LoadRegistry loads every job from jobsDir and every enemy from enemiesDir.
//
// Postcondition: Returns an error if loading fails or an id is defined twice.
func LoadRegistry(jobsDir, enemiesDir string) (*Registry, error) {
	jobs, err := LoadJobs(jobsDir)
	if err != nil {
		return nil, fmt.Errorf("loading jobs: %w", err)
	}
	enemies, err := LoadEnemies(enemiesDir)
	if err != nil {
		return nil, fmt.Errorf("loading enemies: %w", err)
	}
	r := NewRegistry()
	for _, j := range jobs {
		if _, dup := r.jobs[j.ID]; dup {
			return nil, fmt.Errorf("job %q defined twice", j.ID)
		}
		r.Register(j)
	}
	for _, e := range enemies {
		if _, dup := r.enemies[e.ID]; dup {
			return nil, fmt.Errorf("enemy %q defined twice", e.ID)
		}
		r.RegisterEnemy(e)
	}
	return r, nil
}

// Register adds a Job to the registry.
//
// Precondition: job must be non-nil with a non-empty ID.
// Postcondition: job is retrievable via Job using job.ID;
// if called multiple times with the same ID, the last call wins.
func (r *Registry) Register(job *Job) {
	if job == nil {
		panic("Registry.Register: precondition violated: job must be non-nil")
	}
	if job.ID == "" {
		panic("Registry.Register: precondition violated: job ID must be non-empty")
	}
	r.jobs[job.ID] = job
}

// RegisterEnemy adds an Enemy to the registry.
//
// Precondition: enemy must be non-nil with a non-empty ID.
func (r *Registry) RegisterEnemy(enemy *Enemy) {
	if enemy == nil {
		panic("Registry.RegisterEnemy: precondition violated: enemy must be non-nil")
	}
	if enemy.ID == "" {
		panic("Registry.RegisterEnemy: precondition violated: enemy ID must be non-empty")
	}
	r.enemies[enemy.ID] = enemy
}

// Job returns the Job for id, if registered.
func (r *Registry) Job(id string) (*Job, bool) {
	j, ok := r.jobs[id]
	return j, ok
}

// Enemy returns the Enemy for id, if registered.
func (r *Registry) Enemy(id string) (*Enemy, bool) {
	e, ok := r.enemies[id]
	return e, ok
}

// Jobs returns every registered job ordered by ID.
func (r *Registry) Jobs() []*Job {
	out := make([]*Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Enemies returns every registered enemy ordered by ID.
func (r *Registry) Enemies() []*Enemy {
	out := make([]*Enemy, 0, len(r.enemies))
	for _, e := range r.enemies {
		out = append(out, e)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// CheckSkills verifies that every skill id named by a job or enemy is known.
//
// Postcondition: Returns nil, or an error listing every unknown reference.
func (r *Registry) CheckSkills(known func(id string) bool) error {
	var errs []error
	for _, j := range r.Jobs() {
		for _, s := range j.Skills {
			if !known(s) {
				errs = append(errs, fmt.Errorf("job %q: unknown skill %q", j.ID, s))
			}
		}
	}
	for _, e := range r.Enemies() {
		for _, s := range e.Skills {
			if !known(s) {
				errs = append(errs, fmt.Errorf("enemy %q: unknown skill %q", e.ID, s))
			}
		}
	}
	return errors.Join(errs...)
}
