package skill

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of a Skill.
type Definition struct {
	ID            string      `yaml:"id"`
	Name          string      `yaml:"name"`
	Description   string      `yaml:"description"`
	Target        string      `yaml:"target"`
	Cooldown      int         `yaml:"cooldown"`
	CastTime      float64     `yaml:"cast_time"`
	Interruptible *bool       `yaml:"interruptible"`
	Ultimate      bool        `yaml:"ultimate"`
	Costs         []CostDef   `yaml:"costs"`
	Effects       []EffectDef `yaml:"effects"`
}

// CostDef declares exactly one cost.
type CostDef struct {
	MP        int       `yaml:"mp"`
	Stack     *StackDef `yaml:"stack"`
	HPPercent float64   `yaml:"hp_percent"`
}

// StackDef is the YAML form of StackCost.
type StackDef struct {
	Counter string `yaml:"counter"`
	Amount  int    `yaml:"amount"`
}

// EffectDef declares exactly one effect.
type EffectDef struct {
	Damage    *DamageDef    `yaml:"damage"`
	Heal      *HealDef      `yaml:"heal"`
	Buff      *BuffDef      `yaml:"buff"`
	Shield    *ShieldDef    `yaml:"shield"`
	Gimmick   *GimmickDef   `yaml:"gimmick"`
	Lifesteal *LifestealDef `yaml:"lifesteal"`
}

type DamageDef struct {
	Type         string           `yaml:"type"`
	Multiplier   float64          `yaml:"multiplier"`
	HPMultiplier float64          `yaml:"hp_multiplier"`
	Stat         string           `yaml:"stat"`
	Element      string           `yaml:"element"`
	GimmickBonus *GimmickBonusDef `yaml:"gimmick_bonus"`
}

type GimmickBonusDef struct {
	Counter  string  `yaml:"counter"`
	PerStack float64 `yaml:"per_stack"`
}

type HealDef struct {
	Resource  string  `yaml:"resource"`
	Base      int     `yaml:"base"`
	Stat      string  `yaml:"stat"`
	StatScale float64 `yaml:"stat_scale"`
	Percent   float64 `yaml:"percent"`
	PartyWide bool    `yaml:"party_wide"`
	Self      bool    `yaml:"self"`
}

type BuffDef struct {
	ID        string  `yaml:"id"`
	Value     float64 `yaml:"value"`
	Duration  int     `yaml:"duration"`
	PartyWide bool    `yaml:"party_wide"`
}

type ShieldDef struct {
	Base            int     `yaml:"base"`
	HPConsumedScale float64 `yaml:"hp_consumed_scale"`
	PartyWide       bool    `yaml:"party_wide"`
}

type GimmickDef struct {
	Op      string `yaml:"op"`
	Counter string `yaml:"counter"`
	Amount  int    `yaml:"amount"`
	Max     int    `yaml:"max"`
}

type LifestealDef struct {
	Ratio float64 `yaml:"ratio"`
}

type catalogFile struct {
	Skills []Definition `yaml:"skills"`
}

// Build validates d and converts it into a Skill.
//
// Postcondition: Returns a Skill or an error describing every violation.
func (d Definition) Build() (*Skill, error) {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	target := TargetType(d.Target)
	if target == "" {
		target = TargetSingle
	}
	if !target.Valid() {
		errs = append(errs, fmt.Errorf("target %q is not one of [self, single, party, all_enemies]", d.Target))
	}
	if d.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown must be >= 0, got %d", d.Cooldown))
	}
	if d.CastTime < 0 {
		errs = append(errs, fmt.Errorf("cast_time must be >= 0, got %v", d.CastTime))
	}
	if len(d.Effects) == 0 {
		errs = append(errs, errors.New("at least one effect is required"))
	}

	s := &Skill{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Cooldown:      d.Cooldown,
		Target:        target,
		Ultimate:      d.Ultimate,
		CastTime:      d.CastTime,
		Interruptible: d.Interruptible == nil || *d.Interruptible,
	}
	if s.Name == "" {
		s.Name = d.ID
	}
	for i, cd := range d.Costs {
		c, err := cd.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("costs[%d]: %w", i, err))
			continue
		}
		s.Costs = append(s.Costs, c)
	}
	for i, ed := range d.Effects {
		e, err := ed.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("effects[%d]: %w", i, err))
			continue
		}
		s.Effects = append(s.Effects, e)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("skill %q: %w", d.ID, errors.Join(errs...))
	}
	return s, nil
}

func (c CostDef) build() (Cost, error) {
	var out []Cost
	if c.MP > 0 {
		out = append(out, MPCost{Amount: c.MP})
	}
	if c.Stack != nil {
		if c.Stack.Counter == "" || c.Stack.Amount < 1 {
			return nil, errors.New("stack cost needs a counter and amount >= 1")
		}
		out = append(out, StackCost{Counter: c.Stack.Counter, Amount: c.Stack.Amount})
	}
	if c.HPPercent > 0 {
		if c.HPPercent >= 1 {
			return nil, fmt.Errorf("hp_percent must be < 1, got %v", c.HPPercent)
		}
		out = append(out, HPCost{Percent: c.HPPercent})
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("exactly one of mp, stack, hp_percent must be set, got %d", len(out))
	}
	return out[0], nil
}

func (e EffectDef) build() (Effect, error) {
	var out []Effect
	if e.Damage != nil {
		d, err := e.Damage.build()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if e.Heal != nil {
		res := ResourceType(e.Heal.Resource)
		if res == "" {
			res = ResourceHP
		}
		if res != ResourceHP && res != ResourceMP {
			return nil, fmt.Errorf("heal resource %q is not one of [hp, mp]", e.Heal.Resource)
		}
		if e.Heal.Self && e.Heal.PartyWide {
			return nil, errors.New("heal cannot be both self and party_wide")
		}
		out = append(out, Heal{
			Resource:  res,
			Base:      e.Heal.Base,
			Stat:      e.Heal.Stat,
			StatScale: e.Heal.StatScale,
			Percent:   e.Heal.Percent,
			PartyWide: e.Heal.PartyWide,
			Self:      e.Heal.Self,
		})
	}
	if e.Buff != nil {
		if e.Buff.ID == "" || e.Buff.Duration < 1 {
			return nil, errors.New("buff needs an id and duration >= 1")
		}
		out = append(out, Buff{ID: e.Buff.ID, Value: e.Buff.Value, Duration: e.Buff.Duration, PartyWide: e.Buff.PartyWide})
	}
	if e.Shield != nil {
		out = append(out, Shield{Base: e.Shield.Base, HPConsumedScale: e.Shield.HPConsumedScale, PartyWide: e.Shield.PartyWide})
	}
	if e.Gimmick != nil {
		op := GimmickOp(strings.ToLower(e.Gimmick.Op))
		if op != GimmickAdd && op != GimmickConsume && op != GimmickSet {
			return nil, fmt.Errorf("gimmick op %q is not one of [add, consume, set]", e.Gimmick.Op)
		}
		if e.Gimmick.Counter == "" {
			return nil, errors.New("gimmick counter must not be empty")
		}
		out = append(out, Gimmick{Op: op, Counter: e.Gimmick.Counter, Amount: e.Gimmick.Amount, Max: e.Gimmick.Max})
	}
	if e.Lifesteal != nil {
		out = append(out, Lifesteal{Ratio: e.Lifesteal.Ratio})
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("exactly one effect kind must be set, got %d", len(out))
	}
	return out[0], nil
}

func (d DamageDef) build() (Damage, error) {
	typ := DamageType(d.Type)
	if typ == "" {
		typ = DamageBRV
	}
	if typ != DamageBRV && typ != DamageHP && typ != DamageBRVHP {
		return Damage{}, fmt.Errorf("damage type %q is not one of [brv, hp, brv_hp]", d.Type)
	}
	stat := StatType(d.Stat)
	if stat == "" {
		stat = StatPhysical
	}
	if stat != StatPhysical && stat != StatMagical {
		return Damage{}, fmt.Errorf("damage stat %q is not one of [physical, magical]", d.Stat)
	}
	mult := d.Multiplier
	if mult == 0 {
		mult = 1.0
	}
	dmg := Damage{Type: typ, Multiplier: mult, HPMultiplier: d.HPMultiplier, Stat: stat, Element: d.Element}
	if d.GimmickBonus != nil {
		dmg.Bonus = &GimmickBonus{Counter: d.GimmickBonus.Counter, PerStack: d.GimmickBonus.PerStack}
	}
	return dmg, nil
}

// LoadCatalogFromBytes parses one YAML document holding a `skills:` list.
//
// Postcondition: Returns the built skills in file order, or an error naming source.
func LoadCatalogFromBytes(data []byte, source string) ([]*Skill, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", source, err)
	}
	out := make([]*Skill, 0, len(f.Skills))
	for _, d := range f.Skills {
		s, err := d.Build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadCatalog reads every *.yaml file in dir in name order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns every skill, or an error if any file fails to parse or
// two skills share an id.
func LoadCatalog(dir string) ([]*Skill, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	seen := make(map[string]string)
	var out []*Skill
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		skills, err := LoadCatalogFromBytes(data, path)
		if err != nil {
			return nil, err
		}
		for _, s := range skills {
			if prev, dup := seen[s.ID]; dup {
				return nil, fmt.Errorf("skill %q defined in both %q and %q", s.ID, prev, path)
			}
			seen[s.ID] = path
		}
		out = append(out, skills...)
	}
	return out, nil
}

// RegisterAll registers every skill with m.
func RegisterAll(m *Manager, skills []*Skill) {
	for _, s := range skills {
		m.Register(s)
	}
}
