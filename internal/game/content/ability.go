package content

import (
	"fmt"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// Ability kinds.
const (
	KindSpell = "spell"
	KindItem  = "item"
)

var targetings = map[string]combat.Targeting{
	"enemy":       combat.TargetEnemy,
	"ally":        combat.TargetAlly,
	"self":        combat.TargetSelf,
	"all_enemies": combat.TargetAllEnemies,
	"all_allies":  combat.TargetAllAllies,
}

// AbilityDef is a spell or consumable item loaded from YAML. Damage and Healing
// are dice expressions rolled once per target; either may be empty.
type AbilityDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Target      string `yaml:"target"`
	Damage      string `yaml:"damage"`
	Healing     string `yaml:"healing"`
	Description string `yaml:"description"`
}

// Validate checks that the definition is usable.
//
// Postcondition: Returns nil iff ID and Name are non-empty, Kind is spell or
// item, Target names a known targeting, at least one of Damage or Healing is set,
// and every set dice expression parses.
func (d *AbilityDef) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("ability: id must not be empty")
	}
	if d.Name == "" {
		return fmt.Errorf("ability %q: name must not be empty", d.ID)
	}
	if d.Kind != KindSpell && d.Kind != KindItem {
		return fmt.Errorf("ability %q: kind must be %q or %q, got %q", d.ID, KindSpell, KindItem, d.Kind)
	}
	if _, ok := targetings[d.Target]; !ok {
		return fmt.Errorf("ability %q: unknown target %q", d.ID, d.Target)
	}
	if d.Damage == "" && d.Healing == "" {
		return fmt.Errorf("ability %q: damage or healing is required", d.ID)
	}
	for _, expr := range []string{d.Damage, d.Healing} {
		if expr == "" {
			continue
		}
		if _, err := dice.Parse(expr); err != nil {
			return fmt.Errorf("ability %q: %w", d.ID, err)
		}
	}
	return nil
}

// Ability exposes the definition as a combat.Ability.
//
// Precondition: d must have passed Validate().
func (d *AbilityDef) Ability() combat.Ability {
	a := &defAbility{def: d, targeting: targetings[d.Target]}
	if d.Damage != "" {
		expr := dice.MustParse(d.Damage)
		a.damage = &expr
	}
	if d.Healing != "" {
		expr := dice.MustParse(d.Healing)
		a.healing = &expr
	}
	return a
}

type defAbility struct {
	def       *AbilityDef
	targeting combat.Targeting
	damage    *dice.Expression
	healing   *dice.Expression
}

func (a *defAbility) ID() string                  { return a.def.ID }
func (a *defAbility) Name() string                { return a.def.Name }
func (a *defAbility) Targeting() combat.Targeting { return a.targeting }

func (a *defAbility) Resolve(_ *combat.Combatant, targets []*combat.Combatant, src dice.Source) []combat.Impact {
	impacts := make([]combat.Impact, 0, len(targets))
	for _, t := range targets {
		imp := combat.Impact{TargetID: t.ID}
		if a.damage != nil {
			imp.Damage = max(0, dice.Roll(*a.damage, src).Total())
		}
		if a.healing != nil {
			imp.Healing = max(0, dice.Roll(*a.healing, src).Total())
		}
		impacts = append(impacts, imp)
	}
	return impacts
}
