// Package content loads monster templates, abilities, encounter definitions and
// parties from YAML and turns them into combat inputs.
package content

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/encounter/internal/game/character"
	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// WeaponDef names a weapon and its damage dice.
type WeaponDef struct {
	Name string `yaml:"name"`
	Dice string `yaml:"dice"`
}

// MonsterTemplate defines a reusable monster archetype loaded from YAML.
type MonsterTemplate struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Level       int        `yaml:"level"`
	MaxHP       int        `yaml:"max_hp"`
	AC          int        `yaml:"ac"`
	AttackBonus int        `yaml:"attack_bonus"`
	Agility     int        `yaml:"agility"`
	Weapon      *WeaponDef `yaml:"weapon"`
	AIDomain    string     `yaml:"ai_domain"` // empty = baseline policy
	Experience  int        `yaml:"experience"`
	Loot        *LootTable `yaml:"loot"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1,
// MaxHP >= 1, AC >= 10, Experience >= 0, the weapon dice parse and the loot
// table is valid.
func (t *MonsterTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("monster template %q: level must be >= 1", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("monster template %q: max_hp must be >= 1", t.ID)
	}
	if t.AC < 10 {
		return fmt.Errorf("monster template %q: ac must be >= 10", t.ID)
	}
	if t.Experience < 0 {
		return fmt.Errorf("monster template %q: experience must be >= 0", t.ID)
	}
	if t.Weapon != nil {
		if _, err := dice.Parse(t.Weapon.Dice); err != nil {
			return fmt.Errorf("monster template %q: weapon: %w", t.ID, err)
		}
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			return fmt.Errorf("monster template %q: %w", t.ID, err)
		}
	}
	return nil
}

// Spawn creates a live AI-controlled monster combatant from the template.
//
// Precondition: t must have passed Validate(); src must not be nil.
// Postcondition: the combatant has a fresh unique ID, full HP, the template's
// experience as bounty and a gold bounty rolled from the currency drop.
func (t *MonsterTemplate) Spawn(src dice.Source) *combat.Combatant {
	c := &combat.Combatant{
		ID:          uuid.New().String(),
		Name:        t.Name,
		Side:        combat.SideMonster,
		Controller:  combat.ControllerAI,
		MaxHP:       t.MaxHP,
		CurrentHP:   t.MaxHP,
		Level:       t.Level,
		AC:          t.AC,
		AttackBonus: t.AttackBonus,
		DexMod:      character.Modifier(t.Agility),
		Agility:     t.Agility,
		Tactics:     t.AIDomain,
		Bounty:      combat.Bounty{Experience: t.Experience},
	}
	if t.Weapon != nil {
		c.Weapon = combat.SimpleWeapon{Label: t.Weapon.Name, Dice: t.Weapon.Dice}
	}
	if t.Loot != nil {
		c.Bounty.Gold = t.Loot.Currency.Roll(src)
		if len(t.Loot.Items) > 0 {
			c.Bounty.Loot = t.Loot
		}
	}
	return c
}
