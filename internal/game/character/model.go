// Package character defines the persistent player character model, its
// conversion into an encounter combatant, and reward application afterwards.
package character

import (
	"strconv"
	"time"

	"github.com/cory-johannsen/encounter/internal/game/combat"
)

// Status values persisted for a character between encounters.
const (
	StatusActive      = "active"
	StatusUnconscious = "unconscious"
	StatusDead        = "dead"
)

// AbilityScores holds the six ability score values for a character.
type AbilityScores struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Constitution int `yaml:"constitution"`
	Intelligence int `yaml:"intelligence"`
	Wisdom       int `yaml:"wisdom"`
	Charisma     int `yaml:"charisma"`
}

// Modifier returns the ability modifier for score: floor((score - 10) / 2).
func Modifier(score int) int {
	d := score - 10
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}

// Character is a player character's persistent state.
//
// ID is set by the persistence layer; zero marks an unsaved character.
type Character struct {
	ID int64 `yaml:"id"`

	Name       string        `yaml:"name"`
	Class      string        `yaml:"class"`
	Level      int           `yaml:"level"`
	Experience int           `yaml:"experience"`
	Gold       int           `yaml:"gold"`
	Abilities  AbilityScores `yaml:"abilities"`
	MaxHP      int           `yaml:"max_hp"`
	CurrentHP  int           `yaml:"current_hp"`
	AC         int           `yaml:"ac"`
	WeaponName string        `yaml:"weapon"`
	WeaponDice string        `yaml:"weapon_dice"`
	Status     string        `yaml:"status"`

	CreatedAt time.Time `yaml:"-"`
	UpdatedAt time.Time `yaml:"-"`
}

// CombatantID is the ID the character uses inside an encounter: the database ID
// when saved, the name otherwise.
func (c *Character) CombatantID() string {
	if c.ID == 0 {
		return c.Name
	}
	return strconv.FormatInt(c.ID, 10)
}

// CanFight reports whether the character may enter an encounter.
func (c *Character) CanFight() bool {
	return c.Status != StatusDead && c.Status != StatusUnconscious && c.CurrentHP > 0
}

// Combatant converts the character into a human-controlled player combatant.
//
// Postcondition: the combatant's HP mirrors the character's; attack bonus is the
// Strength modifier; Agility is the raw Dexterity score.
func (c *Character) Combatant() *combat.Combatant {
	var weapon combat.Weapon
	if c.WeaponDice != "" {
		name := c.WeaponName
		if name == "" {
			name = "weapon"
		}
		weapon = combat.SimpleWeapon{Label: name, Dice: c.WeaponDice}
	}
	return &combat.Combatant{
		ID:          c.CombatantID(),
		Name:        c.Name,
		Side:        combat.SidePlayer,
		Controller:  combat.ControllerHuman,
		MaxHP:       c.MaxHP,
		CurrentHP:   c.CurrentHP,
		Level:       c.Level,
		AC:          c.AC,
		AttackBonus: Modifier(c.Abilities.Strength),
		DexMod:      Modifier(c.Abilities.Dexterity),
		Agility:     c.Abilities.Dexterity,
		Weapon:      weapon,
	}
}
