package content

import (
	"fmt"

	"github.com/cory-johannsen/encounter/internal/game/character"
)

// MemberDef describes a pre-built party member.
type MemberDef struct {
	Name      string                  `yaml:"name"`
	Class     string                  `yaml:"class"`
	Level     int                     `yaml:"level"`
	HitDie    int                     `yaml:"hit_die"`
	Abilities character.AbilityScores `yaml:"abilities"`
	AC        int                     `yaml:"ac"` // 0 = derived from Dexterity
	Weapon    *WeaponDef              `yaml:"weapon"`
}

// PartyDef is a named group of player characters used by the simulator and
// tests when no database is available.
type PartyDef struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Members []MemberDef `yaml:"members"`
}

// Validate checks that the party has members and every member can be built.
func (p *PartyDef) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("party: id must not be empty")
	}
	if len(p.Members) == 0 {
		return fmt.Errorf("party %q: at least one member is required", p.ID)
	}
	seen := make(map[string]bool, len(p.Members))
	for _, m := range p.Members {
		if seen[m.Name] {
			return fmt.Errorf("party %q: duplicate member %q", p.ID, m.Name)
		}
		seen[m.Name] = true
		if _, err := m.Character(); err != nil {
			return fmt.Errorf("party %q: %w", p.ID, err)
		}
	}
	return nil
}

// Characters builds a fresh, unsaved character for each member.
func (p *PartyDef) Characters() ([]*character.Character, error) {
	out := make([]*character.Character, 0, len(p.Members))
	for _, m := range p.Members {
		c, err := m.Character()
		if err != nil {
			return nil, fmt.Errorf("party %q: %w", p.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Character builds the member via character.Build and applies the overrides.
func (m MemberDef) Character() (*character.Character, error) {
	c, err := character.Build(m.Name, m.Class, m.Abilities, m.HitDie)
	if err != nil {
		return nil, err
	}
	if m.Level > 1 {
		c.Level = m.Level
	}
	if m.AC > 0 {
		c.AC = m.AC
	}
	if m.Weapon != nil {
		c.WeaponName = m.Weapon.Name
		c.WeaponDice = m.Weapon.Dice
	}
	return c, nil
}
