package character

import (
	"errors"
	"fmt"
)

// DefaultAC is the armor class of a character built without armor.
const DefaultAC = 10

// Build constructs a new level 1 character. Zero ability scores become
// AverageScore. HP = max(1, hitDie + Constitution modifier); AC = DefaultAC +
// Dexterity modifier.
//
// Precondition: name must be non-empty; hitDie must be >= 1.
// Postcondition: returns an active character ready for persistence, or a non-nil error.
func Build(name, class string, abilities AbilityScores, hitDie int) (*Character, error) {
	if name == "" {
		return nil, errors.New("character name must not be empty")
	}
	if hitDie < 1 {
		return nil, fmt.Errorf("character %q: hit die must be >= 1, got %d", name, hitDie)
	}
	abilities = abilities.WithDefaults()
	maxHP := hitDie + Modifier(abilities.Constitution)
	if maxHP < 1 {
		maxHP = 1
	}
	return &Character{
		Name:      name,
		Class:     class,
		Level:     1,
		Abilities: abilities,
		MaxHP:     maxHP,
		CurrentHP: maxHP,
		AC:        DefaultAC + Modifier(abilities.Dexterity),
		Status:    StatusActive,
	}, nil
}

// AverageScore replaces ability scores left at zero.
const AverageScore = 10

// WithDefaults returns a copy of a with every zero score set to AverageScore.
func (a AbilityScores) WithDefaults() AbilityScores {
	for _, p := range []*int{&a.Strength, &a.Dexterity, &a.Constitution, &a.Intelligence, &a.Wisdom, &a.Charisma} {
		if *p == 0 {
			*p = AverageScore
		}
	}
	return a
}
