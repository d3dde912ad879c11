// Package dice provides the randomness abstraction and roll-result types used by
// the encounter engine. Every random decision the engine makes (initiative, attack
// rolls, damage, escape attempts, loot) is drawn from a Source so that a seeded
// Source reproduces an encounter exactly.
package dice

import (
	"fmt"
	"strings"
)

// Source is the randomness provider for dice rolls.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult holds the audit trail for a single evaluated expression.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // expression as written, e.g. "2d6+3"
	Dice       []int  // kept die faces before the modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all kept dice plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll as "2d6+3: [4 5] +3 = 12".
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String called with empty Expression")
	}
	faces := make([]string, len(r.Dice))
	for i, d := range r.Dice {
		faces[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%s: [%s] %+d = %d", r.Expression, strings.Join(faces, " "), r.Modifier, r.Total())
}

// Percent reports whether a d100 roll lands under chance.
// chance <= 0 never succeeds; chance >= 100 always succeeds.
//
// Precondition: src must be non-nil.
func Percent(src Source, chance int) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 100 {
		return true
	}
	return src.Intn(100) < chance
}
