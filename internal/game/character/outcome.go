package character

import "github.com/cory-johannsen/encounter/internal/game/combat"

// ApplyVerdict copies the encounter result back onto the character.
//
// Precondition: cbt is the combatant built from c for the encounter that produced v.
// Postcondition: CurrentHP is the combatant's HP floored at 0; Status reflects
// the combatant's final status (a fled character stays active); the character's
// reward share, if any, is added to Experience and Gold. Returns the share applied.
func ApplyVerdict(c *Character, cbt *combat.Combatant, v *combat.Verdict) combat.Share {
	c.CurrentHP = cbt.CurrentHP
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
	switch cbt.Status() {
	case combat.StatusDead:
		c.Status = StatusDead
	case combat.StatusUnconscious:
		c.Status = StatusUnconscious
	default:
		c.Status = StatusActive
	}

	if v == nil {
		return combat.Share{}
	}
	for _, s := range v.Rewards.Shares {
		if s.CombatantID == cbt.ID {
			c.Experience += s.Experience
			c.Gold += s.Gold
			return s
		}
	}
	return combat.Share{}
}
