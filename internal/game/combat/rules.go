package combat

import "fmt"

// Rules holds the engine-defined policy numbers. None of them are balance content;
// they are the knobs the hosting game tunes.
type Rules struct {
	// PlayerDeathThreshold is the HP floor at or below which a player dies.
	// Players between 0 and this floor are unconscious.
	PlayerDeathThreshold int
	// MonsterDeathThreshold is the HP floor at or below which a monster dies.
	MonsterDeathThreshold int
	// DefendACBonus is added to a defender's AC against the next incoming attack.
	DefendACBonus int
	// RollInitiative rolls d20+DexMod for every combatant as it enters the encounter.
	// When false the supplied Initiative values are used as-is.
	RollInitiative bool
	// MaxAIChain bounds the number of consecutive AI turns resolved in one call.
	MaxAIChain int
}

// DefaultRules returns the rules used when none are configured.
func DefaultRules() Rules {
	return Rules{
		PlayerDeathThreshold:  -10,
		MonsterDeathThreshold: 0,
		DefendACBonus:         2,
		RollInitiative:        true,
		MaxAIChain:            256,
	}
}

// Validate checks the rule invariants.
func (r Rules) Validate() error {
	if r.PlayerDeathThreshold > 0 {
		return fmt.Errorf("combat rules: player death threshold must be <= 0, got %d", r.PlayerDeathThreshold)
	}
	if r.MonsterDeathThreshold > 0 {
		return fmt.Errorf("combat rules: monster death threshold must be <= 0, got %d", r.MonsterDeathThreshold)
	}
	if r.DefendACBonus < 0 {
		return fmt.Errorf("combat rules: defend AC bonus must be >= 0, got %d", r.DefendACBonus)
	}
	if r.MaxAIChain < 1 {
		return fmt.Errorf("combat rules: max AI chain must be >= 1, got %d", r.MaxAIChain)
	}
	return nil
}

// DeathThreshold returns the death floor for side.
func (r Rules) DeathThreshold(side Side) int {
	if side == SidePlayer {
		return r.PlayerDeathThreshold
	}
	return r.MonsterDeathThreshold
}

// statusAfterDamage derives the status a combatant with hp should have.
func (r Rules) statusAfterDamage(c *Combatant) Status {
	switch {
	case c.CurrentHP <= r.DeathThreshold(c.Side):
		return StatusDead
	case c.CurrentHP <= 0:
		return StatusUnconscious
	default:
		return StatusActive
	}
}
