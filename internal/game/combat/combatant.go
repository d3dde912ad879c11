// Package combat implements the turn-based encounter engine: initiative-ordered
// turns, action resolution, multi-wave monster spawning, escape accounting and
// outcome determination.
package combat

import "github.com/cory-johannsen/encounter/internal/game/dice"

// Side identifies which party a combatant fights for.
type Side int

const (
	SideNone Side = iota
	SidePlayer
	SideMonster
)

// String returns "player", "monster" or "none".
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideMonster:
		return "monster"
	default:
		return "none"
	}
}

// Opposing returns the other side. SideNone opposes nothing.
func (s Side) Opposing() Side {
	switch s {
	case SidePlayer:
		return SideMonster
	case SideMonster:
		return SidePlayer
	default:
		return SideNone
	}
}

// Controller decides who chooses a combatant's actions.
type Controller int

const (
	ControllerHuman Controller = iota
	ControllerAI
)

// Status is the combat status of a combatant. Exactly one holds at a time.
type Status int

const (
	StatusActive Status = iota
	StatusUnconscious
	StatusDead
	StatusDisconnected
)

// String returns a lowercase label for the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusUnconscious:
		return "unconscious"
	case StatusDead:
		return "dead"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Weapon is the opaque attack capability carried by a combatant.
type Weapon interface {
	Name() string
	// DamageDice is a dice expression such as "1d8+1" or a flat value such as "100".
	DamageDice() string
}

// Unarmed is the Weapon used when a combatant carries none.
type Unarmed struct{}

func (Unarmed) Name() string       { return "fists" }
func (Unarmed) DamageDice() string { return "1d6" }

// SimpleWeapon is a Weapon defined by a name and a damage expression.
type SimpleWeapon struct {
	Label string
	Dice  string
}

func (w SimpleWeapon) Name() string       { return w.Label }
func (w SimpleWeapon) DamageDice() string { return w.Dice }

// LootItem is one item instance awarded when a wave is cleared.
type LootItem struct {
	ItemID     string
	InstanceID string
	Quantity   int
}

// LootRoller produces loot for a defeated monster.
type LootRoller interface {
	RollLoot(src dice.Source) []LootItem
}

// Bounty is what a monster yields when it dies.
type Bounty struct {
	Experience int
	Gold       int
	Loot       LootRoller // nil means no loot
}

// Combatant is the engine's view of one participant, backed by an external
// character or monster entity identified by ID.
type Combatant struct {
	ID         string
	Name       string
	Side       Side
	Controller Controller

	MaxHP     int
	CurrentHP int // may go negative on overkill

	Level       int
	AC          int
	AttackBonus int
	DexMod      int
	Agility     int
	Initiative  int

	Weapon  Weapon
	Tactics string // AI domain ID; empty selects the baseline policy
	Bounty  Bounty

	status    Status
	defending bool
	seq       int
}

// Status returns the combatant's current status.
func (c *Combatant) Status() Status { return c.status }

// IsActive reports whether the combatant can still act and be targeted.
func (c *Combatant) IsActive() bool { return c.status == StatusActive }

// IsDefending reports whether a defensive modifier is waiting for the next attack.
func (c *Combatant) IsDefending() bool { return c.defending }

// IsPlayer reports whether the combatant fights on the player side.
func (c *Combatant) IsPlayer() bool { return c.Side == SidePlayer }

// IsAIControlled reports whether the AI decision module chooses this combatant's actions.
func (c *Combatant) IsAIControlled() bool { return c.Controller == ControllerAI }

// IsCasualty reports whether the combatant ended up unconscious or dead.
func (c *Combatant) IsCasualty() bool {
	return c.status == StatusUnconscious || c.status == StatusDead
}

// weapon returns the equipped weapon or Unarmed.
func (c *Combatant) weapon() Weapon {
	if c.Weapon == nil {
		return Unarmed{}
	}
	return c.Weapon
}

// transition moves the combatant to status to.
//
// Postcondition: returns false and leaves the status unchanged unless the move is
// active -> {unconscious, dead, disconnected} or unconscious -> dead.
func (c *Combatant) transition(to Status) bool {
	switch {
	case c.status == StatusActive && to != StatusActive:
	case c.status == StatusUnconscious && to == StatusDead:
	default:
		return false
	}
	c.status = to
	if to != StatusActive {
		c.defending = false
	}
	return true
}

// reset clears per-encounter state so the combatant can join a new encounter.
func (c *Combatant) reset() {
	c.status = StatusActive
	c.defending = false
}

// HealthDescription returns a display string for the combatant's condition.
// Overkill HP is clamped so the description never reports negative health.
func (c *Combatant) HealthDescription() string {
	switch c.status {
	case StatusDead:
		return "dead"
	case StatusUnconscious:
		return "unconscious"
	case StatusDisconnected:
		return "fled"
	}
	hp := c.CurrentHP
	if hp < 0 {
		hp = 0
	}
	if c.MaxHP <= 0 {
		return "unharmed"
	}
	pct := float64(hp) / float64(c.MaxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
