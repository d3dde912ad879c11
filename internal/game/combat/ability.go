package combat

import "github.com/cory-johannsen/encounter/internal/game/dice"

// Targeting describes which combatants a spell or item affects.
type Targeting int

const (
	TargetEnemy Targeting = iota + 1
	TargetAlly
	TargetSelf
	TargetAllEnemies
	TargetAllAllies
)

// String returns the YAML spelling of the targeting mode.
func (t Targeting) String() string {
	switch t {
	case TargetEnemy:
		return "enemy"
	case TargetAlly:
		return "ally"
	case TargetSelf:
		return "self"
	case TargetAllEnemies:
		return "all_enemies"
	case TargetAllAllies:
		return "all_allies"
	default:
		return "unknown"
	}
}

// RequiresTarget reports whether the action must name a TargetID.
func (t Targeting) RequiresTarget() bool {
	return t == TargetEnemy || t == TargetAlly
}

// Impact is one effect an ability has on one target.
type Impact struct {
	TargetID string
	Damage   int
	Healing  int
}

// Ability is a collaborator-supplied spell or item definition. The engine
// validates targets, consumes the turn and applies the returned impacts; the
// magnitude of every impact is the ability's business.
type Ability interface {
	ID() string
	Name() string
	Targeting() Targeting
	// Resolve computes the impacts of user applying the ability to targets.
	// targets has already been validated against Targeting().
	Resolve(user *Combatant, targets []*Combatant, src dice.Source) []Impact
}

// AbilityBook looks up abilities by ID.
type AbilityBook interface {
	Ability(id string) (Ability, bool)
}

// AbilityMap is an in-memory AbilityBook.
type AbilityMap map[string]Ability

// Ability implements AbilityBook.
func (m AbilityMap) Ability(id string) (Ability, bool) {
	a, ok := m[id]
	return a, ok
}
