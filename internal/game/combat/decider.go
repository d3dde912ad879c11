package combat

import (
	"context"

	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// Board is the read-only view of an encounter given to a Decider.
type Board interface {
	// Opponents returns the active combatants opposing actor, in turn order.
	Opponents(actor *Combatant) []*Combatant
	// Allies returns the active combatants on actor's side excluding actor, in turn order.
	Allies(actor *Combatant) []*Combatant
	// Order returns the current turn order.
	Order() []*Combatant
	// Spells returns the spell book available to casters.
	Spells() AbilityBook
	// Validate reports whether a would be accepted right now without resolving it.
	Validate(a Action) error
	// Source returns the encounter's randomness source. Deciders draw from it so a
	// seeded encounter replays the same choices.
	Source() dice.Source
}

// Decider chooses actions for AI-controlled combatants.
type Decider interface {
	Decide(ctx context.Context, actor *Combatant, board Board) (Action, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, actor *Combatant, board Board) (Action, error)

// Decide implements Decider.
func (f DeciderFunc) Decide(ctx context.Context, actor *Combatant, board Board) (Action, error) {
	return f(ctx, actor, board)
}

// guardDecider is used when no decider is configured: every AI combatant defends.
var guardDecider = DeciderFunc(func(_ context.Context, actor *Combatant, _ Board) (Action, error) {
	return Defend{DefenderID: actor.ID}, nil
})
