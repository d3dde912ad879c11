package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// Decider implements combat.Decider. Combatants whose Tactics names a registered
// domain are planned by that domain; everyone else, and every plan that yields
// nothing legal, falls back to Baseline.
type Decider struct {
	registry *Registry
	fallback Baseline
	logger   *zap.Logger
}

// NewDecider returns a Decider over registry. A nil registry plans everyone with Baseline.
func NewDecider(registry *Registry, logger *zap.Logger) *Decider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decider{registry: registry, logger: logger}
}

// Decide implements combat.Decider.
//
// Postcondition: the returned action has passed board.Validate, unless Baseline
// itself produced it.
func (d *Decider) Decide(ctx context.Context, actor *combat.Combatant, board combat.Board) (combat.Action, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	planner, ok := d.registry.PlannerFor(actor.Tactics)
	if actor.Tactics == "" || !ok {
		if actor.Tactics != "" {
			d.logger.Debug("unknown tactics; using baseline",
				zap.String("actor", actor.ID),
				zap.String("tactics", actor.Tactics),
			)
		}
		return d.fallback.Decide(ctx, actor, board)
	}

	state := Snapshot(actor, board)
	if src := board.Source(); src != nil {
		state.roller = dice.NewLoggedRoller(src, d.logger.With(zap.String("actor", actor.ID)))
	}
	plan, err := planner.Plan(state)
	if err != nil {
		return nil, fmt.Errorf("planning for %s: %w", actor.ID, err)
	}
	for _, step := range plan {
		a, ok := ToAction(actor, step)
		if !ok {
			continue
		}
		if err := board.Validate(a); err != nil {
			d.logger.Debug("planned action rejected",
				zap.String("actor", actor.ID),
				zap.String("action", step.Action),
				zap.Error(err),
			)
			continue
		}
		return a, nil
	}
	return d.fallback.Decide(ctx, actor, board)
}

// ToAction converts a planned step into a combat action for actor.
//
// Postcondition: returns false for unknown actions.
func ToAction(actor *combat.Combatant, step PlannedAction) (combat.Action, bool) {
	switch step.Action {
	case OpAttack:
		return combat.Attack{AttackerID: actor.ID, TargetID: step.Target}, true
	case OpDefend:
		return combat.Defend{DefenderID: actor.ID}, true
	case OpCast:
		return combat.Cast{CasterID: actor.ID, SpellID: step.Ability, TargetID: step.Target}, true
	case OpUseItem:
		return combat.UseItem{UserID: actor.ID, ItemID: step.Ability, TargetID: step.Target}, true
	case OpFlee:
		return combat.Flee{FleerID: actor.ID}, true
	case OpPass:
		return combat.Pass{PasserID: actor.ID}, true
	default:
		return nil, false
	}
}
