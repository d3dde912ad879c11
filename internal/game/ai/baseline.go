package ai

import (
	"context"

	"github.com/cory-johannsen/encounter/internal/game/combat"
)

// Baseline attacks the active opponent with the lowest current HP, breaking ties
// by turn order, and defends when no opponent remains. It never consults
// randomness, so the same board always yields the same choice.
type Baseline struct{}

// Decide implements combat.Decider.
func (Baseline) Decide(_ context.Context, actor *combat.Combatant, board combat.Board) (combat.Action, error) {
	var target *combat.Combatant
	for _, c := range board.Opponents(actor) {
		if target == nil || c.CurrentHP < target.CurrentHP {
			target = c
		}
	}
	if target == nil {
		return combat.Defend{DefenderID: actor.ID}, nil
	}
	return combat.Attack{AttackerID: actor.ID, TargetID: target.ID}, nil
}
