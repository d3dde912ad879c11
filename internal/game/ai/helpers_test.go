package ai_test

import (
	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// fakeBoard is a combat.Board over a fixed turn order. Validate rejects attacks
// on anyone not in the opponent list and casts of unknown spells.
type fakeBoard struct {
	order  []*combat.Combatant
	spells combat.AbilityMap
	src    dice.Source
}

func (b *fakeBoard) Opponents(actor *combat.Combatant) []*combat.Combatant {
	var out []*combat.Combatant
	for _, c := range b.order {
		if c.Side != actor.Side && c.IsActive() {
			out = append(out, c)
		}
	}
	return out
}

func (b *fakeBoard) Allies(actor *combat.Combatant) []*combat.Combatant {
	var out []*combat.Combatant
	for _, c := range b.order {
		if c.Side == actor.Side && c.ID != actor.ID && c.IsActive() {
			out = append(out, c)
		}
	}
	return out
}

func (b *fakeBoard) Order() []*combat.Combatant { return b.order }

func (b *fakeBoard) Spells() combat.AbilityBook { return b.spells }

func (b *fakeBoard) Source() dice.Source { return b.src }

func (b *fakeBoard) Validate(a combat.Action) error {
	switch act := a.(type) {
	case combat.Attack:
		for _, c := range b.order {
			if c.ID == act.TargetID && c.Side == combat.SidePlayer {
				return nil
			}
		}
		return combat.ErrInvalidTarget
	case combat.Cast:
		if _, ok := b.spells.Ability(act.SpellID); !ok {
			return combat.ErrUnknownAbility
		}
	}
	return nil
}

func pc(id string, hp int) *combat.Combatant {
	return &combat.Combatant{ID: id, Name: id, Side: combat.SidePlayer, MaxHP: 20, CurrentHP: hp, AC: 12}
}

func mob(id string, hp int) *combat.Combatant {
	return &combat.Combatant{ID: id, Name: id, Side: combat.SideMonster, Controller: combat.ControllerAI, MaxHP: 20, CurrentHP: hp, AC: 10}
}
