package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/encounter/internal/game/combat"
)

func TestOutcomeFor(t *testing.T) {
	cases := []struct {
		total, ac int
		want      combat.Outcome
	}{
		{25, 15, combat.CritSuccess},
		{15, 15, combat.Success},
		{14, 15, combat.Failure},
		{5, 15, combat.Failure},
		{4, 15, combat.CritFailure},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, combat.OutcomeFor(tc.total, tc.ac), "total=%d ac=%d", tc.total, tc.ac)
	}
}

func TestProficiencyBonus(t *testing.T) {
	assert.Equal(t, 0, combat.ProficiencyBonus(0))
	assert.Equal(t, 2, combat.ProficiencyBonus(1))
	assert.Equal(t, 2, combat.ProficiencyBonus(4))
	assert.Equal(t, 3, combat.ProficiencyBonus(5))
}

func TestResolveAttack_BadWeaponFallsBackToUnarmed(t *testing.T) {
	a := &combat.Combatant{ID: "a", Level: 1, Weapon: combat.SimpleWeapon{Label: "broken", Dice: "banana"}}
	d := &combat.Combatant{ID: "d", AC: 10}
	r := combat.ResolveAttack(a, d, 0, fixedSrc{val: 2})
	assert.Equal(t, "1d6", r.DamageRoll.Expression)
	assert.Equal(t, 3, r.BaseDamage)
}

func TestResolveAttack_NegativeBonusFloorsDamage(t *testing.T) {
	a := &combat.Combatant{ID: "a", Level: 1, AttackBonus: -5}
	d := &combat.Combatant{ID: "d", AC: 0}
	r := combat.ResolveAttack(a, d, 0, fixedSrc{val: 0})
	assert.Equal(t, 0, r.BaseDamage)
}

func TestProperty_EffectiveDamageNeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := &combat.Combatant{
			ID:          "a",
			Level:       rapid.IntRange(0, 20).Draw(rt, "level"),
			AttackBonus: rapid.IntRange(-10, 10).Draw(rt, "bonus"),
		}
		d := &combat.Combatant{ID: "d", AC: rapid.IntRange(0, 30).Draw(rt, "ac")}
		r := combat.ResolveAttack(a, d, rapid.IntRange(0, 4).Draw(rt, "acBonus"), fixedSrc{val: rapid.IntRange(0, 19).Draw(rt, "die")})
		if r.EffectiveDamage() < 0 {
			rt.Fatalf("negative damage %d", r.EffectiveDamage())
		}
		if !r.Outcome.Hit() && r.EffectiveDamage() != 0 {
			rt.Fatalf("miss dealt %d", r.EffectiveDamage())
		}
	})
}

func TestAgilityEscapePolicy(t *testing.T) {
	p := combat.DefaultEscapePolicy()
	fleer := &combat.Combatant{Agility: 12}
	assert.Equal(t, 95, p.Chance(fleer, nil))
	assert.Equal(t, 60, p.Chance(fleer, []*combat.Combatant{{Agility: 10}}))
	assert.Equal(t, 40, p.Chance(fleer, []*combat.Combatant{{Agility: 10}, {Agility: 14}}))
	assert.Equal(t, 5, p.Chance(fleer, []*combat.Combatant{{Agility: 40}}))
	assert.Equal(t, 95, p.Chance(&combat.Combatant{Agility: 40}, []*combat.Combatant{{Agility: 1}}))
}

func TestRules_Validate(t *testing.T) {
	assert.NoError(t, combat.DefaultRules().Validate())
	r := combat.DefaultRules()
	r.PlayerDeathThreshold = 3
	assert.Error(t, r.Validate())
	r = combat.DefaultRules()
	r.MaxAIChain = 0
	assert.Error(t, r.Validate())
}

func TestVerdictKind_RoundTrip(t *testing.T) {
	for _, k := range []combat.VerdictKind{combat.VerdictVictory, combat.VerdictVictoryWithCasualties, combat.VerdictPartialDefeat, combat.VerdictTotalDefeat} {
		got, ok := combat.ParseVerdictKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := combat.ParseVerdictKind("draw")
	assert.False(t, ok)
}
