package combat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/encounter/internal/game/combat"
	"github.com/cory-johannsen/encounter/internal/game/dice"
)

// fixedSrc always returns min(val, n-1).
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

// testRules disables initiative rolls so tests control turn order directly.
func testRules() combat.Rules {
	r := combat.DefaultRules()
	r.RollInitiative = false
	return r
}

func player(id string, hp, init int) *combat.Combatant {
	return &combat.Combatant{
		ID: id, Name: id, Side: combat.SidePlayer,
		MaxHP: hp, CurrentHP: hp, AC: 10, Level: 1, Initiative: init, Agility: 10,
	}
}

func monster(id string, hp, init int) *combat.Combatant {
	return &combat.Combatant{
		ID: id, Name: id, Side: combat.SideMonster, Controller: combat.ControllerAI,
		MaxHP: hp, CurrentHP: hp, AC: 10, Level: 1, Initiative: init, Agility: 10,
		Bounty: combat.Bounty{Experience: 10, Gold: 5},
	}
}

// attackFirst attacks the first opponent in turn order, or defends.
var attackFirst = combat.DeciderFunc(func(_ context.Context, actor *combat.Combatant, b combat.Board) (combat.Action, error) {
	opp := b.Opponents(actor)
	if len(opp) == 0 {
		return combat.Defend{DefenderID: actor.ID}, nil
	}
	return combat.Attack{AttackerID: actor.ID, TargetID: opp[0].ID}, nil
})

type fixture struct {
	opts combat.Options
}

func newFixture(t *testing.T, src dice.Source, players []*combat.Combatant, waves ...[]*combat.Combatant) *fixture {
	t.Helper()
	f := &fixture{opts: combat.Options{
		ID:        "enc-test",
		Players:   players,
		Rules:     testRules(),
		Source:    src,
		Decider:   attackFirst,
		AutoRunAI: true,
		Logger:    zaptest.NewLogger(t),
	}}
	for i, w := range waves {
		f.opts.Waves = append(f.opts.Waves, combat.Wave{Label: "wave-" + string(rune('a'+i)), Combatants: w})
	}
	return f
}

func (f *fixture) start(t *testing.T) (*combat.Encounter, combat.Result) {
	t.Helper()
	enc, err := combat.New(f.opts)
	require.NoError(t, err)
	res := enc.Start(context.Background())
	require.False(t, res.Rejected, "start rejected: %v", res.Err)
	return enc, res
}

func current(t *testing.T, enc *combat.Encounter) *combat.Combatant {
	t.Helper()
	c, ok := enc.CurrentActor()
	require.True(t, ok, "expected a current actor")
	return c
}

func ids(cs []*combat.Combatant) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
